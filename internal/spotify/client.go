// Package spotify talks to the Spotify accounts and Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/serroba/podpulse/internal/upstream"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	ServiceName = "spotify"

	DefaultAccountsURL = "https://accounts.spotify.com"
	DefaultAPIURL      = "https://api.spotify.com/v1"
)

// LoginScopes are requested by the authorization-code flow.
var LoginScopes = []string{"user-read-private", "user-read-email"}

// ErrNotConfigured is returned when client credentials are missing.
var ErrNotConfigured = errors.New("spotify credentials not configured")

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AccountsURL  string
	APIURL       string
}

// Client wraps the Spotify endpoints used by the catalog and login flows.
// App tokens come from the client-credentials grant and are reused until
// they expire.
type Client struct {
	cfg    Config
	api    *upstream.Client
	oauth  *oauth2.Config
	cc     *clientcredentials.Config
	mu     sync.Mutex
	tokens oauth2.TokenSource
}

func New(cfg Config, api *upstream.Client) *Client {
	if cfg.AccountsURL == "" {
		cfg.AccountsURL = DefaultAccountsURL
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	endpoint := oauth2.Endpoint{
		AuthURL:   cfg.AccountsURL + "/authorize",
		TokenURL:  cfg.AccountsURL + "/api/token",
		AuthStyle: oauth2.AuthStyleInHeader,
	}

	return &Client{
		cfg: cfg,
		api: api,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       LoginScopes,
			Endpoint:     endpoint,
		},
		cc: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     endpoint.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
	}
}

func (c *Client) configured() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.api.HTTPClient())
}

// FetchToken requests a fresh app token. The returned token carries its expiry.
func (c *Client) FetchToken(ctx context.Context) (*oauth2.Token, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}

	tok, err := c.cc.Token(c.oauthContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %s token: %w", upstream.ErrUnavailable, ServiceName, err)
	}

	return tok, nil
}

// Token returns a cached app token, fetching a new one only after expiry.
func (c *Client) Token(ctx context.Context) (*oauth2.Token, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}

	c.mu.Lock()
	if c.tokens == nil {
		c.tokens = oauth2.ReuseTokenSource(nil, c.cc.TokenSource(c.oauthContext(context.Background())))
	}
	src := c.tokens
	c.mu.Unlock()

	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %s token: %w", upstream.ErrUnavailable, ServiceName, err)
	}

	return tok, nil
}

// AuthCodeURL is the user-facing authorize URL for the login flow.
func (c *Client) AuthCodeURL(state string) (string, error) {
	if c.cfg.ClientID == "" || c.cfg.RedirectURI == "" {
		return "", ErrNotConfigured
	}

	return c.oauth.AuthCodeURL(state), nil
}

// Exchange trades an authorization code for a user token.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}

	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s code exchange: %w", upstream.ErrUnavailable, ServiceName, err)
	}

	return tok, nil
}

func (c *Client) get(ctx context.Context, token *oauth2.Token, path string, query url.Values, out any) error {
	target := c.cfg.APIURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	return c.api.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}

		token.SetAuthHeader(req)

		return req, nil
	}, out)
}

// Show fetches a single show by id.
func (c *Client) Show(ctx context.Context, token *oauth2.Token, id string) (*Show, error) {
	var raw rawShow
	if err := c.get(ctx, token, "/shows/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}

	if raw.ID == "" {
		return nil, upstream.Invalid(ServiceName, "show without id")
	}

	show := raw.toShow()

	return &show, nil
}

// SearchShows runs a show search. A response without shows.items is a schema
// violation.
func (c *Client) SearchShows(ctx context.Context, token *oauth2.Token, q string, limit, offset int) ([]Show, error) {
	query := url.Values{
		"q":      {q},
		"type":   {"show"},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}

	var resp searchResponse
	if err := c.get(ctx, token, "/search", query, &resp); err != nil {
		return nil, err
	}

	if resp.Shows == nil || resp.Shows.Items == nil {
		return nil, upstream.Invalid(ServiceName, "missing shows.items")
	}

	shows := make([]Show, 0, len(resp.Shows.Items))

	for _, item := range resp.Shows.Items {
		if item == nil || item.ID == "" {
			continue
		}

		shows = append(shows, item.toShow())
	}

	return shows, nil
}

// ChartsQuery and ChartsLimit define the ranked chart search.
const (
	ChartsQuery = "podcast"
	ChartsLimit = 50
)

// Charts returns the chart search results ranked from 1.
func (c *Client) Charts(ctx context.Context, token *oauth2.Token) ([]RankedShow, error) {
	shows, err := c.SearchShows(ctx, token, ChartsQuery, ChartsLimit, 0)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedShow, len(shows))
	for i, s := range shows {
		ranked[i] = RankedShow{Rank: i + 1, Show: s}
	}

	return ranked, nil
}

// FeaturedPlaylists returns the browse featured playlists.
func (c *Client) FeaturedPlaylists(ctx context.Context, token *oauth2.Token, limit int) ([]Playlist, error) {
	var resp featuredResponse

	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, token, "/browse/featured-playlists", query, &resp); err != nil {
		return nil, err
	}

	if resp.Playlists == nil || resp.Playlists.Items == nil {
		return nil, upstream.Invalid(ServiceName, "missing playlists.items")
	}

	out := make([]Playlist, 0, len(resp.Playlists.Items))

	for _, p := range resp.Playlists.Items {
		if p == nil {
			continue
		}

		out = append(out, Playlist{
			ID:        p.ID,
			Title:     p.Name,
			Publisher: p.Owner.DisplayName,
			Image:     firstImage(p.Images),
		})
	}

	return out, nil
}

// Me fetches the profile of the user owning token.
func (c *Client) Me(ctx context.Context, token *oauth2.Token) (*User, error) {
	var raw rawUser
	if err := c.get(ctx, token, "/me", nil, &raw); err != nil {
		return nil, err
	}

	if raw.ID == "" {
		return nil, upstream.Invalid(ServiceName, "user without id")
	}

	return &User{
		ID:          raw.ID,
		DisplayName: raw.DisplayName,
		Email:       raw.Email,
		Followers:   raw.Followers.Total,
		ProfileURL:  raw.ExternalURLs.Spotify,
		ImageURL:    firstImage(raw.Images),
	}, nil
}

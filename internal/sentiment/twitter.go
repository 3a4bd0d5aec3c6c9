// Package sentiment searches recent tweets about a podcast and scores them.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/serroba/podpulse/internal/upstream"
)

const (
	ServiceName    = "twitter"
	DefaultBaseURL = "https://api.twitter.com/2"
	MaxResults     = 15
)

var (
	ErrTitleRequired = errors.New("podcast title is required")
	ErrNotConfigured = errors.New("twitter bearer token not configured")
)

type AnalyzedTweet struct {
	Text      string `json:"text"`
	Sentiment Scores `json:"sentiment"`
}

type Twitter struct {
	api     *upstream.Client
	bearer  string
	baseURL string
}

func NewTwitter(api *upstream.Client, bearer, baseURL string) *Twitter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Twitter{api: api, bearer: bearer, baseURL: strings.TrimRight(baseURL, "/")}
}

var whitespace = regexp.MustCompile(`\s+`)

// BuildQuery matches the quoted title or its hashtag, plus the quoted guest
// name when one is given.
func BuildQuery(title, guest string) string {
	q := fmt.Sprintf("%q OR #%s", title, whitespace.ReplaceAllString(title, ""))
	if guest = strings.TrimSpace(guest); guest != "" {
		q += fmt.Sprintf(" OR %q", guest)
	}

	return q
}

// Search returns the recent tweets for the podcast, each with its sentiment.
func (t *Twitter) Search(ctx context.Context, title, guest string) ([]AnalyzedTweet, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if t.bearer == "" {
		return nil, ErrNotConfigured
	}

	query := url.Values{
		"query":       {BuildQuery(title, guest)},
		"max_results": {strconv.Itoa(MaxResults)},
	}
	target := t.baseURL + "/tweets/search/recent?" + query.Encode()

	var resp struct {
		Data []struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}

	err := t.api.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Authorization", "Bearer "+t.bearer)

		return req, nil
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := make([]AnalyzedTweet, 0, len(resp.Data))
	for _, tweet := range resp.Data {
		out = append(out, AnalyzedTweet{Text: tweet.Text, Sentiment: Score(tweet.Text)})
	}

	return out, nil
}

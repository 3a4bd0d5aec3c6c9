package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/podpulse/internal/auth"
	"github.com/serroba/podpulse/internal/spotify"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// LoginProvider is the Spotify authorization-code flow.
type LoginProvider interface {
	AuthCodeURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Me(ctx context.Context, token *oauth2.Token) (*spotify.User, error)
}

// AuthHandler runs the login, callback and logout routes.
type AuthHandler struct {
	provider    LoginProvider
	issuer      *auth.Issuer
	frontendURL string
	secure      bool
	logger      *zap.Logger
}

// NewAuthHandler creates the handler. Cookies are marked Secure when
// frontendURL is served over https.
func NewAuthHandler(provider LoginProvider, issuer *auth.Issuer, frontendURL string, logger *zap.Logger) *AuthHandler {
	frontendURL = strings.TrimRight(frontendURL, "/")

	return &AuthHandler{
		provider:    provider,
		issuer:      issuer,
		frontendURL: frontendURL,
		secure:      strings.HasPrefix(frontendURL, "https://"),
		logger:      logger,
	}
}

func (h *AuthHandler) cookie(name, value string, maxAge time.Duration) http.Cookie {
	c := http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	}

	if maxAge < 0 {
		c.MaxAge = -1
	}

	return c
}

type LoginResponse struct {
	Status    int
	Location  string      `header:"Location"`
	SetCookie http.Cookie `header:"Set-Cookie"`
}

// Login redirects to the Spotify authorize page with a fresh state stored in
// a short-lived cookie.
func (h *AuthHandler) Login(_ context.Context, _ *struct{}) (*LoginResponse, error) {
	state, err := auth.NewState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", zap.Error(err))

		return nil, huma.Error500InternalServerError("internal server error")
	}

	target, err := h.provider.AuthCodeURL(state)
	if err != nil {
		return nil, httpError(err)
	}

	return &LoginResponse{
		Status:    http.StatusFound,
		Location:  target,
		SetCookie: h.cookie(auth.StateCookie, state, auth.StateTTL),
	}, nil
}

type CallbackRequest struct {
	Code        string `query:"code"`
	State       string `query:"state"`
	Error       string `query:"error"`
	StateCookie string `cookie:"oauthstate"`
}

type CallbackResponse struct {
	Status    int
	Location  string        `header:"Location"`
	SetCookie []http.Cookie `header:"Set-Cookie"`
}

// Callback exchanges the code, loads the profile, issues the session cookie
// and sends the user to the analytics page.
func (h *AuthHandler) Callback(ctx context.Context, req *CallbackRequest) (*CallbackResponse, error) {
	if req.Error != "" {
		return nil, huma.Error400BadRequest("authorization denied: " + req.Error)
	}

	if req.Code == "" {
		return nil, huma.Error400BadRequest("authorization code is missing")
	}

	if req.StateCookie == "" || subtle.ConstantTimeCompare([]byte(req.State), []byte(req.StateCookie)) != 1 {
		return nil, huma.Error400BadRequest("invalid oauth state")
	}

	tok, err := h.provider.Exchange(ctx, req.Code)
	if err != nil {
		h.logger.Error("spotify code exchange failed", zap.Error(err))

		return nil, httpError(err)
	}

	user, err := h.provider.Me(ctx, tok)
	if err != nil {
		h.logger.Error("spotify profile lookup failed", zap.Error(err))

		return nil, httpError(err)
	}

	session, _, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.logger.Error("failed to issue session", zap.String("user", user.ID), zap.Error(err))

		return nil, huma.Error500InternalServerError("internal server error")
	}

	h.logger.Info("user logged in", zap.String("user", user.ID))

	query := url.Values{
		"display_name": {user.DisplayName},
		"email":        {user.Email},
		"image_url":    {user.ImageURL},
	}

	return &CallbackResponse{
		Status:   http.StatusFound,
		Location: h.frontendURL + "/analytics?" + query.Encode(),
		SetCookie: []http.Cookie{
			h.cookie(auth.SessionCookie, session, h.issuer.TTL()),
			h.cookie(auth.StateCookie, "", -1),
		},
	}, nil
}

type LogoutResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
}

func (h *AuthHandler) Logout(_ context.Context, _ *struct{}) (*LogoutResponse, error) {
	return &LogoutResponse{SetCookie: h.cookie(auth.SessionCookie, "", -1)}, nil
}

func RegisterAuthRoutes(api huma.API, h *AuthHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodGet,
		Path:        "/auth/login",
		Summary:     "Start Spotify login",
		Tags:        []string{"Auth"},
	}, h.Login)

	huma.Register(api, huma.Operation{
		OperationID: "login-callback",
		Method:      http.MethodGet,
		Path:        "/auth/callback",
		Summary:     "Spotify login callback",
		Tags:        []string{"Auth"},
	}, h.Callback)

	huma.Register(api, huma.Operation{
		OperationID:   "logout",
		Method:        http.MethodPost,
		Path:          "/auth/logout",
		Summary:       "End the session",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusNoContent,
	}, h.Logout)
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/podpulse/internal/auth"
	"go.uber.org/zap"
)

// TokenVerifier resolves a session token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticate attaches the session user to the request context. A bearer
// token wins over the session cookie. Operations flagged with auth.MetadataKey
// get a 401 when no valid session is present; others pass through anonymous.
func Authenticate(api huma.API, verifier TokenVerifier, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if token := sessionToken(ctx); token != "" {
			userID, err := verifier.Verify(token)
			if err == nil {
				ctx = huma.WithContext(ctx, auth.ContextWithUser(ctx.Context(), userID))
				next(ctx)

				return
			}

			logger.Debug("rejected session token",
				zap.String("path", getOperationPath(ctx)),
				zap.Error(err),
			)
		}

		if requiresAuth(ctx) {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "authentication required")

			return
		}

		next(ctx)
	}
}

func sessionToken(ctx huma.Context) string {
	if h := ctx.Header("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	if cookie, err := huma.ReadCookie(ctx, auth.SessionCookie); err == nil {
		return cookie.Value
	}

	return ""
}

func requiresAuth(ctx huma.Context) bool {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return false
	}

	required, _ := op.Metadata[auth.MetadataKey].(bool)

	return required
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/wa-gateway-go/internal/audit"
	apperrors "github.com/openclaw/wa-gateway-go/internal/errors"
	"github.com/openclaw/wa-gateway-go/internal/util"
)

// AuthMiddleware guards the API with a single shared bearer token. A
// missing token is rejected with 401 and a wrong one with 403.
type AuthMiddleware struct {
	tokenHash string
}

func NewAuthMiddleware(apiToken string) *AuthMiddleware {
	return &AuthMiddleware{tokenHash: util.HashToken(apiToken)}
}

// Handler accepts the token only from the Authorization header.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return m.guard(next, false)
}

// StreamHandler also accepts a token query parameter on GET, for
// EventSource clients that cannot set headers.
func (m *AuthMiddleware) StreamHandler(next http.Handler) http.Handler {
	return m.guard(next, true)
}

func (m *AuthMiddleware) guard(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r, allowQuery)
		if token == "" {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventAuthMissing,
				Details: map[string]interface{}{"path": r.URL.Path},
			})
			writeError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		if !util.ConstantTimeEqual(util.HashToken(token), m.tokenHash) {
			log.Warn().Msg("auth middleware: invalid token attempt")
			audit.LogFromRequest(r, audit.Event{
				Type: audit.EventAuthFailure,
				Details: map[string]interface{}{
					"path":        r.URL.Path,
					"fingerprint": util.TokenFingerprint(token),
				},
			})
			writeError(w, apperrors.Forbidden("Invalid authentication token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractToken reads the bearer token from the Authorization header, then
// from the token query parameter when allowQuery is set.
func extractToken(r *http.Request, allowQuery bool) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	if allowQuery && r.Method == http.MethodGet {
		return r.URL.Query().Get("token")
	}

	return ""
}

package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/zhouzirui/gamebot/backend/internal/service/auth"
	"github.com/zhouzirui/gamebot/backend/pkg/utils"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenParser validates bearer tokens.
type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

// RequireUser rejects requests without a valid bearer token and stores the
// token claims in the request context.
func RequireUser(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				utils.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := parser.ParseToken(strings.TrimSpace(token))
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				utils.RespondError(w, http.StatusUnauthorized, "could not validate credentials")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by RequireUser.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// AdminOnly guards a route with HTTP basic auth against a single configured
// account. Both fields are compared in constant time.
func AdminOnly(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
			if !ok || !userOK || !passOK {
				w.Header().Set("WWW-Authenticate", "Basic")
				utils.RespondError(w, http.StatusUnauthorized, "incorrect username or password")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/hongminglow/mosque-donations/internal/auth"
	"github.com/hongminglow/mosque-donations/internal/http/respond"
	"github.com/hongminglow/mosque-donations/internal/log"
)

// RequireAuth verifies the bearer token on every request before the handler
// runs and stores the caller's claims in the request context.
func RequireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err == nil {
				var claims *auth.Claims
				claims, err = tokens.Parse(raw)
				if err == nil {
					ctx := auth.WithClaims(r.Context(), claims)
					ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, claims.UserID))
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			log.FromContext(r.Context()).Warn("authentication failed", log.FieldError, err.Error())
			switch {
			case errors.Is(err, auth.ErrTokenMissing):
				respond.Error(w, http.StatusUnauthorized, "token missing")
			case errors.Is(err, auth.ErrTokenExpired):
				respond.Error(w, http.StatusUnauthorized, "token expired")
			default:
				respond.Error(w, http.StatusUnauthorized, "invalid token")
			}
		})
	}
}

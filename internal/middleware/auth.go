package middleware

import (
	"errors"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// public paths never consult credentials.
var public = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Authenticate resolves the request credentials into a principal stored in
// the request context. Requests without credentials continue anonymously;
// invalid credentials are rejected on every route.
func Authenticate(authenticator auth.Authenticator, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := authenticator.Authenticate(r)
			if err != nil {
				if errors.Is(err, model.ErrInvalidCredentials) {
					logger.Warn().
						Str("path", r.URL.Path).
						Str("remote_addr", r.RemoteAddr).
						Msg("invalid credentials")
				} else {
					logger.Error().Err(err).Str("path", r.URL.Path).Msg("authentication failed")
				}
				writeError(w, err)
				return
			}

			if principal != nil {
				r = r.WithContext(auth.WithPrincipal(r.Context(), principal))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Permission applies the view-level policy for res; the action follows the
// request method.
func Permission(res auth.Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			act := auth.ActionForMethod(r.Method)
			if err := auth.Authorize(auth.FromContext(r.Context()), res, act, nil); err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

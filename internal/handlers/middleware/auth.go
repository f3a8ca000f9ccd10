package middleware

import (
	"context"
	"net/http"

	"github.com/dsmelov/clipshare/internal/handlers/render"
	"github.com/dsmelov/clipshare/internal/handlers/userctx"
	"github.com/dsmelov/clipshare/internal/models"
)

type authenticator interface {
	// Resolve the account behind the request's access token
	// Must be side effect free
	Authenticate(ctx context.Context, r *http.Request) (models.Account, error)
}

// Auth gates every protected request: the account resolved from a verified
// access token is attached to the request context, anything else is a 401
// with one generic message
func Auth(a authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := a.Authenticate(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

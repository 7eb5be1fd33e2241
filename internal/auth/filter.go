package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	errordefs "github.com/dijam/media-gallery/internal/errors"
)

const bearerPrefix = "Bearer "

// Authenticator is satisfied by Provider; handlers are tested against fakes.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// Filter installs the request principal from the Authorization header.
// Requests without a bearer token continue anonymously; requests with a
// token that fails authentication stop here with 401.
func Filter(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := a.Authenticate(r.Context(), strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				var e *errordefs.Error
				if !errors.As(err, &e) {
					e = errordefs.Wrap(errordefs.INVALID_CREDENTIALS, MsgInvalidToken, "", err)
				}
				slog.InfoContext(r.Context(), "authentication failed", "path", r.URL.Path, "error", err)
				writeError(w, e)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// writeError writes e as {"error": "<message>"} with its HTTP status.
func writeError(w http.ResponseWriter, e *errordefs.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus)
	_ = json.NewEncoder(w).Encode(e)
}

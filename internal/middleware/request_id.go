package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofrs/uuid/v5"
)

const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// idSources are tried in order until one yields an id.
var idSources = []func() (uuid.UUID, error){uuid.NewV7, uuid.NewV4}

func newRequestID(sources ...func() (uuid.UUID, error)) (uuid.UUID, error) {
	var errs []error
	for _, source := range sources {
		id, err := source()
		if err == nil {
			return id, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return uuid.Nil, errors.New("generate request id: no id source")
	}
	return uuid.Nil, fmt.Errorf("generate request id: %w", errors.Join(errs...))
}

// WithRequestID tags every request with an id: the client's X-Request-ID when it
// is a valid UUID, a fresh UUIDv7 otherwise. The id is echoed in the response.
// When no id can be generated the request goes through untagged.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.FromString(r.Header.Get(RequestIDHeader))
			if err != nil || id.IsNil() {
				if id, err = newRequestID(idSources...); err != nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set(RequestIDHeader, id.String())
			ctx := context.WithValue(r.Context(), requestIDKey{}, id.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestID returns the id assigned by WithRequestID, or "" outside of it.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

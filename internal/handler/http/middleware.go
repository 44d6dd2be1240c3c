package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

// SessionFromHeader reads the X-Session-ID header and stores the parsed ID in
// the request context. A missing header is rejected with 401 and a malformed
// one with 400.
func SessionFromHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(middleware.SessionIDHeader)
		if raw == "" {
			httputil.WriteError(w, r, apperrors.Unauthorized(middleware.SessionIDHeader+" header is required"), nil)
			return
		}

		id, err := httputil.ParseUUID(middleware.SessionIDHeader, raw)
		if err != nil {
			httputil.WriteError(w, r, err, nil)
			return
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(sessionIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// ContentTypeJSON rejects request bodies that are not declared as JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteError(w, r, apperrors.UnsupportedMediaType(ct), nil)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

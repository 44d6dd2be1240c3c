package middleware

import (
	"net/http"
	"strconv"
)

// CatalogMaxAge is how long browsers may reuse product and banner listings.
// The catalog only changes on restart or reseed.
const CatalogMaxAge = 60

// CacheControl marks GET responses as publicly cacheable for
// maxAge seconds. A non-positive maxAge sends no-store, which cart routes use
// since every response reflects mutable session state.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	value := "no-store"
	if maxAge > 0 {
		value = "public, max-age=" + strconv.Itoa(maxAge)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || maxAge <= 0 {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

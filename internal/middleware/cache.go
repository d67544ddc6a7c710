package middleware

import (
	"net/http"
	"strings"
)

// NoStoreAPI sets strict no-cache headers on API responses so clients never
// act on a stale form list or an already-deleted form. Static marketing
// assets are left cacheable.
func NoStoreAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}
		next.ServeHTTP(w, r)
	})
}

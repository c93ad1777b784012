// Package admin exposes the operator console API: read-only reporting
// over the generation records plus quota-override management. The gate is
// a static shared-secret check, nothing more.
package admin

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// TokenMiddleware authenticates every admin route against a shared
// secret, passed either as the x-admin-token header or a token query
// parameter.
func TokenMiddleware(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminToken == "" {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "ADMIN_TOKEN not configured"})
				return
			}

			token := r.Header.Get("x-admin-token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != adminToken {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

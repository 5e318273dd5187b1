package middleware

import (
	"net/http"
	"strings"
)

// The only browser clients are the webchat widget and the DECSA back-office
// front end. Both send plain JSON; no auth or custom headers cross the wire.
const (
	corsAllowedHeaders = "Content-Type"
	corsAllowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsMaxAge         = "600"
)

// CORS allows cross-origin requests from the configured origins. A "*"
// entry allows any origin; the actual Origin value is echoed back either
// way so credentials-less fetches keep working.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAny := false
	allow := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
		case "*":
			allowAny = true
		default:
			allow[origin] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			_, listed := allow[strings.TrimRight(origin, "/")]
			if origin != "" && (allowAny || listed) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
				h.Set("Access-Control-Max-Age", corsMaxAge)
			}

			if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

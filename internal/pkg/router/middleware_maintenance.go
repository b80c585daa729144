package router

import (
	"net/http"
	"strings"

	"github.com/otpgate/otpgate/internal/pkg/config"
)

// middlewareMaintenance serves 503 for routes listed under
// app.maintenance.endpoints, letting operators fence off individual flows
// without a deploy. Matching is by route pattern, not raw path.
func middlewareMaintenance(cfg config.Config) Middleware {
	fenced := make(map[string]struct{})
	if cfg != nil {
		for _, route := range cfg.GetArray("app.maintenance.endpoints") {
			if route = strings.TrimSpace(route); route != "" {
				fenced[route] = struct{}{}
			}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, blocked := fenced[routePattern(r)]; blocked {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

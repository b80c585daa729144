package router

import (
	"net/http"
	"strings"

	"github.com/otpgate/otpgate/internal/pkg/jwt"
)

// middlewareAuthentication enforces a Bearer access token on every route not
// in the public set, and stores the verified claims for handlers. Refresh
// tokens are rejected here; only the refresh endpoint accepts those, and it
// is public.
func middlewareAuthentication(verifier jwt.JWT, public map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if routes, ok := public[r.Method]; ok {
				if _, open := routes[routePattern(r)]; open {
					next.ServeHTTP(w, r)
					return
				}
			}

			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeJSON(w, map[string]string{"message": "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(parts[1], jwt.KindAccess)
			if err != nil {
				writeJSON(w, map[string]string{"message": "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}

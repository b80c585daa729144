package router

import (
	"net/http"
	"strings"

	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/uid"
)

const (
	// HeaderCorrelationID tracks a request across services and log streams.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is the name some proxies use for the same thing.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// middlewareCorrelationID adopts the caller's correlation id when one arrives,
// mints one otherwise, echoes it in the response header, and stores it in the
// context for the logger and outbound publishes.
func middlewareCorrelationID(uid uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := sanitizeCorrelationID(r.Header.Get(HeaderCorrelationID))
			if cid == "" {
				cid = sanitizeCorrelationID(r.Header.Get(HeaderRequestID))
			}
			if cid == "" && uid != nil {
				cid = uid.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// sanitizeCorrelationID rejects header-injection attempts and caps length;
// the id is echoed back verbatim and logged, so it cannot be trusted raw.
func sanitizeCorrelationID(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}

	v = strings.TrimSpace(v)
	if len(v) > maxCorrelationIDLen {
		v = v[:maxCorrelationIDLen]
	}

	return v
}

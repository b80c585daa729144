package router

import (
	"net"
	"net/http"
	"strings"
)

// middlewareIP rewrites RemoteAddr to the client address a trusted proxy
// reported, so downstream code (rate-limit keys, session metadata) sees the
// real caller instead of the load balancer.
func middlewareIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := clientAddr(r); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	var candidate string
	switch {
	case r.Header.Get("True-Client-IP") != "":
		candidate = r.Header.Get("True-Client-IP")
	case r.Header.Get("X-Real-IP") != "":
		candidate = r.Header.Get("X-Real-IP")
	case r.Header.Get("X-Forwarded-For") != "":
		candidate, _, _ = strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	}

	if net.ParseIP(candidate) != nil {
		return candidate
	}

	// No usable forwarding header; fall back to the socket peer.
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && net.ParseIP(host) != nil {
		return host
	}

	return ""
}

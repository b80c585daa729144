package router

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/otpgate/otpgate/internal/pkg/stacktrace"
)

// middlewareRecoverer turns a handler panic into a 500 and logs the in-repo
// frames of the stack. http.ErrAbortHandler is re-raised; that is the
// server's own signal for dropping a connection, not a bug.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel, compared by identity
				panic(rvr)
			}

			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			if r.Header.Get("Connection") != "Upgrade" {
				w.WriteHeader(http.StatusInternalServerError)
			}

			if frames := stacktrace.InternalPaths(debug.Stack()); len(frames) > 0 {
				slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "stack", frames)
			} else {
				slog.ErrorContext(r.Context(), "panic on the server trace debug", "because", rvr, "stack", string(debug.Stack()))
			}

			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Internal server error"})
		}()

		next.ServeHTTP(w, r)
	})
}

package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start begins serving HTTP and returns a channel that closes once a
// termination signal arrives. The caller then drives Stop with its own
// deadline.
func (a *App) Start() <-chan struct{} {
	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)

		err := a.httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server exited", "error", err)
			os.Exit(1)
		}
	}()

	done := make(chan struct{})
	go func() {
		sigCtx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-sigCtx.Done()
		a.cancel()
		close(done)

		slog.Info("shutdown signal received")
	}()

	return done
}

// Stop drains the HTTP server, waits for background goroutines, then
// tears down resources in the order initClosers registered them.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	slog.InfoContext(ctx, "waiting for background goroutines")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background goroutines reported errors", "error", err)
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application stopped")
}

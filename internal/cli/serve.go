package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/presentation/tui"
	httpAdapter "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/canopy/pkg/adapters/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 5 * time.Second

// NewHTTPHandler builds the document API for app, with /metrics when enabled.
func NewHTTPHandler(app *App) http.Handler {
	opts := []httpAdapter.Option{httpAdapter.WithLogger(app.Logger)}
	if app.Config.Server.Metrics {
		opts = append(opts, httpAdapter.WithMetricsHandler(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})))
	}
	return httpAdapter.NewHandler(app.Engine, opts...)
}

// RunServe serves the HTTP API until ctx is cancelled.
// A port of 0 uses the configured one.
func RunServe(ctx context.Context, app *App, port int, w io.Writer) error {
	if port == 0 {
		port = app.Config.Server.Port
	}
	tui.PrintBanner(w, strings.TrimSpace(canopy.Version))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewHTTPHandler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		printSystemMessage(w, "Canopy Server listening on %s (store: %s)", srv.Addr, app.Config.Store.Backend)
		app.Logger.Info("HTTP server listening", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		printSystemMessage(w, "Shutting down...")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		printSystemMessage(w, "Canopy Server stopped gracefully")
		return nil
	}
}

// RunMCP serves the MCP tools over stdio or SSE.
func RunMCP(ctx context.Context, app *App, transport string, port int) error {
	srv := mcp.NewServer(app.Engine, mcp.WithLogger(app.Logger))

	switch transport {
	case "stdio":
		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		app.Logger.Info("Starting Canopy MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		if port == 0 {
			port = app.Config.Server.Port
		}
		app.Logger.Info("Starting Canopy MCP Server (SSE)", "port", port)
		return srv.ServeSSE(ctx, port)
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pitwall/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/logger"
)

// serveShutdownTimeout bounds the drain of in-flight requests.
const serveShutdownTimeout = 10 * time.Second

// sweepInterval is how often idle sessions are expired.
const sweepInterval = time.Minute

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP answer service",
	Long: `Starts the HTTP server with the chat endpoint, the web console,
and a health check. Runs until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, else :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := ensureEngine(cmd); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Re-index the rulebook when corpus files change on disk.
	if corpusIndex != nil {
		if err := corpusIndex.Watch(ctx); err != nil {
			cmd.PrintErrf("Warning: corpus watch unavailable (%v); edits need a restart\n", err)
		}
	}

	go sweepSessions(ctx)

	addr := httpAddr(serveAddr)
	server := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewHandler(chatService),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	cmd.Printf("Listening on %s\n", addr)
	cmd.Printf("Console:  http://localhost%s/\n", portSuffix(addr))
	cmd.Println("Press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		cmd.Println("Server stopped")
		return nil

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// sweepSessions expires idle sessions on a fixed cadence until ctx ends.
func sweepSessions(ctx context.Context) {
	if sessionStore == nil || engineSettings == nil {
		return
	}
	ttl := engineSettings.Session.TTL
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessionStore.DeleteIdleSince(ctx, time.Now().Add(-ttl))
			if err != nil {
				logger.Warn("Session sweep failed: %v", err)
				continue
			}
			if n > 0 {
				logger.Debug("Expired %d idle session(s)", n)
			}
		}
	}
}

// portSuffix extracts the ":port" part of a listen address for display.
func portSuffix(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i:]
		}
	}
	return addr
}

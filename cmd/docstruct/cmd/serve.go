package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docstruct/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server for the structuring API",
		Long: `Start an HTTP server that exposes structuring, correction and field
validation as a REST API.

The server provides the following endpoints:
  GET    /health                - Health check with memory and store state
  POST   /v1/structure          - Structure an OCR JSON body or a multipart upload
  POST   /v1/correct            - Correct OCR items or text
  POST   /v1/fields/fix         - Normalize a field map
  POST   /v1/fields/validate    - Validate a field map against document text
  GET    /v1/documents[/{id}]   - List or fetch stored results (with --store)
  DELETE /v1/documents/{id}     - Delete a stored result (with --store)
  GET    /ws                    - WebSocket structuring with progress
  GET    /metrics               - Prometheus metrics

Examples:
  docstruct serve
  docstruct serve --port 8080 --store
  docstruct serve --host 0.0.0.0 --port 3000 --rate-limit-enabled`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}

	f := cmd.Flags()
	f.StringP("host", "H", "localhost", "server host")
	f.IntP("port", "p", 8080, "server port")
	f.String("cors-origin", "*", "CORS allowed origins")
	f.Int("max-upload-size", 50, "maximum upload size in MB")
	f.Int("timeout", 30, "request timeout in seconds")
	f.Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	// Rate limiting flags
	f.Bool("rate-limit-enabled", false, "enable rate limiting")
	f.Int("requests-per-minute", 120, "maximum requests per minute per client")
	f.Int("requests-per-hour", 3000, "maximum requests per hour per client")
	f.Int("max-requests-per-day", 20000, "maximum requests per day per client")
	f.Int64("max-data-per-day", 1024, "maximum upload volume per day per client in MB")
	addStoreFlags(cmd.Flags())
	return cmd
}

// serverConfig resolves the server settings; flags that were set explicitly
// override config file and environment values.
func (a *app) serverConfig(cmd *cobra.Command) (server.Config, time.Duration, error) {
	cfg := a.cfg
	sc := server.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CORSOrigin:  cfg.Server.CORSOrigin,
		MaxUploadMB: int64(cfg.Server.MaxUploadMB),
		TimeoutSec:  cfg.Server.TimeoutSec,
		Pipeline:    cfg.ToPipelineConfig(),
		Source:      cfg.ToSourceOptions(),
		RateLimit: server.RateLimitConfig{
			Enabled:           cfg.Server.RateLimit.Enabled,
			RequestsPerMinute: cfg.Server.RateLimit.RequestsPerMinute,
			RequestsPerHour:   cfg.Server.RateLimit.RequestsPerHour,
			MaxRequestsPerDay: cfg.Server.RateLimit.MaxRequestsPerDay,
			MaxDataPerDayMB:   int64(cfg.Server.RateLimit.MaxDataPerDayMB),
		},
	}
	shutdownTimeout := cfg.Server.ShutdownTimeout

	flags := cmd.Flags()
	if flags.Changed("host") {
		sc.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		sc.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cors-origin") {
		sc.CORSOrigin, _ = flags.GetString("cors-origin")
	}
	if flags.Changed("max-upload-size") {
		n, _ := flags.GetInt("max-upload-size")
		sc.MaxUploadMB = int64(n)
	}
	if flags.Changed("timeout") {
		sc.TimeoutSec, _ = flags.GetInt("timeout")
	}
	if flags.Changed("shutdown-timeout") {
		shutdownTimeout, _ = flags.GetInt("shutdown-timeout")
	}
	if flags.Changed("rate-limit-enabled") {
		sc.RateLimit.Enabled, _ = flags.GetBool("rate-limit-enabled")
	}
	if flags.Changed("requests-per-minute") {
		sc.RateLimit.RequestsPerMinute, _ = flags.GetInt("requests-per-minute")
	}
	if flags.Changed("requests-per-hour") {
		sc.RateLimit.RequestsPerHour, _ = flags.GetInt("requests-per-hour")
	}
	if flags.Changed("max-requests-per-day") {
		sc.RateLimit.MaxRequestsPerDay, _ = flags.GetInt("max-requests-per-day")
	}
	if flags.Changed("max-data-per-day") {
		sc.RateLimit.MaxDataPerDayMB, _ = flags.GetInt64("max-data-per-day")
	}

	if sc.Port < 1 || sc.Port > 65535 {
		return sc, 0, fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", sc.Port)
	}
	if shutdownTimeout <= 0 {
		return sc, 0, fmt.Errorf("invalid shutdown timeout: %d (must be positive)", shutdownTimeout)
	}
	return sc, time.Duration(shutdownTimeout) * time.Second, nil
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	sc, shutdownTimeout, err := a.serverConfig(cmd)
	if err != nil {
		return err
	}

	st, err := a.openStore(cmd)
	if err != nil {
		return err
	}
	if st != nil {
		defer func() { _ = st.Close() }()
		sc.Store = st
	}

	srv, err := server.NewServer(sc)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, sc.Addr(), shutdownTimeout); err != nil {
		return err
	}
	slog.Info("Graceful shutdown completed")
	return nil
}

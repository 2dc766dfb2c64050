package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/halvard/colprofiler/internal/adapter/mcp"
	"github.com/halvard/colprofiler/internal/adapter/postgres"
	"github.com/halvard/colprofiler/internal/config"
	"github.com/halvard/colprofiler/internal/core/port"
	"github.com/halvard/colprofiler/internal/telemetry"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	overrides, err := parseFlags(os.Args[1:])
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	cfg, err := config.LoadWithOverrides(overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr — stdout is reserved for the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting colprofiler",
		slog.String("version", version),
		slog.String("log_level", cfg.LogLevel.String()),
		slog.String("transport", cfg.Transport),
		slog.String("database_url", redactDSN(cfg.DatabaseURL)),
		slog.Int("combinations_per_pass", cfg.CombinationsPerPass),
		slog.Float64("surprise_threshold", cfg.SurpriseThreshold),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{
		MaxConns:        cfg.PoolMaxConns,
		MinConns:        cfg.PoolMinConns,
		MaxConnLifetime: cfg.PoolMaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	logger.Info("database pool connected", slog.String("db.system", "postgresql"))

	tracer := telemetry.NoopTracer()
	instruments := telemetry.NoopInstruments()
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, "colprofiler", version)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutting down telemetry", slog.Any("error", err))
			}
		}()
		tracer = otel.Tracer("colprofiler")
		instruments = telemetry.NewInstruments()
	}

	deps := mcp.Deps{
		RowSource: func(schema, table string) port.RowSource {
			return postgres.NewRowSource(pool, schema, table)
		},
		Logger:              logger,
		Tracer:              tracer,
		Instrumentation:     instruments,
		CombinationsPerPass: cfg.CombinationsPerPass,
		SurpriseThreshold:   cfg.SurpriseThreshold,
		ProfileTimeout:      cfg.ProfileTimeout,
	}

	if path := os.Getenv("TRACE_FILE"); path != "" {
		traceWriter, err := telemetry.NewFileTraceWriter(path)
		if err != nil {
			return fmt.Errorf("opening trace file: %w", err)
		}
		defer traceWriter.Close()
		deps.TraceSink = traceWriter.Write
		logger.Info("pass trace enabled", slog.String("file", path))
	}

	mcpServer := mcp.NewServer(version, deps)

	if cfg.Transport == "http" {
		return serveHTTP(ctx, mcpServer, cfg, logger)
	}
	return serveStdio(ctx, mcpServer, logger)
}

func serveStdio(ctx context.Context, mcpServer *mcpserver.MCPServer, logger *slog.Logger) error {
	stdioServer := mcpserver.NewStdioServer(mcpServer)

	logger.Info("serving MCP over stdio")
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func serveHTTP(ctx context.Context, mcpServer *mcpserver.MCPServer, cfg *config.Config, logger *slog.Logger) error {
	streamable := mcpserver.NewStreamableHTTPServer(mcpServer)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/mcp", bearerAuthMiddleware(streamable, cfg.HTTPBearerToken))

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: recoveryMiddleware(mux, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over http", slog.String("addr", cfg.HTTPAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		logger.Info("shutdown complete")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

// recoveryMiddleware turns a panic in next into a 500 response instead of
// crashing the process.
func recoveryMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered", slog.Any("panic", rec))
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// healthHandler reports liveness for the http transport.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// bearerAuthMiddleware requires an "Authorization: Bearer <token>" header
// matching token.
func bearerAuthMiddleware(next http.Handler, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, prefix) || auth[len(prefix):] != token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// redactDSN replaces a DSN's password component with a fixed mask, for
// safe logging. It returns "***" if dsn doesn't parse as a URL.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User == nil {
		return dsn
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), "***")
	return u.String()
}

// parseFlags builds an Overrides from CLI flags, layered on top of
// environment variables and an optional YAML config file by
// config.LoadWithOverrides.
func parseFlags(args []string) (config.Overrides, error) {
	fs := flag.NewFlagSet("colprofiler", flag.ContinueOnError)

	configFile := fs.String("config", "", "path to a YAML run-configuration file")
	databaseURL := fs.String("database-url", "", "Postgres connection string")
	logLevel := fs.String("log-level", "", "debug, info, warn, or error")
	transport := fs.String("transport", "", "stdio or http")
	httpAddr := fs.String("http-addr", "", "listen address for the http transport")
	httpBearerToken := fs.String("http-bearer-token", "", "bearer token required by the http transport")
	poolMaxConns := fs.Int("pool-max-conns", 0, "maximum pool connections")
	poolMinConns := fs.Int("pool-min-conns", 0, "minimum pool connections")
	poolMaxConnLifetime := fs.String("pool-max-conn-lifetime", "", "maximum pool connection lifetime, e.g. 30m")
	combinationsPerPass := fs.Int("combinations-per-pass", 0, "maximum column combinations evaluated per pass")
	surpriseThreshold := fs.Float64("surprise-threshold", -1, "surprise threshold gating successor expansion")
	profileTimeout := fs.String("profile-timeout", "", "per-run profiling timeout, e.g. 2m")
	otelEnabled := fs.Bool("otel", false, "enable OpenTelemetry tracing and metrics")

	if err := fs.Parse(args); err != nil {
		return config.Overrides{}, err
	}

	var o config.Overrides
	if *configFile != "" {
		o.ConfigFile = configFile
	}
	if *databaseURL != "" {
		o.DatabaseURL = databaseURL
	}
	if *logLevel != "" {
		o.LogLevel = logLevel
	}
	if *transport != "" {
		o.Transport = transport
	}
	if *httpAddr != "" {
		o.HTTPAddr = httpAddr
	}
	if *httpBearerToken != "" {
		o.HTTPBearerToken = httpBearerToken
	}
	if *poolMaxConns != 0 {
		v := int32(*poolMaxConns)
		o.PoolMaxConns = &v
	}
	if *poolMinConns != 0 {
		v := int32(*poolMinConns)
		o.PoolMinConns = &v
	}
	if *poolMaxConnLifetime != "" {
		d, err := time.ParseDuration(*poolMaxConnLifetime)
		if err != nil {
			return config.Overrides{}, fmt.Errorf("invalid --pool-max-conn-lifetime: %w", err)
		}
		o.PoolMaxConnLifetime = &d
	}
	if *combinationsPerPass != 0 {
		o.CombinationsPerPass = combinationsPerPass
	}
	if *surpriseThreshold >= 0 {
		o.SurpriseThreshold = surpriseThreshold
	}
	if *profileTimeout != "" {
		d, err := time.ParseDuration(*profileTimeout)
		if err != nil {
			return config.Overrides{}, fmt.Errorf("invalid --profile-timeout: %w", err)
		}
		o.ProfileTimeout = &d
	}
	o.OTelEnabled = *otelEnabled

	return o, nil
}

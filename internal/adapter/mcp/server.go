package mcp

import (
	"log/slog"
	"time"

	"github.com/halvard/colprofiler/internal/core/domain"
	"github.com/halvard/colprofiler/internal/core/port"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

// Deps bundles the dependencies profile_table needs to build a fresh
// ProfileService for each request. RowSource is a factory rather than a
// bare pool so tests can substitute a fake without a live database.
type Deps struct {
	RowSource           func(schema, table string) port.RowSource
	Logger              *slog.Logger
	Tracer              trace.Tracer
	Instrumentation     port.Instrumentation
	CombinationsPerPass int
	SurpriseThreshold   float64

	// ProfileTimeout bounds a single profile_table call. Zero means no
	// deadline beyond the request's own context.
	ProfileTimeout time.Duration

	// TraceSink, if set, receives every domain.TraceEvent alongside the
	// built-in logger/metrics hook — e.g. an NDJSON file writer.
	TraceSink func(domain.TraceEvent)
}

// NewServer creates an MCPServer exposing profile_table, with logging and
// tracing hooks around every tool call.
func NewServer(version string, deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithHooks(ToolCallHooks(deps.Logger, deps.Tracer)),
	)

	RegisterTools(s, deps)

	return s
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/halvard/colprofiler/internal/core/domain"
	"github.com/halvard/colprofiler/internal/core/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server metadata
const serverName = "colprofiler"

// Tool descriptions
const (
	descProfileTable = "Statistically profile a table: discover every minimal, " +
		"statistically interesting combination of columns (its distinct-value " +
		"count, null count, and — for single columns under the value-list cap — " +
		"its actual distinct values), every combination of columns whose values " +
		"uniquely identify a row, and every functional dependency between " +
		"columns. Use this to find candidate keys and redundant columns before " +
		"writing JOINs or GROUP BYs."

	descProfileTableParam       = "Name of the table to profile"
	descProfileTableSchemaParam = "Schema name (defaults to \"public\")"

	descProfileTableCombinationsParam = "Maximum number of column combinations evaluated per pass " +
		"(defaults to the server's configured value; must be > 2)"

	descProfileTableSurpriseParam = "Surprise threshold above which a column combination is " +
		"considered worth extending further (defaults to the server's configured value)"
)

func RegisterTools(s *server.MCPServer, deps Deps) {
	s.AddTool(
		mcp.NewTool("profile_table",
			mcp.WithDescription(descProfileTable),
			mcp.WithString("table_name",
				mcp.Required(),
				mcp.Description(descProfileTableParam),
			),
			mcp.WithString("schema",
				mcp.Description(descProfileTableSchemaParam),
			),
			mcp.WithNumber("combinations_per_pass",
				mcp.Description(descProfileTableCombinationsParam),
			),
			mcp.WithNumber("surprise_threshold",
				mcp.Description(descProfileTableSurpriseParam),
			),
		),
		profileTableHandler(deps),
	)
}

func profileTableHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		tableName, ok := args["table_name"].(string)
		if !ok || tableName == "" {
			return mcp.NewToolResultError("table_name is required"), nil
		}

		schema, _ := args["schema"].(string)
		if schema == "" {
			schema = "public"
		}

		combinationsPerPass := deps.CombinationsPerPass
		if v, ok := args["combinations_per_pass"].(float64); ok && v > 2 {
			combinationsPerPass = int(v)
		}

		surpriseThreshold := deps.SurpriseThreshold
		if v, ok := args["surprise_threshold"].(float64); ok && v >= 0 {
			surpriseThreshold = v
		}

		if deps.ProfileTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, deps.ProfileTimeout)
			defer cancel()
		}

		source := deps.RowSource(schema, tableName)
		var sinks []func(domain.TraceEvent)
		if deps.TraceSink != nil {
			sinks = append(sinks, deps.TraceSink)
		}
		svc := service.NewProfileService(source, deps.Logger, deps.Tracer, deps.Instrumentation, sinks...)

		profile, err := svc.Profile(ctx,
			domain.WithCombinationsPerPass(combinationsPerPass),
			domain.WithInterestPredicate(domain.SurpriseThreshold(surpriseThreshold)),
		)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to profile table: %v", err)), nil
		}

		data, err := json.Marshal(profile)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

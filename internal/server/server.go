// Package server exposes the intelligence pipeline as MCP tools.
package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// New creates an MCP server with all tools registered.
func New(t *Tools) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "aura",
		Version: Version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "daily_intelligence",
		Description: "Run the daily pipeline for a subject: safety check, readiness score and a sanitized non-diagnostic insight",
	}, t.DailyIntelligence)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_health_log",
		Description: "Record a daily check-in with sleep quality, energy, stress and mood on a 0-10 scale",
	}, t.AddHealthLog)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_insights",
		Description: "List stored insights for a subject, newest first",
	}, t.ListInsights)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "readiness",
		Description: "Compute the deterministic readiness score and safety report without calling the narrative service",
	}, t.Readiness)

	return srv
}

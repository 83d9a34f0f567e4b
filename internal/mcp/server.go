// ABOUTME: MCP server setup for the lift plan store.
// ABOUTME: Wraps the MCP server with repository, reviewer and exporter access.
package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/lift/internal/adjust"
	"github.com/harperreed/lift/internal/export"
	"github.com/harperreed/lift/internal/review"
	"github.com/harperreed/lift/internal/storage"
)

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	reviewer  *review.Reviewer
	exporter  *export.Exporter
	now       func() time.Time
}

// NewServer creates a new MCP server. exporter may carry a nil remote, in
// which case only dry runs succeed.
func NewServer(repo storage.Repository, exporter *export.Exporter) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "lift",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		exporter:  exporter,
		now:       time.Now,
		reviewer: review.NewReviewer(review.Deps{
			Plans:     repo,
			Summaries: repo,
			Volume:    repo,
			Adjuster:  adjust.NewAdjuster(repo),
			Exporter:  exporter,
		}, review.Options{DryRun: true}),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

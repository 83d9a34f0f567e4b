// ABOUTME: MCP resource implementations for the lift plan store.
// ABOUTME: Provides lift://active-plan with per-week export status.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/lift/internal/review"
	"github.com/harperreed/lift/internal/storage"
)

const activePlanURI = "lift://active-plan"

func (s *Server) registerResources() {
	// lift://active-plan - The plan covering today and which weeks were sent
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         activePlanURI,
		Name:        "Active Plan",
		Description: "The training plan covering today, its current week and export status per week",
		MIMEType:    "application/json",
	}, s.handleActivePlanResource)
}

type weekStatus struct {
	WeekNumber int    `json:"week_number"`
	WeekStart  string `json:"week_start"`
	Exported   bool   `json:"exported"`
	RoutineID  int    `json:"routine_id,omitempty"`
	ExportedAt string `json:"exported_at,omitempty"`
}

// Resource handlers

func (s *Server) handleActivePlanResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	now := s.now()
	plan, err := s.repo.GetActivePlan(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load active plan: %w", err)
	}

	result := map[string]interface{}{"active": false}
	if plan != nil {
		weeks := make([]weekStatus, 0, plan.WeekCount)
		for n := 1; n <= plan.WeekCount; n++ {
			ws := weekStatus{WeekNumber: n, WeekStart: plan.WeekStart(n).Format("2006-01-02")}
			rec, err := s.repo.GetExportRecord(ctx, plan.ID, n)
			switch {
			case errors.Is(err, storage.ErrNotFound):
			case err != nil:
				return nil, fmt.Errorf("failed to read export record: %w", err)
			default:
				ws.Exported = true
				ws.RoutineID = rec.RoutineID
				ws.ExportedAt = rec.ExportedAt.Format("2006-01-02T15:04:05Z07:00")
			}
			weeks = append(weeks, ws)
		}

		current, _ := review.UpcomingWeek(plan, mondayOf(now))
		result = map[string]interface{}{
			"active":       true,
			"plan_id":      plan.ID.String(),
			"start_date":   plan.StartDate.Format("2006-01-02"),
			"end_date":     plan.EndDate().Format("2006-01-02"),
			"week_count":   plan.WeekCount,
			"is_test":      plan.IsTest,
			"current_week": current,
			"weeks":        weeks,
		}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      activePlanURI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// ABOUTME: MCP tool implementations for plans, training maxes and reviews.
// ABOUTME: export_week defaults to a dry run; sending requires dry_run=false.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/lift/internal/export"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/planner"
	"github.com/harperreed/lift/internal/readiness"
	"github.com/harperreed/lift/internal/review"
)

var errNoActivePlan = errors.New("no active plan")

func (s *Server) registerTools() {
	// get_plan_week
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_plan_week",
		Description: "Show the prescriptions of one week of the active plan, grouped by day",
	}, s.handleGetPlanWeek)

	// list_training_maxes
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_training_maxes",
		Description: "List training max history, newest first, optionally for one lift",
	}, s.handleListTrainingMaxes)

	// preview_review
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "preview_review",
		Description: "Compute next week's adjustment from recovery and adherence without applying it",
	}, s.handlePreviewReview)

	// export_week
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "export_week",
		Description: "Export a plan week to wger. Dry run unless dry_run is false",
	}, s.handleExportWeek)
}

// Tool input/output types

type planWeekInput struct {
	Week int `json:"week,omitempty" jsonschema:"Week number, defaults to the current week"`
}

type planWeekOutput struct {
	PlanID     string              `json:"plan_id"`
	WeekNumber int                 `json:"week_number"`
	WeekStart  string              `json:"week_start"`
	Exported   bool                `json:"exported"`
	Days       []export.DayPayload `json:"days"`
}

type listTrainingMaxesInput struct {
	LiftCode string `json:"lift_code,omitempty" jsonschema:"Filter by lift (bench, squat, ohp, deadlift)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type trainingMaxOutput struct {
	LiftCode   string  `json:"lift_code"`
	ValueKg    float64 `json:"value_kg"`
	MeasuredAt string  `json:"measured_at"`
	Source     string  `json:"source"`
}

type previewInput struct {
	Date string `json:"date,omitempty" jsonschema:"Review date (YYYY-MM-DD), defaults to today"`
}

type previewOutput struct {
	Status         string   `json:"status,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	PlanID         string   `json:"plan_id,omitempty"`
	UpcomingWeek   int      `json:"upcoming_week,omitempty"`
	WindowStart    string   `json:"window_start,omitempty"`
	WindowEnd      string   `json:"window_end,omitempty"`
	Recovery       string   `json:"recovery"`
	Adherence      string   `json:"adherence"`
	SetMultiplier  float64  `json:"set_multiplier"`
	RIRDelta       float64  `json:"rir_delta"`
	IntensityDelta float64  `json:"intensity_delta"`
	Reasons        []string `json:"reasons,omitempty"`
	Headline       string   `json:"headline,omitempty"`
	Tip            string   `json:"tip,omitempty"`
}

type exportWeekInput struct {
	Week   int   `json:"week,omitempty" jsonschema:"Week number, defaults to next week"`
	DryRun *bool `json:"dry_run,omitempty" jsonschema:"Preview only (default true)"`
	Force  bool  `json:"force,omitempty" jsonschema:"Re-export a week that was already sent"`
}

type exportWeekOutput struct {
	Status      string `json:"status"`
	WeekNumber  int    `json:"week_number"`
	RoutineName string `json:"routine_name"`
	RoutineID   int    `json:"routine_id,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
	Message     string `json:"message"`
}

// Tool handlers

func (s *Server) handleGetPlanWeek(ctx context.Context, req *mcp.CallToolRequest, input planWeekInput) (*mcp.CallToolResult, planWeekOutput, error) {
	plan, err := s.activePlan(ctx)
	if err != nil {
		return nil, planWeekOutput{}, err
	}

	week := input.Week
	if week == 0 {
		var ok bool
		if week, ok = review.UpcomingWeek(plan, mondayOf(s.now())); !ok {
			week = 1
		}
	}
	if week < 1 || week > plan.WeekCount {
		return nil, planWeekOutput{}, fmt.Errorf("week %d is outside the plan (1-%d)", week, plan.WeekCount)
	}

	rows, err := s.repo.GetPlanWeekRows(ctx, plan.ID, week)
	if err != nil {
		return nil, planWeekOutput{}, fmt.Errorf("failed to load week: %w", err)
	}
	exported, err := s.repo.WasWeekExported(ctx, plan.ID, week)
	if err != nil {
		return nil, planWeekOutput{}, fmt.Errorf("failed to check export: %w", err)
	}

	return nil, planWeekOutput{
		PlanID:     plan.ID.String(),
		WeekNumber: week,
		WeekStart:  plan.WeekStart(week).Format("2006-01-02"),
		Exported:   exported,
		Days:       export.BuildPayload(plan.ID, week, rows).Days,
	}, nil
}

func (s *Server) handleListTrainingMaxes(ctx context.Context, req *mcp.CallToolRequest, input listTrainingMaxesInput) (*mcp.CallToolResult, any, error) {
	if input.LiftCode != "" && !models.IsValidLiftCode(input.LiftCode) {
		return nil, nil, fmt.Errorf("unknown lift code: %s", input.LiftCode)
	}
	if input.Limit <= 0 {
		input.Limit = 20
	}

	tms, err := s.repo.ListTrainingMaxes(ctx, input.LiftCode, input.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list training maxes: %w", err)
	}
	if len(tms) == 0 {
		return nil, map[string]interface{}{"message": "No training maxes recorded."}, nil
	}

	out := make([]trainingMaxOutput, 0, len(tms))
	for _, tm := range tms {
		out = append(out, trainingMaxOutput{
			LiftCode:   tm.LiftCode,
			ValueKg:    tm.ValueKg,
			MeasuredAt: tm.MeasuredAt.Format(time.RFC3339),
			Source:     tm.Source,
		})
	}
	return nil, map[string]interface{}{"training_maxes": out}, nil
}

func (s *Server) handlePreviewReview(ctx context.Context, req *mcp.CallToolRequest, input previewInput) (*mcp.CallToolResult, previewOutput, error) {
	day := s.now()
	if input.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", input.Date, time.Local)
		if err != nil {
			return nil, previewOutput{}, fmt.Errorf("invalid date %q: %w", input.Date, err)
		}
		day = t
	}

	out, err := s.reviewer.Preview(ctx, day)
	if err != nil {
		return nil, previewOutput{}, fmt.Errorf("failed to preview review: %w", err)
	}
	if out.Status != "" {
		return nil, previewOutput{Status: string(out.Status), Reason: out.Reason, Recovery: "unknown", Adherence: "unknown"}, nil
	}

	sum := readiness.Summarize(out.Recovery)
	return nil, previewOutput{
		PlanID:         out.PlanID.String(),
		UpcomingWeek:   out.UpcomingWeek,
		WindowStart:    out.WindowStart.Format("2006-01-02"),
		WindowEnd:      out.WindowEnd.Format("2006-01-02"),
		Recovery:       out.Recovery.Severity.String(),
		Adherence:      string(out.Adherence.Direction),
		SetMultiplier:  out.Decision.SetMultiplier,
		RIRDelta:       out.Decision.RIRDelta,
		IntensityDelta: out.Decision.IntensityDeltaAbs,
		Reasons:        out.Decision.Reasons,
		Headline:       sum.Headline,
		Tip:            sum.Tip,
	}, nil
}

func (s *Server) handleExportWeek(ctx context.Context, req *mcp.CallToolRequest, input exportWeekInput) (*mcp.CallToolResult, exportWeekOutput, error) {
	plan, err := s.activePlan(ctx)
	if err != nil {
		return nil, exportWeekOutput{}, err
	}

	week := input.Week
	if week == 0 {
		var ok bool
		if week, ok = review.UpcomingWeek(plan, planner.NextMonday(s.now())); !ok {
			return nil, exportWeekOutput{}, fmt.Errorf("next week is outside the active plan")
		}
	}
	if week < 1 || week > plan.WeekCount {
		return nil, exportWeekOutput{}, fmt.Errorf("week %d is outside the plan (1-%d)", week, plan.WeekCount)
	}

	dryRun := true
	if input.DryRun != nil {
		dryRun = *input.DryRun
	}

	res, err := s.exporter.Export(ctx, export.Request{
		PlanID:         plan.ID,
		WeekNumber:     week,
		WeekStart:      plan.WeekStart(week),
		DryRun:         dryRun,
		ForceOverwrite: input.Force,
	})
	if err != nil {
		return nil, exportWeekOutput{}, fmt.Errorf("failed to export week %d: %w", week, err)
	}

	return nil, exportWeekOutput{
		Status:      string(res.Status),
		WeekNumber:  week,
		RoutineName: res.RoutineName,
		RoutineID:   res.RoutineID,
		Checksum:    res.Checksum,
		Message:     fmt.Sprintf("Week %d: %s (%s)", week, res.Status, res.RoutineName),
	}, nil
}

func (s *Server) activePlan(ctx context.Context) (*models.Plan, error) {
	plan, err := s.repo.GetActivePlan(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load active plan: %w", err)
	}
	if plan == nil {
		return nil, errNoActivePlan
	}
	return plan, nil
}

// mondayOf returns the Monday on or before t.
func mondayOf(t time.Time) time.Time {
	return planner.NextMonday(t.AddDate(0, 0, -6))
}

// Package mcptools defines the MCP tool surface. Each tool is a small
// struct with a Definition and a Handle; pkg/server wires them onto the
// stdio server. Input validation lives here, at the transport boundary.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ctxvitals/ctxvitals/pkg/assess"
	"github.com/ctxvitals/ctxvitals/pkg/logger"
	"github.com/ctxvitals/ctxvitals/pkg/profile"
	"github.com/ctxvitals/ctxvitals/pkg/report"
	"github.com/ctxvitals/ctxvitals/pkg/resolver"
	"github.com/ctxvitals/ctxvitals/pkg/store"
)

// Recorder is the optional history sink. A nil Recorder disables recording.
type Recorder interface {
	RecordAssessment(ctx context.Context, rec store.AssessmentRecord) error
}

// History is the optional history source for the history tool.
type History interface {
	ListAssessments(ctx context.Context, model string, limit int) ([]store.AssessmentRecord, error)
}

// CheckTool runs a context-health assessment for the caller's session.
type CheckTool struct {
	resolver *resolver.Resolver
	recorder Recorder
}

func NewCheckTool(res *resolver.Resolver, rec Recorder) *CheckTool {
	return &CheckTool{resolver: res, recorder: rec}
}

func (t *CheckTool) Definition() mcp.Tool {
	return mcp.NewTool("context_health_check",
		mcp.WithDescription("Estimate the cognitive health of the current context window from coarse session signals and get prioritized remediation actions."),
		mcp.WithNumber("token_count",
			mcp.Required(),
			mcp.Description("Estimated number of tokens currently in the context window. Must be positive."),
		),
		mcp.WithString("model",
			mcp.Required(),
			mcp.Description(`Model identifier, e.g. "claude-opus-4" or a repo-style id like "meta-llama/Llama-3.1-70B".`),
		),
		mcp.WithNumber("session_duration_minutes",
			mcp.Description("How long the session has been running, in minutes. Defaults to 0."),
		),
		mcp.WithNumber("tool_calls_count",
			mcp.Description("Number of tool calls made so far in the session. Defaults to 0."),
		),
	)
}

func (t *CheckTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenCount, err := req.RequireInt("token_count")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	model, err := req.RequireString("model")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := assess.Input{
		TokenCount:             tokenCount,
		Model:                  model,
		SessionDurationMinutes: req.GetInt("session_duration_minutes", 0),
		ToolCallsCount:         req.GetInt("tool_calls_count", 0),
	}
	if err := report.ValidateInput(in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rep := report.Build(ctx, t.resolver, in)

	if t.recorder != nil {
		raw, _ := json.Marshal(rep)
		rec := store.AssessmentRecord{
			Model:          in.Model,
			TokenCount:     in.TokenCount,
			Score:          rep.Assessment.HealthScore,
			Status:         string(rep.Assessment.Status),
			SessionMinutes: in.SessionDurationMinutes,
			ToolCalls:      in.ToolCallsCount,
			ReportJSON:     string(raw),
		}
		// History is best-effort; a failed write never fails the check.
		if err := t.recorder.RecordAssessment(ctx, rec); err != nil {
			logger.WarnCF("mcptools", "Failed to record assessment",
				map[string]interface{}{"model": in.Model, "error": err.Error()})
		}
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// HistoryTool returns recent recorded assessments.
type HistoryTool struct {
	history History
}

func NewHistoryTool(h History) *HistoryTool {
	return &HistoryTool{history: h}
}

func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("context_health_history",
		mcp.WithDescription("List recent recorded context-health assessments, newest first."),
		mcp.WithString("model",
			mcp.Description("Only return assessments for this model identifier. Omit for all models."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of records to return. Defaults to 20."),
		),
	)
}

func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.history == nil {
		return mcp.NewToolResultError("assessment history is disabled (no storage configured)"), nil
	}

	recs, err := t.history.ListAssessments(ctx, req.GetString("model", ""), req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list assessments: %v", err)), nil
	}
	if recs == nil {
		recs = []store.AssessmentRecord{}
	}

	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode history: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ModelsTool dumps the curated degradation catalog.
type ModelsTool struct{}

func NewModelsTool() *ModelsTool { return &ModelsTool{} }

func (t *ModelsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_model_profiles",
		mcp.WithDescription("List the curated model degradation profiles, including context limits and degradation thresholds."),
	)
}

func (t *ModelsTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(profile.Curated(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode catalog: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Package report ties resolution, assessment and recommendation together
// into the single result document both transports (MCP and CLI) emit.
package report

import (
	"context"
	"fmt"

	"github.com/ctxvitals/ctxvitals/pkg/assess"
	"github.com/ctxvitals/ctxvitals/pkg/recommend"
	"github.com/ctxvitals/ctxvitals/pkg/resolver"
)

// Report is the full context-health result for one input.
type Report struct {
	Model           string                     `json:"model"`
	Assessment      assess.Assessment          `json:"assessment"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// ValidateInput enforces the transport-side input contract. The core
// assessor assumes validated input, so every caller goes through here first.
func ValidateInput(in assess.Input) error {
	if in.Model == "" {
		return fmt.Errorf("model is required")
	}
	if in.TokenCount <= 0 {
		return fmt.Errorf("token_count must be positive, got %d", in.TokenCount)
	}
	if in.SessionDurationMinutes < 0 {
		return fmt.Errorf("session_duration_minutes must not be negative, got %d", in.SessionDurationMinutes)
	}
	if in.ToolCallsCount < 0 {
		return fmt.Errorf("tool_calls_count must not be negative, got %d", in.ToolCallsCount)
	}
	return nil
}

// Build resolves the model profile and produces the full report. Input must
// already be validated.
func Build(ctx context.Context, r *resolver.Resolver, in assess.Input) Report {
	p := r.Resolve(ctx, in.Model)
	a := assess.Assess(in, p)
	return Report{
		Model:           in.Model,
		Assessment:      a,
		Recommendations: recommend.Generate(a),
	}
}

package report

import (
	"context"
	"testing"

	"github.com/ctxvitals/ctxvitals/pkg/assess"
	"github.com/ctxvitals/ctxvitals/pkg/resolver"
)

func TestValidateInput(t *testing.T) {
	valid := assess.Input{TokenCount: 1000, Model: "claude-opus-4"}
	if err := ValidateInput(valid); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	cases := []assess.Input{
		{TokenCount: 1000},                                            // no model
		{Model: "claude-opus-4"},                                      // zero tokens
		{TokenCount: -1, Model: "claude-opus-4"},                      // negative tokens
		{TokenCount: 1000, Model: "m", SessionDurationMinutes: -1},    // negative minutes
		{TokenCount: 1000, Model: "m", ToolCallsCount: -3},            // negative calls
	}
	for i, in := range cases {
		if err := ValidateInput(in); err == nil {
			t.Fatalf("case %d: input %+v accepted", i, in)
		}
	}
}

func TestBuild(t *testing.T) {
	res := resolver.New(nil, "")
	in := assess.Input{TokenCount: 190000, Model: "claude-opus-4", SessionDurationMinutes: 120, ToolCallsCount: 40}

	rep := Build(context.Background(), res, in)
	if rep.Model != "claude-opus-4" {
		t.Fatalf("model = %q", rep.Model)
	}
	if rep.Assessment.Status != assess.StatusDanger {
		t.Fatalf("status = %s, want danger", rep.Assessment.Status)
	}
	if len(rep.Recommendations) == 0 {
		t.Fatal("no recommendations for an exhausted session")
	}
}

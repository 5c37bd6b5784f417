package recommend

import (
	"testing"

	"github.com/ctxvitals/ctxvitals/pkg/assess"
	"github.com/ctxvitals/ctxvitals/pkg/profile"
)

func healthyAssessment() assess.Assessment {
	return assess.Assess(assess.Input{TokenCount: 5000, Model: "claude-opus-4"}, profile.Get("claude-opus-4"))
}

func exhaustedAssessment() assess.Assessment {
	in := assess.Input{
		TokenCount:             190000,
		Model:                  "claude-opus-4",
		SessionDurationMinutes: 120,
		ToolCallsCount:         40,
	}
	return assess.Assess(in, profile.Get("claude-opus-4"))
}

func TestGenerate_HealthySingleContinue(t *testing.T) {
	recs := Generate(healthyAssessment())
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1: %+v", len(recs), recs)
	}
	r := recs[0]
	if r.Action != ActionContinue || r.Priority != PriorityLow || r.EstimatedQualityGain != 0 {
		t.Fatalf("unexpected continue recommendation: %+v", r)
	}
}

func TestGenerate_ExhaustedLadder(t *testing.T) {
	recs := Generate(exhaustedAssessment())

	found := map[string]int{}
	for _, r := range recs {
		found[r.Action]++
	}
	// Past 100% every compaction rung fires independently.
	if found[ActionImmediateContextReset] != 1 {
		t.Fatalf("immediate reset missing: %+v", recs)
	}
	if found[ActionCompactContext] != 2 {
		t.Fatalf("compact_context fired %d times, want 2: %+v", found[ActionCompactContext], recs)
	}
	if found[ActionPlanCompaction] != 1 {
		t.Fatalf("plan_compaction missing: %+v", recs)
	}
	for _, action := range []string{ActionOffloadToMemory, ActionBreakIntoSubtasks, ActionSessionCheckpoint, ActionVerifyOutputs} {
		if found[action] != 1 {
			t.Fatalf("%s fired %d times, want 1: %+v", action, found[action], recs)
		}
	}
	if found[ActionContinue] != 0 {
		t.Fatalf("continue emitted alongside real recommendations: %+v", recs)
	}
}

func TestGenerate_SortedByPriorityThenGain(t *testing.T) {
	recs := Generate(exhaustedAssessment())
	for i := 1; i < len(recs); i++ {
		prev, cur := recs[i-1], recs[i]
		if priorityWeight[prev.Priority] > priorityWeight[cur.Priority] {
			t.Fatalf("priority order violated at %d: %+v", i, recs)
		}
		if prev.Priority == cur.Priority && prev.EstimatedQualityGain < cur.EstimatedQualityGain {
			t.Fatalf("gain tiebreak violated at %d: %+v", i, recs)
		}
	}
	if recs[0].Action != ActionImmediateContextReset {
		t.Fatalf("first recommendation = %+v, want immediate reset", recs[0])
	}
}

func TestGenerate_MidLadderOnly(t *testing.T) {
	// 65000 of 96000 danger tokens is ~67.7%: the high rung and the plan
	// rung fire, the critical rungs stay quiet.
	in := assess.Input{TokenCount: 65000, Model: "gpt-4o"}
	recs := Generate(assess.Assess(in, profile.Get("gpt-4o")))

	var actions []string
	for _, r := range recs {
		actions = append(actions, r.Action)
		if r.Action == ActionImmediateContextReset {
			t.Fatalf("critical rung fired below 100%%: %+v", recs)
		}
		if r.Action == ActionCompactContext && r.Priority == PriorityCritical {
			t.Fatalf("critical compact fired below 80%%: %+v", recs)
		}
	}
	if actions[0] != ActionCompactContext {
		t.Fatalf("actions = %v, want compact_context first", actions)
	}
}

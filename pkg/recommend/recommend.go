// Package recommend maps a health assessment to an ordered list of
// remediation actions. Generation is pure and regenerated per call; the
// list is never persisted.
package recommend

import (
	"fmt"
	"sort"

	"github.com/ctxvitals/ctxvitals/pkg/assess"
)

// Priority ranks how urgently an action should be taken.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Action tags are symbolic so callers can branch on them without parsing
// the reason text.
const (
	ActionImmediateContextReset = "immediate_context_reset"
	ActionCompactContext        = "compact_context"
	ActionPlanCompaction        = "plan_compaction"
	ActionOffloadToMemory       = "offload_to_memory"
	ActionBreakIntoSubtasks     = "break_into_subtasks"
	ActionSessionCheckpoint     = "session_checkpoint"
	ActionVerifyOutputs         = "verify_outputs"
	ActionContinue              = "continue"
)

// Recommendation is a single prioritized remediation action.
type Recommendation struct {
	Priority             Priority `json:"priority"`
	Action               string   `json:"action"`
	Reason               string   `json:"reason"`
	EstimatedQualityGain int      `json:"estimated_quality_gain"`
}

var priorityWeight = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// priorityFor maps a risk bucket to the priority of its remediation.
func priorityFor(r assess.Risk) Priority {
	switch r {
	case assess.RiskCritical:
		return PriorityCritical
	case assess.RiskHigh:
		return PriorityHigh
	case assess.RiskModerate:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Generate returns remediation actions for an assessment, most urgent first.
// Every trigger is evaluated independently, so a badly overloaded session
// gets several rungs of the compaction ladder at once. The list is never
// empty: a fully healthy assessment yields a single "continue".
func Generate(a assess.Assessment) []Recommendation {
	var recs []Recommendation

	pct := a.TokenUtilization.Percentage
	if pct >= 100 {
		recs = append(recs, Recommendation{
			Priority:             PriorityCritical,
			Action:               ActionImmediateContextReset,
			Reason:               fmt.Sprintf("Context is at %.1f%% of the effective ceiling; quality is severely degraded.", pct),
			EstimatedQualityGain: 40,
		})
	}
	if pct >= 80 {
		recs = append(recs, Recommendation{
			Priority:             PriorityCritical,
			Action:               ActionCompactContext,
			Reason:               "Context is deep into the danger zone; compact conversation history now.",
			EstimatedQualityGain: 25,
		})
	}
	if pct >= 60 {
		recs = append(recs, Recommendation{
			Priority:             PriorityHigh,
			Action:               ActionCompactContext,
			Reason:               "Context is approaching the danger zone; compact before starting new work.",
			EstimatedQualityGain: 15,
		})
	}
	if pct >= 40 {
		recs = append(recs, Recommendation{
			Priority:             PriorityMedium,
			Action:               ActionPlanCompaction,
			Reason:               "Context is filling up; pick a compaction point before it becomes urgent.",
			EstimatedQualityGain: 5,
		})
	}

	if r := a.QualityEstimate.MiddleContentRisk; r == assess.RiskHigh || r == assess.RiskCritical {
		recs = append(recs, Recommendation{
			Priority:             priorityFor(r),
			Action:               ActionOffloadToMemory,
			Reason:               "Mid-context content is at elevated risk of being missed; move key facts to durable memory.",
			EstimatedQualityGain: 12,
		})
	}
	if r := a.SessionFatigue.ToolCallBurden; r == assess.RiskHigh || r == assess.RiskCritical {
		recs = append(recs, Recommendation{
			Priority:             priorityFor(r),
			Action:               ActionBreakIntoSubtasks,
			Reason:               "Tool-call overhead is crowding the context; split remaining work into smaller tasks.",
			EstimatedQualityGain: 8,
		})
	}
	if r := a.SessionFatigue.SessionLengthRisk; r == assess.RiskHigh || r == assess.RiskCritical {
		recs = append(recs, Recommendation{
			Priority:             priorityFor(r),
			Action:               ActionSessionCheckpoint,
			Reason:               "Session has been running long; checkpoint progress so a reset is cheap.",
			EstimatedQualityGain: 6,
		})
	}
	if r := a.QualityEstimate.EstimatedHallucinationRisk; r == assess.RiskHigh || r == assess.RiskCritical {
		recs = append(recs, Recommendation{
			Priority:             priorityFor(r),
			Action:               ActionVerifyOutputs,
			Reason:               "Hallucination risk is elevated; double-check recent outputs against sources.",
			EstimatedQualityGain: 4,
		})
	}

	if len(recs) == 0 {
		return []Recommendation{{
			Priority:             PriorityLow,
			Action:               ActionContinue,
			Reason:               "Context health is good; keep going.",
			EstimatedQualityGain: 0,
		}}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		wi, wj := priorityWeight[recs[i].Priority], priorityWeight[recs[j].Priority]
		if wi != wj {
			return wi < wj
		}
		return recs[i].EstimatedQualityGain > recs[j].EstimatedQualityGain
	})
	return recs
}

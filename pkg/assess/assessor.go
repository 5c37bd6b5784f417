// Package assess turns coarse session signals into a context-health report.
// Everything here is a pure function of its inputs: the same input and
// profile always produce the same assessment.
package assess

import (
	"math"

	"github.com/ctxvitals/ctxvitals/pkg/profile"
)

// Risk is a four-level severity bucket shared by all per-signal estimates.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskModerate Risk = "moderate"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

// Status is the overall verdict derived from the composite score.
type Status string

const (
	StatusHealthy Status = "healthy"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
)

// Input carries the session signals supplied by the caller. The transport
// layer validates shape (positive token count, non-negative counters) before
// anything reaches Assess.
type Input struct {
	TokenCount             int    `json:"token_count"`
	Model                  string `json:"model"`
	SessionDurationMinutes int    `json:"session_duration_minutes"`
	ToolCallsCount         int    `json:"tool_calls_count"`
}

// TokenUtilization reports context occupancy. MaxEffective is the danger
// threshold rather than the advertised window, so Percentage can exceed 100
// once the session is past the point where quality is already severely
// degraded.
type TokenUtilization struct {
	Current            int     `json:"current"`
	MaxEffective       int     `json:"max_effective"`
	Percentage         float64 `json:"percentage"`
	DangerZoneStartsAt int     `json:"danger_zone_starts_at"`
}

// QualityEstimate groups the model-degradation signals.
type QualityEstimate struct {
	RetrievalAccuracy          string `json:"retrieval_accuracy"`
	MiddleContentRisk          Risk   `json:"middle_content_risk"`
	EstimatedHallucinationRisk Risk   `json:"estimated_hallucination_risk"`
}

// SessionFatigue groups the signals driven by session length and tool use.
type SessionFatigue struct {
	ToolCallBurden    Risk   `json:"tool_call_burden"`
	SessionLengthRisk Risk   `json:"session_length_risk"`
	Recommendation    string `json:"recommendation"`
}

// Assessment is the full health report for one point-in-time input.
type Assessment struct {
	HealthScore      int              `json:"health_score"`
	Status           Status           `json:"status"`
	TokenUtilization TokenUtilization `json:"token_utilization"`
	QualityEstimate  QualityEstimate  `json:"quality_estimate"`
	SessionFatigue   SessionFatigue   `json:"session_fatigue"`
}

// Assess computes the health report for the given signals under the given
// degradation profile.
func Assess(in Input, p profile.Profile) Assessment {
	quality := p.QualityMultiplier(in.TokenCount)
	accuracy := p.RetrievalAccuracy(in.TokenCount)

	burden := toolCallBurden(in.ToolCallsCount)
	lengthRisk := sessionLengthRisk(in.SessionDurationMinutes)
	middleRisk := middleContentRisk(in.TokenCount, p.MaxTokens)
	hallucination := hallucinationRisk(accuracy, burden)

	score := compositeScore(quality, accuracy, in.ToolCallsCount, in.SessionDurationMinutes)

	return Assessment{
		HealthScore: score,
		Status:      statusFor(score),
		TokenUtilization: TokenUtilization{
			Current:            in.TokenCount,
			MaxEffective:       p.DangerZone,
			Percentage:         utilizationPercent(in.TokenCount, p.DangerZone),
			DangerZoneStartsAt: p.DangerZone,
		},
		QualityEstimate: QualityEstimate{
			RetrievalAccuracy:          accuracyStatus(accuracy),
			MiddleContentRisk:          middleRisk,
			EstimatedHallucinationRisk: hallucination,
		},
		SessionFatigue: SessionFatigue{
			ToolCallBurden:    burden,
			SessionLengthRisk: lengthRisk,
			Recommendation:    fatigueAdvice(burden, lengthRisk),
		},
	}
}

func toolCallBurden(calls int) Risk {
	switch {
	case calls <= 5:
		return RiskLow
	case calls <= 15:
		return RiskModerate
	case calls <= 30:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func sessionLengthRisk(minutes int) Risk {
	switch {
	case minutes <= 15:
		return RiskLow
	case minutes <= 45:
		return RiskModerate
	case minutes <= 90:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func middleContentRisk(tokens, maxTokens int) Risk {
	ratio := float64(tokens) / float64(maxTokens)
	switch {
	case ratio < 0.30:
		return RiskLow
	case ratio < 0.50:
		return RiskModerate
	case ratio < 0.75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// toolPenalty is the retrieval-accuracy deduction attributed to tool-call
// overhead crowding the context.
func toolPenalty(burden Risk) float64 {
	switch burden {
	case RiskLow:
		return 0
	case RiskModerate:
		return 0.05
	case RiskHigh:
		return 0.10
	default:
		return 0.15
	}
}

func hallucinationRisk(accuracy float64, burden Risk) Risk {
	adjusted := accuracy - toolPenalty(burden)
	switch {
	case adjusted > 0.85:
		return RiskLow
	case adjusted > 0.70:
		return RiskModerate
	case adjusted > 0.50:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func accuracyStatus(accuracy float64) string {
	switch {
	case accuracy > 0.90:
		return "excellent"
	case accuracy > 0.75:
		return "good"
	case accuracy > 0.55:
		return "degrading"
	default:
		return "poor"
	}
}

// compositeScore blends the degradation curves with tiered session scores.
// The tool and session tiers use the same boundaries as the risk buckets but
// contribute fixed point values instead of labels.
func compositeScore(quality, accuracy float64, toolCalls, minutes int) int {
	var toolScore float64
	switch {
	case toolCalls <= 5:
		toolScore = 20
	case toolCalls <= 15:
		toolScore = 15
	case toolCalls <= 30:
		toolScore = 8
	default:
		toolScore = 3
	}

	var sessionScore float64
	switch {
	case minutes <= 15:
		sessionScore = 15
	case minutes <= 45:
		sessionScore = 12
	case minutes <= 90:
		sessionScore = 6
	default:
		sessionScore = 2
	}

	score := math.Round(40*quality + 25*accuracy + toolScore + sessionScore)
	return int(math.Min(100, math.Max(0, score)))
}

func statusFor(score int) Status {
	switch {
	case score >= 70:
		return StatusHealthy
	case score >= 40:
		return StatusWarning
	default:
		return StatusDanger
	}
}

// utilizationPercent reports occupancy against the danger threshold with one
// decimal place.
func utilizationPercent(tokens, dangerZone int) float64 {
	return math.Round(float64(tokens)/float64(dangerZone)*1000) / 10
}

func fatigueAdvice(burden, lengthRisk Risk) string {
	worst := burden
	if riskWeight(lengthRisk) > riskWeight(burden) {
		worst = lengthRisk
	}
	switch worst {
	case RiskLow:
		return "Session load is light; no action needed."
	case RiskModerate:
		return "Session load is building; plan a natural break point."
	case RiskHigh:
		return "Session is heavily loaded; checkpoint progress and trim tool output from context."
	default:
		return "Session fatigue is critical; checkpoint now and start a fresh session."
	}
}

func riskWeight(r Risk) int {
	switch r {
	case RiskLow:
		return 0
	case RiskModerate:
		return 1
	case RiskHigh:
		return 2
	default:
		return 3
	}
}

// Weight orders risks from most to least severe: critical=0 … low=3. Shared
// with the recommendation sort so the two stay consistent.
func (r Risk) Weight() int {
	return 3 - riskWeight(r)
}

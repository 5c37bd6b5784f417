package assess

import (
	"testing"

	"github.com/ctxvitals/ctxvitals/pkg/profile"
)

func TestAssess_HealthySession(t *testing.T) {
	in := Input{TokenCount: 5000, Model: "claude-opus-4"}
	a := Assess(in, profile.Get(in.Model))

	if a.Status != StatusHealthy {
		t.Fatalf("status = %s, want healthy", a.Status)
	}
	if a.HealthScore < 90 {
		t.Fatalf("score = %d, want >= 90", a.HealthScore)
	}
	if a.QualityEstimate.RetrievalAccuracy != "excellent" {
		t.Fatalf("retrieval accuracy = %s, want excellent", a.QualityEstimate.RetrievalAccuracy)
	}
	if a.SessionFatigue.ToolCallBurden != RiskLow || a.SessionFatigue.SessionLengthRisk != RiskLow {
		t.Fatalf("unexpected fatigue: %+v", a.SessionFatigue)
	}
}

func TestAssess_ExhaustedSession(t *testing.T) {
	in := Input{
		TokenCount:             190000,
		Model:                  "claude-opus-4",
		SessionDurationMinutes: 120,
		ToolCallsCount:         40,
	}
	a := Assess(in, profile.Get(in.Model))

	if a.Status != StatusDanger {
		t.Fatalf("status = %s, want danger", a.Status)
	}
	if a.HealthScore >= 40 {
		t.Fatalf("score = %d, want < 40", a.HealthScore)
	}
	if a.SessionFatigue.ToolCallBurden != RiskCritical {
		t.Fatalf("tool burden = %s, want critical", a.SessionFatigue.ToolCallBurden)
	}
	if a.SessionFatigue.SessionLengthRisk != RiskCritical {
		t.Fatalf("session risk = %s, want critical", a.SessionFatigue.SessionLengthRisk)
	}
	if a.QualityEstimate.MiddleContentRisk != RiskCritical {
		t.Fatalf("middle risk = %s, want critical", a.QualityEstimate.MiddleContentRisk)
	}
	// 190000 tokens is already past the 150000-token danger zone.
	if a.TokenUtilization.Percentage <= 100 {
		t.Fatalf("utilization = %v, want > 100", a.TokenUtilization.Percentage)
	}
}

func TestAssess_Deterministic(t *testing.T) {
	in := Input{TokenCount: 120000, Model: "gpt-4o", SessionDurationMinutes: 50, ToolCallsCount: 12}
	p := profile.Get(in.Model)
	first := Assess(in, p)
	for i := 0; i < 10; i++ {
		if got := Assess(in, p); got != first {
			t.Fatalf("assessment not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestToolCallBurdenBuckets(t *testing.T) {
	cases := []struct {
		calls int
		want  Risk
	}{
		{0, RiskLow}, {5, RiskLow},
		{6, RiskModerate}, {15, RiskModerate},
		{16, RiskHigh}, {30, RiskHigh},
		{31, RiskCritical},
	}
	for _, c := range cases {
		if got := toolCallBurden(c.calls); got != c.want {
			t.Fatalf("burden(%d) = %s, want %s", c.calls, got, c.want)
		}
	}
}

func TestSessionLengthRiskBuckets(t *testing.T) {
	cases := []struct {
		minutes int
		want    Risk
	}{
		{0, RiskLow}, {15, RiskLow},
		{16, RiskModerate}, {45, RiskModerate},
		{46, RiskHigh}, {90, RiskHigh},
		{91, RiskCritical},
	}
	for _, c := range cases {
		if got := sessionLengthRisk(c.minutes); got != c.want {
			t.Fatalf("sessionLengthRisk(%d) = %s, want %s", c.minutes, got, c.want)
		}
	}
}

func TestUtilizationPercent_OneDecimal(t *testing.T) {
	// 5000/150000 = 3.333...% which must round to one decimal place.
	if got := utilizationPercent(5000, 150000); got != 3.3 {
		t.Fatalf("utilization = %v, want 3.3", got)
	}
	if got := utilizationPercent(150000, 150000); got != 100.0 {
		t.Fatalf("utilization = %v, want 100", got)
	}
	if got := utilizationPercent(190000, 150000); got != 126.7 {
		t.Fatalf("utilization = %v, want 126.7", got)
	}
}

func TestMaxEffectiveIsDangerZone(t *testing.T) {
	p := profile.Get("gpt-4o")
	a := Assess(Input{TokenCount: 1000, Model: "gpt-4o"}, p)
	if a.TokenUtilization.MaxEffective != p.DangerZone {
		t.Fatalf("max_effective = %d, want danger zone %d", a.TokenUtilization.MaxEffective, p.DangerZone)
	}
	if a.TokenUtilization.DangerZoneStartsAt != p.DangerZone {
		t.Fatalf("danger_zone_starts_at = %d, want %d", a.TokenUtilization.DangerZoneStartsAt, p.DangerZone)
	}
}

func TestHallucinationRisk_ToolPenalty(t *testing.T) {
	// Accuracy of 0.88 stays low risk with no tool use but drops to
	// moderate once the burden penalty kicks in.
	if got := hallucinationRisk(0.88, RiskLow); got != RiskLow {
		t.Fatalf("risk = %s, want low", got)
	}
	if got := hallucinationRisk(0.88, RiskHigh); got != RiskModerate {
		t.Fatalf("risk = %s, want moderate", got)
	}
	if got := hallucinationRisk(0.55, RiskCritical); got != RiskCritical {
		t.Fatalf("risk = %s, want critical", got)
	}
}

func TestRiskWeightOrdering(t *testing.T) {
	if RiskCritical.Weight() != 0 || RiskHigh.Weight() != 1 ||
		RiskModerate.Weight() != 2 || RiskLow.Weight() != 3 {
		t.Fatalf("unexpected risk weights: %d %d %d %d",
			RiskCritical.Weight(), RiskHigh.Weight(), RiskModerate.Weight(), RiskLow.Weight())
	}
}

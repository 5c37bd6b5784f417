package profile

import (
	"math"
	"strings"
)

// Profile holds the degradation parameters for a single model. Profiles are
// immutable once constructed; resolution replaces them, never mutates.
type Profile struct {
	Name                  string  `json:"name"`
	MaxTokens             int     `json:"max_tokens"`
	DegradationOnset      int     `json:"degradation_onset"`
	DangerZone            int     `json:"danger_zone"`
	MiddleLossCoefficient float64 `json:"middle_loss_coefficient"`
	BaseRetrievalAccuracy float64 `json:"base_retrieval_accuracy"`
}

const (
	// qualityFloor is the lowest quality multiplier any profile reports,
	// even past the advertised context limit.
	qualityFloor = 0.2

	// accuracyFloor is the lowest retrieval accuracy estimate.
	accuracyFloor = 0.1
)

// fallbackKey is the catalog entry used for unrecognized models.
const fallbackKey = "other"

// catalogOrder fixes lookup precedence for substring matching. Longer, more
// specific identifiers come first so "claude-opus-4" wins over "claude".
var catalogOrder = []string{
	"claude-opus-4",
	"claude-sonnet-4",
	"claude-haiku-3.5",
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-4-turbo",
	"o1",
	"gemini-1.5-pro",
	"gemini-1.5-flash",
	"llama-3.1-70b",
	"llama-3.1-8b",
	"mistral-large",
}

// Parameters are hand-tuned from long-context retrieval reports, not
// measured. Onset and danger thresholds are deliberately well under the
// advertised windows.
var catalog = map[string]Profile{
	"claude-opus-4":    {Name: "Claude Opus 4", MaxTokens: 200_000, DegradationOnset: 100_000, DangerZone: 150_000, MiddleLossCoefficient: 0.30, BaseRetrievalAccuracy: 0.95},
	"claude-sonnet-4":  {Name: "Claude Sonnet 4", MaxTokens: 200_000, DegradationOnset: 90_000, DangerZone: 140_000, MiddleLossCoefficient: 0.35, BaseRetrievalAccuracy: 0.93},
	"claude-haiku-3.5": {Name: "Claude Haiku 3.5", MaxTokens: 200_000, DegradationOnset: 70_000, DangerZone: 120_000, MiddleLossCoefficient: 0.40, BaseRetrievalAccuracy: 0.90},
	"gpt-4o":           {Name: "GPT-4o", MaxTokens: 128_000, DegradationOnset: 64_000, DangerZone: 96_000, MiddleLossCoefficient: 0.40, BaseRetrievalAccuracy: 0.92},
	"gpt-4o-mini":      {Name: "GPT-4o mini", MaxTokens: 128_000, DegradationOnset: 50_000, DangerZone: 90_000, MiddleLossCoefficient: 0.45, BaseRetrievalAccuracy: 0.88},
	"gpt-4-turbo":      {Name: "GPT-4 Turbo", MaxTokens: 128_000, DegradationOnset: 60_000, DangerZone: 96_000, MiddleLossCoefficient: 0.40, BaseRetrievalAccuracy: 0.90},
	"o1":               {Name: "o1", MaxTokens: 200_000, DegradationOnset: 80_000, DangerZone: 130_000, MiddleLossCoefficient: 0.35, BaseRetrievalAccuracy: 0.92},
	"gemini-1.5-pro":   {Name: "Gemini 1.5 Pro", MaxTokens: 1_048_576, DegradationOnset: 400_000, DangerZone: 700_000, MiddleLossCoefficient: 0.45, BaseRetrievalAccuracy: 0.90},
	"gemini-1.5-flash": {Name: "Gemini 1.5 Flash", MaxTokens: 1_048_576, DegradationOnset: 300_000, DangerZone: 600_000, MiddleLossCoefficient: 0.50, BaseRetrievalAccuracy: 0.86},
	"llama-3.1-70b":    {Name: "Llama 3.1 70B", MaxTokens: 131_072, DegradationOnset: 60_000, DangerZone: 100_000, MiddleLossCoefficient: 0.50, BaseRetrievalAccuracy: 0.85},
	"llama-3.1-8b":     {Name: "Llama 3.1 8B", MaxTokens: 131_072, DegradationOnset: 40_000, DangerZone: 80_000, MiddleLossCoefficient: 0.55, BaseRetrievalAccuracy: 0.80},
	"mistral-large":    {Name: "Mistral Large", MaxTokens: 131_072, DegradationOnset: 55_000, DangerZone: 95_000, MiddleLossCoefficient: 0.50, BaseRetrievalAccuracy: 0.85},

	fallbackKey: {Name: "Unknown Model", MaxTokens: 32_000, DegradationOnset: 16_000, DangerZone: 24_000, MiddleLossCoefficient: 0.50, BaseRetrievalAccuracy: 0.85},
}

// Lookup returns the curated profile for modelID. The second return is false
// when the identifier is not recognized; callers that only want a usable
// profile should use Get instead.
func Lookup(modelID string) (Profile, bool) {
	id := strings.ToLower(strings.TrimSpace(modelID))
	if p, ok := catalog[id]; ok && id != fallbackKey {
		return p, true
	}
	// Versioned identifiers like "claude-opus-4-20250514" resolve to their
	// family entry. Repo-style "org/model" ids are left for the resolver.
	if !strings.Contains(id, "/") {
		for _, key := range catalogOrder {
			if strings.HasPrefix(id, key) {
				return catalog[key], true
			}
			// Short keys like "o1" only match as a prefix; anything longer
			// is unambiguous enough to match anywhere in the identifier.
			if len(key) > 4 && strings.Contains(id, key) {
				return catalog[key], true
			}
		}
	}
	return Fallback(), false
}

// Get returns the profile for modelID, falling back to the conservative
// unknown-model entry. It never fails.
func Get(modelID string) Profile {
	p, _ := Lookup(modelID)
	return p
}

// Fallback returns the conservative profile used for unrecognized models.
func Fallback() Profile {
	return catalog[fallbackKey]
}

// Curated returns the curated catalog in lookup-precedence order. The
// fallback entry is not included.
func Curated() []Profile {
	out := make([]Profile, 0, len(catalogOrder))
	for _, key := range catalogOrder {
		out = append(out, catalog[key])
	}
	return out
}

// Heuristic derives a profile for a model known only by its advertised
// context length. This is the sole construction path for profiles outside
// the curated catalog.
func Heuristic(name string, maxTokens int) Profile {
	return Profile{
		Name:                  name,
		MaxTokens:             maxTokens,
		DegradationOnset:      int(math.Round(0.65 * float64(maxTokens))),
		DangerZone:            int(math.Round(0.80 * float64(maxTokens))),
		MiddleLossCoefficient: 0.40,
		BaseRetrievalAccuracy: 0.90,
	}
}

// QualityMultiplier estimates the fraction of baseline output quality the
// model retains at the given token count. Flat at 1.0 until the degradation
// onset, then drops along an accelerating curve down to the 0.2 floor at the
// advertised limit. Monotonically non-increasing in tokens.
func (p Profile) QualityMultiplier(tokens int) float64 {
	if tokens <= p.DegradationOnset {
		return 1.0
	}
	if tokens >= p.MaxTokens {
		return qualityFloor
	}
	progress := float64(tokens-p.DegradationOnset) / float64(p.MaxTokens-p.DegradationOnset)
	q := 1.0 - 0.8*math.Pow(progress, 1.5)
	return math.Max(qualityFloor, q)
}

// RetrievalAccuracy estimates the chance that content already in context is
// retrieved correctly, combining the quality curve with a lost-in-the-middle
// penalty that grows linearly past the onset.
func (p Profile) RetrievalAccuracy(tokens int) float64 {
	var middlePenalty float64
	if tokens > p.DegradationOnset {
		middlePenalty = p.MiddleLossCoefficient *
			float64(tokens-p.DegradationOnset) / float64(p.MaxTokens-p.DegradationOnset)
	}
	acc := p.BaseRetrievalAccuracy*p.QualityMultiplier(tokens) - middlePenalty
	return math.Max(accuracyFloor, acc)
}

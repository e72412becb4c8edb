package scoring

import "time"

// Weights is the immutable scoring configuration. It is built once at startup
// and shared read-only by every matching run.
type Weights struct {
	// TierBaselines holds the starting score for tiers 1..4.
	TierBaselines [4]float64

	// CarbonReferenceKg is the total footprint at which the full carbon
	// penalty applies.
	CarbonReferenceKg float64
	CarbonPenaltyMax  float64

	CertificationBonus float64

	AIAdjustmentEnabled bool
	OracleTimeout       time.Duration
	OracleMaxDelta      float64
	// NeutralAdjustment is applied whenever the oracle is disabled, fails or
	// times out.
	NeutralAdjustment float64
}

func DefaultWeights() Weights {
	return Weights{
		TierBaselines:       [4]float64{100, 75, 50, 25},
		CarbonReferenceKg:   1000,
		CarbonPenaltyMax:    20,
		CertificationBonus:  10,
		AIAdjustmentEnabled: false,
		OracleTimeout:       3 * time.Second,
		OracleMaxDelta:      10,
		NeutralAdjustment:   0,
	}
}

// MergeWeights overlays non-zero fields of override onto base.
func MergeWeights(base, override Weights) Weights {
	out := base
	for i, v := range override.TierBaselines {
		if v != 0 {
			out.TierBaselines[i] = v
		}
	}
	if override.CarbonReferenceKg > 0 {
		out.CarbonReferenceKg = override.CarbonReferenceKg
	}
	if override.CarbonPenaltyMax > 0 {
		out.CarbonPenaltyMax = override.CarbonPenaltyMax
	}
	if override.CertificationBonus > 0 {
		out.CertificationBonus = override.CertificationBonus
	}
	if override.OracleTimeout > 0 {
		out.OracleTimeout = override.OracleTimeout
	}
	if override.OracleMaxDelta > 0 {
		out.OracleMaxDelta = override.OracleMaxDelta
	}
	out.AIAdjustmentEnabled = override.AIAdjustmentEnabled
	return out
}

// Recommendation labels a final score.
func Recommendation(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "average"
	default:
		return "low"
	}
}

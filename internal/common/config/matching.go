package config

import (
	"fmt"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/carbon"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/engine"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/scoring"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/tier"
)

// DefaultMatching returns the matching section with every default applied.
func DefaultMatching() MatchingConfig {
	var m MatchingConfig
	applyMatchingDefaults(&m)
	return m
}

func applyMatchingDefaults(m *MatchingConfig) {
	w := scoring.DefaultWeights()
	o := engine.DefaultOptions()

	if m.EmissionFactorKgPerTonMile == 0 {
		m.EmissionFactorKgPerTonMile = carbon.DefaultEmissionFactorKgPerTonMile
	}
	if m.LocalDistanceThresholdMiles == 0 {
		m.LocalDistanceThresholdMiles = tier.DefaultLocalThresholdMiles
	}
	if len(m.TierBaselineScores) == 0 {
		m.TierBaselineScores = append([]float64(nil), w.TierBaselines[:]...)
	}
	if m.MaxCandidates == 0 {
		m.MaxCandidates = o.MaxCandidates
	}
	if m.OracleTimeoutMs == 0 {
		m.OracleTimeoutMs = int(w.OracleTimeout.Milliseconds())
	}
	if m.OracleMaxDelta == 0 {
		m.OracleMaxDelta = w.OracleMaxDelta
	}
	if m.StoreTimeoutMs == 0 {
		m.StoreTimeoutMs = int(o.StoreTimeout.Milliseconds())
	}
	if m.Concurrency == 0 {
		m.Concurrency = o.Concurrency
	}
	if m.CarbonReferenceKg == 0 {
		m.CarbonReferenceKg = w.CarbonReferenceKg
	}
	if m.CarbonPenaltyMax == 0 {
		m.CarbonPenaltyMax = w.CarbonPenaltyMax
	}
	if m.CertificationBonus == 0 {
		m.CertificationBonus = w.CertificationBonus
	}
	if m.CandidateStore == "" {
		m.CandidateStore = CandidateStorePostgres
	}
	if m.CandidateIndex == "" {
		m.CandidateIndex = "suppliers"
	}
	if m.CandidateCacheTTLMs == 0 {
		m.CandidateCacheTTLMs = 300000
	}
	if m.OracleCacheTTLMs == 0 {
		m.OracleCacheTTLMs = 3600000
	}
}

// Validate checks the matching section after defaults are applied.
func (m MatchingConfig) Validate() error {
	if m.EmissionFactorKgPerTonMile < 0 {
		return fmt.Errorf("matching.emission_factor_kg_per_ton_mile must not be negative")
	}
	if m.LocalDistanceThresholdMiles <= 0 {
		return fmt.Errorf("matching.local_distance_threshold_miles must be positive")
	}
	if len(m.TierBaselineScores) != 4 {
		return fmt.Errorf("matching.tier_baseline_scores needs exactly 4 values, got %d", len(m.TierBaselineScores))
	}
	for i := 1; i < len(m.TierBaselineScores); i++ {
		if m.TierBaselineScores[i] > m.TierBaselineScores[i-1] {
			return fmt.Errorf("matching.tier_baseline_scores must not increase from tier %d to tier %d", i, i+1)
		}
	}
	if m.MaxCandidates <= 0 {
		return fmt.Errorf("matching.max_candidates must be positive")
	}
	if m.AIAdjustmentEnabled && m.OracleTimeoutMs <= 0 {
		return fmt.Errorf("matching.oracle_timeout_ms must be positive when ai adjustment is enabled")
	}
	if m.OracleMaxDelta < 0 {
		return fmt.Errorf("matching.oracle_max_delta must not be negative")
	}
	if m.Concurrency <= 0 {
		return fmt.Errorf("matching.concurrency must be positive")
	}
	switch m.CandidateStore {
	case CandidateStorePostgres, CandidateStoreElasticsearch:
	default:
		return fmt.Errorf("matching.candidate_store must be %q or %q, got %q",
			CandidateStorePostgres, CandidateStoreElasticsearch, m.CandidateStore)
	}
	return nil
}

func (m MatchingConfig) Weights() scoring.Weights {
	w := scoring.DefaultWeights()
	copy(w.TierBaselines[:], m.TierBaselineScores)
	w.CarbonReferenceKg = m.CarbonReferenceKg
	w.CarbonPenaltyMax = m.CarbonPenaltyMax
	w.CertificationBonus = m.CertificationBonus
	w.AIAdjustmentEnabled = m.AIAdjustmentEnabled
	w.OracleTimeout = GetDuration(m.OracleTimeoutMs)
	w.OracleMaxDelta = m.OracleMaxDelta
	return w
}

func (m MatchingConfig) EngineOptions() engine.Options {
	o := engine.DefaultOptions()
	o.MaxCandidates = m.MaxCandidates
	o.Concurrency = m.Concurrency
	o.StoreTimeout = GetDuration(m.StoreTimeoutMs)
	return o
}

func (m MatchingConfig) Estimator() carbon.Estimator {
	return carbon.NewEstimator(m.EmissionFactorKgPerTonMile)
}

func (m MatchingConfig) Classifier() tier.Classifier {
	return tier.NewClassifier(m.LocalDistanceThresholdMiles)
}

package engine

import (
	"fmt"
	"math"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/geo"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/scoring"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/tier"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

// lowCarbonShare of the carbon reference marks a footprint as low.
const lowCarbonShare = 0.25

func (e *Engine) explain(req *models.RFQRequest, s scored) []string {
	b := s.breakdown
	var reasons []string

	switch b.Tier {
	case tier.PremiumLocal:
		reasons = append(reasons, "Verified premium supplier near the project site")
	case tier.PremiumOrLocal:
		if b.Premium {
			reasons = append(reasons, "Verified premium supplier")
		} else {
			reasons = append(reasons, "Verified local supplier")
		}
	case tier.VerifiedBasic:
		reasons = append(reasons, "Verified supplier")
	}

	localMiles := e.scorer.Classifier().LocalThresholdMiles
	if cat := geo.CategoryWithin(b.DistanceMiles, localMiles); cat != geo.CategoryUnknown {
		reasons = append(reasons, fmt.Sprintf("%s sourcing (%.0f mi)", titleCase(cat), b.DistanceMiles))
		if b.Local && b.DistanceMiles <= math.Min(geo.UltraLocalMiles, localMiles) {
			reasons = append(reasons, "Ultra-local bonus")
		}
		if b.Local {
			reasons = append(reasons, "Eligible for regional materials credit")
		}
	}

	if ref := e.scorer.Weights().CarbonReferenceKg; ref > 0 && b.TotalCarbonKg < ref*lowCarbonShare {
		reasons = append(reasons, "Low carbon footprint")
	}

	if len(req.Certifications) > 0 && b.CertificationAdjustment > 0 {
		reasons = append(reasons, "Holds all required certifications")
	}

	if b.OracleStatus == scoring.OracleApplied && b.RelevanceReason != "" {
		reasons = append(reasons, b.RelevanceReason)
	}
	return reasons
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// Package tier buckets suppliers into ranking tiers 1 (best) to 4.
package tier

import (
	"strings"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

// Ranking tiers, best first.
const (
	// PremiumLocal is a verified premium supplier within the local threshold.
	PremiumLocal = 1
	// PremiumOrLocal is a verified supplier that is premium or local, not both.
	PremiumOrLocal = 2
	// VerifiedBasic is a verified supplier that is neither premium nor local.
	VerifiedBasic = 3
	// Unverified is any supplier whose verification status is not "verified".
	Unverified = 4
)

// DefaultLocalThresholdMiles bounds "local" when no threshold is configured.
const DefaultLocalThresholdMiles = 100.0

// Classifier assigns tiers using a configurable local distance threshold.
type Classifier struct {
	LocalThresholdMiles float64
}

// NewClassifier uses DefaultLocalThresholdMiles for a non-positive threshold.
func NewClassifier(localThresholdMiles float64) Classifier {
	if localThresholdMiles <= 0 {
		localThresholdMiles = DefaultLocalThresholdMiles
	}
	return Classifier{LocalThresholdMiles: localThresholdMiles}
}

// Classify evaluates, in order: unverified, premium and local, premium or
// local, verified basic. Any status other than "verified" is unverified.
func (c Classifier) Classify(status models.VerificationStatus, premium bool, distanceMiles float64) int {
	if !IsVerified(status) {
		return Unverified
	}
	local := c.IsLocal(distanceMiles)
	switch {
	case premium && local:
		return PremiumLocal
	case premium || local:
		return PremiumOrLocal
	default:
		return VerifiedBasic
	}
}

// IsLocal reports whether a known distance is within the local threshold.
func (c Classifier) IsLocal(distanceMiles float64) bool {
	return distanceMiles >= 0 && distanceMiles <= c.LocalThresholdMiles
}

// IsVerified reports whether status is "verified", ignoring case and spaces.
func IsVerified(status models.VerificationStatus) bool {
	return models.VerificationStatus(strings.ToLower(strings.TrimSpace(string(status)))) == models.VerificationVerified
}

// IsPremiumTier reports whether a subscription level counts as premium.
func IsPremiumTier(tier models.SubscriptionTier) bool {
	switch models.SubscriptionTier(strings.ToLower(strings.TrimSpace(string(tier)))) {
	case models.SubscriptionPremium, models.SubscriptionEnterprise, models.SubscriptionPro:
		return true
	}
	return false
}

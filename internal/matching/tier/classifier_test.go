package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/geo"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultLocalThresholdMiles)

	tests := []struct {
		name     string
		status   models.VerificationStatus
		premium  bool
		distance float64
		expected int
	}{
		{"verified premium local", models.VerificationVerified, true, 50, 1},
		{"verified premium distant", models.VerificationVerified, true, 150, 2},
		{"verified local not premium", models.VerificationVerified, false, 50, 2},
		{"verified distant not premium", models.VerificationVerified, false, 150, 3},
		{"threshold is inclusive", models.VerificationVerified, true, 100, 1},
		{"just past threshold", models.VerificationVerified, false, 100.01, 3},
		{"unknown distance premium", models.VerificationVerified, true, geo.UnknownDistanceMiles, 2},
		{"unknown distance basic", models.VerificationVerified, false, geo.UnknownDistanceMiles, 3},
		{"case insensitive status", "Verified", false, 10, 2},
		{"unrecognised status", "pending", true, 0, 4},
		{"empty status", "", true, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Classify(tt.status, tt.premium, tt.distance))
		})
	}
}

func TestClassify_UnverifiedAlwaysTierFour(t *testing.T) {
	c := NewClassifier(DefaultLocalThresholdMiles)
	for _, premium := range []bool{true, false} {
		for _, d := range []float64{0, 1, 50, 100, 150, 5000, geo.UnknownDistanceMiles} {
			assert.Equal(t, Unverified, c.Classify(models.VerificationUnverified, premium, d))
		}
	}
}

func TestClassify_ConfigurableThreshold(t *testing.T) {
	c := NewClassifier(25)
	assert.Equal(t, 1, c.Classify(models.VerificationVerified, true, 20))
	assert.Equal(t, 2, c.Classify(models.VerificationVerified, true, 50))
	assert.Equal(t, 3, c.Classify(models.VerificationVerified, false, 50))

	assert.Equal(t, DefaultLocalThresholdMiles, NewClassifier(0).LocalThresholdMiles)
}

func TestIsPremiumTier(t *testing.T) {
	for _, tier := range []models.SubscriptionTier{"premium", "enterprise", "pro", "Premium", " PRO "} {
		assert.True(t, IsPremiumTier(tier), string(tier))
	}
	for _, tier := range []models.SubscriptionTier{"free", "standard", "scraped", "", "gold"} {
		assert.False(t, IsPremiumTier(tier), string(tier))
	}
}

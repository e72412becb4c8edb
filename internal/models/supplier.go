// internal/models/supplier.go
package models

type VerificationStatus string

const (
	VerificationVerified   VerificationStatus = "verified"
	VerificationUnverified VerificationStatus = "unverified"
)

type SubscriptionTier string

const (
	SubscriptionFree       SubscriptionTier = "free"
	SubscriptionStandard   SubscriptionTier = "standard"
	SubscriptionPremium    SubscriptionTier = "premium"
	SubscriptionEnterprise SubscriptionTier = "enterprise"
	SubscriptionPro        SubscriptionTier = "pro"
	SubscriptionScraped    SubscriptionTier = "scraped"
)

// SupplierCandidate is a supplier record as returned by the candidate store.
type SupplierCandidate struct {
	ID                 string             `json:"id"`
	CompanyName        string             `json:"companyName"`
	Email              string             `json:"email,omitempty"`
	Location           Location           `json:"location"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	SubscriptionTier   SubscriptionTier   `json:"subscriptionTier"`
	Certifications     []string           `json:"certifications,omitempty"`
	Products           []Product          `json:"products"`
}

type Product struct {
	ID               string  `json:"id"`
	Name             string  `json:"name,omitempty"`
	MaterialType     string  `json:"materialType"`
	UnitPrice        float64 `json:"unitPrice"`
	EmbodiedCarbonKg float64 `json:"embodiedCarbonKg"`
	WeightKg         float64 `json:"weightKg"`
}

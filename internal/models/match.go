// internal/models/match.go
package models

type RoutingTarget string

const (
	RouteSupplier  RoutingTarget = "supplier"
	RouteConcierge RoutingTarget = "concierge"
)

// MatchResult is one ranked (supplier, product) pair of a matching run.
type MatchResult struct {
	SupplierID          string        `json:"supplierId"`
	SupplierName        string        `json:"supplierName"`
	SupplierEmail       string        `json:"supplierEmail,omitempty"`
	ProductID           string        `json:"productId"`
	ProductName         string        `json:"productName,omitempty"`
	MaterialType        string        `json:"materialType"`
	UnitPrice           float64       `json:"unitPrice"`
	DistanceMiles       float64       `json:"distanceMiles"`
	DistanceCategory    string        `json:"distanceCategory"`
	TransportCarbonKg   float64       `json:"transportCarbonKg"`
	EmbodiedCarbonKg    float64       `json:"embodiedCarbonKg"`
	TotalCarbonKg       float64       `json:"totalCarbonKg"`
	Tier                int           `json:"tier"`
	Score               float64       `json:"score"`
	Recommendation      string        `json:"recommendation"`
	WithinBudget        bool          `json:"withinBudget"`
	RoutingTarget       RoutingTarget `json:"routingTarget"`
	WhyRecommended      []string      `json:"whyRecommended,omitempty"`
	RelevanceAdjustment float64       `json:"relevanceAdjustment"`
}

// Package carbon estimates transport and total carbon for a supplied product.
//
// All figures use one convention: kg CO2e per metric-ton-mile for truck
// freight, with product weight converted from kilograms to metric tons.
package carbon

import "math"

// DefaultEmissionFactorKgPerTonMile is the truck freight factor.
const DefaultEmissionFactorKgPerTonMile = 0.35

// Estimator converts distance and weight into transport carbon.
type Estimator struct {
	EmissionFactorKgPerTonMile float64
}

// NewEstimator replaces a negative or non-finite factor with the default.
func NewEstimator(factor float64) Estimator {
	if factor < 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		factor = DefaultEmissionFactorKgPerTonMile
	}
	return Estimator{EmissionFactorKgPerTonMile: factor}
}

// TransportCarbon returns distance x weight x factor in kg CO2e. Non-positive
// or non-finite inputs contribute nothing.
func (e Estimator) TransportCarbon(distanceMiles, weightTons float64) float64 {
	if !positive(distanceMiles) || !positive(weightTons) || !positive(e.EmissionFactorKgPerTonMile) {
		return 0
	}
	v := distanceMiles * weightTons * e.EmissionFactorKgPerTonMile
	if !positive(v) {
		return 0
	}
	return v
}

// TotalCarbon sums transport and embodied carbon, clamping each term at zero.
func (e Estimator) TotalCarbon(transportKg, embodiedKg float64) float64 {
	return clamp(transportKg) + clamp(embodiedKg)
}

// KgToTons converts a per-unit weight in kilograms to metric tons.
func KgToTons(kg float64) float64 {
	return clamp(kg) / 1000
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func clamp(v float64) float64 {
	if !positive(v) {
		return 0
	}
	return v
}

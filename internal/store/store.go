// Package store holds the candidate record store adapters the matching
// engine reads supplier pools from.
package store

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

var (
	ErrQueryFailed   = errors.New("candidate query failed")
	ErrIndexNotFound = errors.New("candidate index not found")
)

const (
	// fetch attempts including the first one
	fetchAttempts = 2
	retryDelay    = 100 * time.Millisecond
)

// normalizeMaterials lowercases, trims and dedupes material types and
// returns them sorted.
func normalizeMaterials(materials []string) []string {
	seen := make(map[string]struct{}, len(materials))
	out := make([]string, 0, len(materials))
	for _, m := range materials {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func nullableFloat(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

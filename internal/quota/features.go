// Package quota implements the coin economy that meters AI feature usage.
// Every subject (authenticated user) holds a durable coin balance that
// refills to a daily allotment on a reset boundary; each AI feature debits
// a fixed cost from that shared pool.
package quota

import (
	"fmt"
	"sort"
)

// Feature identifies a gated AI capability.
type Feature string

// Gated features and their canonical wire names.
const (
	FeatureResumeAI    Feature = "resume_ai"
	FeatureATSCheck    Feature = "ats_check"
	FeatureCoverLetter Feature = "cover_letter"
)

// DefaultDailyAllotment is the number of coins a balance refills to on reset.
const DefaultDailyAllotment = 5

// Costs maps each feature to its coin cost. The map is a closed enumeration:
// a feature absent from the map is rejected, never defaulted.
type Costs map[Feature]int

// DefaultCosts returns the deployment cost table.
func DefaultCosts() Costs {
	return Costs{
		FeatureResumeAI:    3,
		FeatureATSCheck:    1,
		FeatureCoverLetter: 1,
	}
}

// Cost returns the coin cost for a feature, or an error for unknown features.
func (c Costs) Cost(f Feature) (int, error) {
	cost, ok := c[f]
	if !ok {
		return 0, &ErrUnknownFeature{Feature: f}
	}
	return cost, nil
}

// Validate checks the cost table at startup: every known feature must be
// present with a cost of at least 1, and no cost may exceed the allotment
// (a feature that could never be afforded is a configuration mistake).
func (c Costs) Validate(dailyAllotment int) error {
	if dailyAllotment < 1 {
		return fmt.Errorf("daily allotment must be at least 1, got %d", dailyAllotment)
	}
	known := []Feature{FeatureResumeAI, FeatureATSCheck, FeatureCoverLetter}
	for _, f := range known {
		cost, ok := c[f]
		if !ok {
			return fmt.Errorf("cost table missing feature %q", f)
		}
		if cost < 1 {
			return fmt.Errorf("cost for feature %q must be at least 1, got %d", f, cost)
		}
		if cost > dailyAllotment {
			return fmt.Errorf("cost for feature %q (%d) exceeds daily allotment (%d)", f, cost, dailyAllotment)
		}
	}
	if len(c) != len(known) {
		extra := make([]string, 0, len(c))
		for f := range c {
			if !isKnownFeature(f, known) {
				extra = append(extra, string(f))
			}
		}
		sort.Strings(extra)
		return fmt.Errorf("cost table contains unknown features: %v", extra)
	}
	return nil
}

func isKnownFeature(f Feature, known []Feature) bool {
	for _, k := range known {
		if f == k {
			return true
		}
	}
	return false
}

// ErrUnknownFeature indicates a feature name outside the closed cost table.
type ErrUnknownFeature struct {
	Feature Feature
}

func (e *ErrUnknownFeature) Error() string {
	return fmt.Sprintf("unknown feature: %q", e.Feature)
}

package config

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Optional panels of the browser UI.
const (
	FeaturePomodoro = "pomodoro"
	FeatureMetrics  = "metrics"
)

// KnownFeatures lists every feature that can be toggled.
var KnownFeatures = mapset.NewSet(FeaturePomodoro, FeatureMetrics)

// FeatureSet returns the enabled features as a set.
func (c Config) FeatureSet() mapset.Set[string] {
	return mapset.NewSet(c.Features...)
}

// SortedFeatures returns the members of s in a stable order.
func SortedFeatures(s mapset.Set[string]) []string {
	out := s.ToSlice()
	slices.Sort(out)
	return out
}

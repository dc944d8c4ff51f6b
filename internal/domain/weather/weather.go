// Package weather resolves the expected conditions at a location and the
// multiplier they apply to simulated scores.
package weather

import (
	"strings"

	"github.com/okian/pitwall/internal/domain/model"
)

// Influence factors by condition class.
const (
	WetFactor       = 1.5
	UnsettledFactor = 1.3
	ClearFactor     = 1.0
	OtherFactor     = 1.05
)

// Default condition for locations without a forecast.
const (
	DefaultLabel   = "clear"
	DefaultTempMin = 20
	DefaultTempMax = 25
)

// rule maps label keywords to a factor. Order matters: a label mentioning both
// rain and clear skies must resolve as wet.
type rule struct {
	keywords []string
	factor   float64
}

var rules = []rule{
	{keywords: []string{"rain", "shower"}, factor: WetFactor},
	{keywords: []string{"cloud", "unstable"}, factor: UnsettledFactor},
	{keywords: []string{"clear", "fair"}, factor: ClearFactor},
}

// InfluenceFactor derives the score multiplier from a free-text label.
func InfluenceFactor(label string) float64 {
	l := strings.ToLower(label)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(l, kw) {
				return r.factor
			}
		}
	}
	return OtherFactor
}

// Resolver is a read-only table of conditions keyed by location.
type Resolver struct {
	conditions map[string]model.EnvironmentalCondition
}

// NewResolver indexes conditions by location key, deriving each influence factor.
// A later row for the same location replaces an earlier one.
func NewResolver(conditions []model.EnvironmentalCondition) *Resolver {
	r := &Resolver{conditions: make(map[string]model.EnvironmentalCondition, len(conditions))}
	for _, c := range conditions {
		c.InfluenceFactor = InfluenceFactor(c.ConditionLabel)
		r.conditions[c.LocationKey] = c
	}
	return r
}

// Resolve returns the condition for locationKey, or the neutral default when
// the location is unknown.
func (r *Resolver) Resolve(locationKey string) model.EnvironmentalCondition {
	if c, ok := r.conditions[locationKey]; ok {
		return c
	}
	return Default(locationKey)
}

// Default is the neutral clear-sky condition with a fixed factor of 1.0.
func Default(locationKey string) model.EnvironmentalCondition {
	return model.EnvironmentalCondition{
		LocationKey:     locationKey,
		ConditionLabel:  DefaultLabel,
		TempMin:         DefaultTempMin,
		TempMax:         DefaultTempMax,
		InfluenceFactor: ClearFactor,
	}
}

// Len returns the number of known locations.
func (r *Resolver) Len() int {
	return len(r.conditions)
}

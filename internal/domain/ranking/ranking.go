// Package ranking converts raw scores into dense positions.
package ranking

import (
	"math"
	"slices"

	"github.com/okian/pitwall/internal/domain/model"
)

// Score is a raw value for one participant. Lower is better.
type Score struct {
	ID    model.ParticipantID
	Value float64
}

// Order returns a copy of scores sorted ascending by value. The sort is
// stable, so equal values keep their input order. NaN values go last.
func Order(scores []Score) []Score {
	out := slices.Clone(scores)
	slices.SortStableFunc(out, func(a, b Score) int {
		return compare(a.Value, b.Value)
	})
	return out
}

// Rank assigns positions 1..N following Order.
func Rank(scores []Score) map[model.ParticipantID]int {
	ordered := Order(scores)
	positions := make(map[model.ParticipantID]int, len(ordered))
	for i, s := range ordered {
		positions[s.ID] = i + 1
	}
	return positions
}

func compare(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

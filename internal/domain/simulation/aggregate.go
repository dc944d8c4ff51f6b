package simulation

import (
	"slices"

	"github.com/okian/pitwall/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// podiumPositions is the number of finishing places counted as a podium.
const podiumPositions = 3

// Summary aggregates one participant across many outcomes.
type Summary struct {
	ID                model.ParticipantID
	Name              string
	MeanStart         float64
	MeanFinish        float64
	FinishStdDev      float64
	WinProbability    float64
	PodiumProbability float64
}

// Aggregate summarizes a batch of outcomes, ordered by mean finish position.
// Participants tied on mean finish keep ascending id order.
func Aggregate(outcomes []*Outcome) []Summary {
	if len(outcomes) == 0 {
		return nil
	}

	type samples struct {
		name     string
		starts   []float64
		finishes []float64
		wins     int
		podiums  int
	}
	byID := make(map[model.ParticipantID]*samples)
	for _, o := range outcomes {
		for _, r := range o.Rows {
			s, ok := byID[r.ParticipantID]
			if !ok {
				s = &samples{name: r.Name}
				byID[r.ParticipantID] = s
			}
			s.starts = append(s.starts, float64(r.StartPosition))
			s.finishes = append(s.finishes, float64(r.FinishPosition))
			if r.FinishPosition == 1 {
				s.wins++
			}
			if r.FinishPosition <= podiumPositions {
				s.podiums++
			}
		}
	}

	ids := make([]model.ParticipantID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		s := byID[id]
		meanFinish, std := stat.MeanStdDev(s.finishes, nil)
		if len(s.finishes) < 2 {
			std = 0
		}
		n := float64(len(s.finishes))
		out = append(out, Summary{
			ID:                id,
			Name:              s.name,
			MeanStart:         stat.Mean(s.starts, nil),
			MeanFinish:        meanFinish,
			FinishStdDev:      std,
			WinProbability:    float64(s.wins) / n,
			PodiumProbability: float64(s.podiums) / n,
		})
	}

	slices.SortStableFunc(out, func(a, b Summary) int {
		return compareFloat(a.MeanFinish, b.MeanFinish)
	})
	return out
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

package simulation

import "github.com/okian/pitwall/internal/domain/model"

// DefaultCheckpoints matches a ten-point progress axis from 0% to 100%.
const DefaultCheckpoints = 10

// Trace is one participant's position at evenly spaced progress checkpoints.
type Trace struct {
	ID        model.ParticipantID
	Name      string
	Progress  []float64 // percent of race distance
	Positions []float64
}

// Traces interpolates each row linearly from its start to its finish position.
// checkpoints below two fall back to DefaultCheckpoints.
func Traces(rows []Row, checkpoints int) []Trace {
	if checkpoints < 2 {
		checkpoints = DefaultCheckpoints
	}

	progress := make([]float64, checkpoints)
	for i := range progress {
		progress[i] = 100 * float64(i) / float64(checkpoints-1)
	}

	out := make([]Trace, 0, len(rows))
	for _, r := range rows {
		start, finish := float64(r.StartPosition), float64(r.FinishPosition)
		pos := make([]float64, checkpoints)
		for i := range pos {
			t := float64(i) / float64(checkpoints-1)
			pos[i] = start + (finish-start)*t
		}
		out = append(out, Trace{
			ID:        r.ParticipantID,
			Name:      r.Name,
			Progress:  progress,
			Positions: pos,
		})
	}
	return out
}

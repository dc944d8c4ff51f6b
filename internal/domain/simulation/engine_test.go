package simulation_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/okian/pitwall/internal/domain/grid"
	"github.com/okian/pitwall/internal/domain/history"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/registry"
	"github.com/okian/pitwall/internal/domain/simulation"
	"github.com/okian/pitwall/internal/domain/weather"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	idA model.ParticipantID = 1
	idB model.ParticipantID = 2

	event model.EventID = 1098
)

func twoDrivers() (*registry.Registry, *history.Table) {
	reg, err := registry.New([]model.Participant{
		{ID: idA, Name: "A", SkillRating: 90},
		{ID: idB, Name: "B", SkillRating: 70},
	})
	if err != nil {
		panic(err)
	}
	hist := history.New(map[model.ParticipantID]model.HistoricalRecord{
		idA: {AvgStartPosition: 5.0, AvgFinishPosition: 4.0},
		idB: {AvgStartPosition: 10.0, AvgFinishPosition: 12.0},
	})
	return reg, hist
}

func fieldOf(n int) (*registry.Registry, *history.Table) {
	ps := make([]model.Participant, n)
	recs := make(map[model.ParticipantID]model.HistoricalRecord, n)
	for i := range ps {
		id := model.ParticipantID(i + 1)
		ps[i] = model.Participant{ID: id, Name: "driver", SkillRating: 70 + i}
		recs[id] = model.HistoricalRecord{AvgStartPosition: float64(n - i), AvgFinishPosition: float64(n-i) + 0.5}
	}
	reg, err := registry.New(ps)
	if err != nil {
		panic(err)
	}
	return reg, history.New(recs)
}

// countingRegistry counts lookups made against the wrapped registry.
type countingRegistry struct {
	*registry.Registry
	lookups int
}

func (c *countingRegistry) Lookup(id model.ParticipantID) (model.Participant, error) {
	c.lookups++
	return c.Registry.Lookup(id)
}

func scoreOf(scores []simulation.RawScore, id model.ParticipantID) simulation.RawScore {
	for _, s := range scores {
		if s.ID == id {
			return s
		}
	}
	panic("missing score")
}

func TestEngine_Scenario(t *testing.T) {
	Convey("Given A rated 90 and B rated 70 with fixed variability and neutral weather", t, func() {
		reg, hist := twoDrivers()
		e := simulation.New(reg, hist, simulation.WithVariabilityRange(1.0, 1.0))
		ctx := context.Background()

		Convey("When simulating raw scores", func() {
			scores, err := e.Simulate(ctx, event, "anywhere")

			Convey("Then the skill-weighted averages come out as expected", func() {
				So(err, ShouldBeNil)
				So(scores, ShouldHaveLength, 2)
				So(scoreOf(scores, idA).Start, ShouldAlmostEqual, 0.5, 1e-9)
				So(scoreOf(scores, idB).Start, ShouldAlmostEqual, 3.0, 1e-9)
				So(scoreOf(scores, idA).Finish, ShouldAlmostEqual, 0.4, 1e-9)
				So(scoreOf(scores, idB).Finish, ShouldAlmostEqual, 3.6, 1e-9)
			})
		})

		Convey("When running the event", func() {
			out, err := e.Run(ctx, event, "anywhere")

			Convey("Then A starts and finishes ahead of B", func() {
				So(err, ShouldBeNil)
				So(out.Rows, ShouldHaveLength, 2)
				So(out.Rows[0].Name, ShouldEqual, "A")
				So(out.Rows[0].StartPosition, ShouldEqual, 1)
				So(out.Rows[0].FinishPosition, ShouldEqual, 1)
				So(out.Rows[1].Name, ShouldEqual, "B")
				So(out.Rows[1].StartPosition, ShouldEqual, 2)
				So(out.Rows[1].FinishPosition, ShouldEqual, 2)
				So(out.Condition, ShouldBeNil)
			})
		})
	})
}

func TestEngine_Environment(t *testing.T) {
	Convey("Given a wet forecast for one location", t, func() {
		reg, hist := twoDrivers()
		w := weather.NewResolver([]model.EnvironmentalCondition{
			{LocationKey: "Melbourne", ConditionLabel: "Light Rain", TempMin: 11, TempMax: 12},
		})
		ctx := context.Background()

		Convey("When the environment capability is on", func() {
			e := simulation.New(reg, hist, simulation.WithWeather(w), simulation.WithVariabilityRange(1, 1))
			wet, err := e.Simulate(ctx, event, "Melbourne")
			So(err, ShouldBeNil)
			dry, err := e.Simulate(ctx, event, "Unknown Circuit")
			So(err, ShouldBeNil)

			Convey("Then scores are scaled by the influence factor", func() {
				So(scoreOf(wet, idA).Start, ShouldAlmostEqual, 0.75, 1e-9)
				So(scoreOf(dry, idA).Start, ShouldAlmostEqual, 0.5, 1e-9)
			})

			Convey("And the outcome reports the condition", func() {
				out, err := e.Run(ctx, event, "Melbourne")
				So(err, ShouldBeNil)
				So(out.Condition, ShouldNotBeNil)
				So(out.Condition.InfluenceFactor, ShouldEqual, 1.5)
			})
		})

		Convey("When the environment capability is off", func() {
			e := simulation.New(reg, hist,
				simulation.WithWeather(w),
				simulation.WithEnvironment(false),
				simulation.WithVariabilityRange(1, 1),
			)
			scores, err := e.Simulate(ctx, event, "Melbourne")

			Convey("Then weather is ignored", func() {
				So(err, ShouldBeNil)
				So(e.UsesEnvironment(), ShouldBeFalse)
				So(scoreOf(scores, idA).Start, ShouldAlmostEqual, 0.5, 1e-9)
			})
		})
	})
}

func TestEngine_Ratings(t *testing.T) {
	Convey("Given ratings outside 0..100", t, func() {
		reg, err := registry.New([]model.Participant{
			{ID: 1, Name: "over", SkillRating: 130},
			{ID: 2, Name: "under", SkillRating: -20},
		})
		So(err, ShouldBeNil)
		hist := history.New(map[model.ParticipantID]model.HistoricalRecord{
			1: {AvgStartPosition: 3, AvgFinishPosition: 3},
			2: {AvgStartPosition: 3, AvgFinishPosition: 3},
		})
		e := simulation.New(reg, hist, simulation.WithVariabilityRange(1, 1))

		scores, err := e.Simulate(context.Background(), event, "")

		Convey("Then they are clamped before use", func() {
			So(err, ShouldBeNil)
			So(scoreOf(scores, 1).Start, ShouldEqual, 0)
			So(scoreOf(scores, 2).Start, ShouldAlmostEqual, 3.0, 1e-9)
		})
	})
}

func TestEngine_Randomness(t *testing.T) {
	Convey("Given a twenty-car field", t, func() {
		reg, hist := fieldOf(20)
		ctx := context.Background()

		Convey("When the engine is seeded", func() {
			e := simulation.New(reg, hist, simulation.WithSeed(42))
			first, err := e.Run(ctx, event, "")
			So(err, ShouldBeNil)
			second, err := e.Run(ctx, event, "")
			So(err, ShouldBeNil)

			Convey("Then every call reproduces the same outcome", func() {
				So(second.Rows, ShouldResemble, first.Rows)
				So(first.Seed, ShouldEqual, 42)
			})
		})

		Convey("When an explicit generator is supplied", func() {
			e := simulation.New(reg, hist)
			a, err := e.SimulateWithRand(ctx, rand.New(rand.NewSource(5)), event, "")
			So(err, ShouldBeNil)
			b, err := e.SimulateWithRand(ctx, rand.New(rand.NewSource(5)), event, "")
			So(err, ShouldBeNil)

			Convey("Then the same generator state gives the same scores", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When simulating with the default range", func() {
			e := simulation.New(reg, hist)
			scores, err := e.SimulateWithRand(ctx, rand.New(rand.NewSource(9)), event, "")
			So(err, ShouldBeNil)

			Convey("Then one variability draw is shared by start and finish, within bounds", func() {
				for _, s := range scores {
					p, err := reg.Lookup(s.ID)
					So(err, ShouldBeNil)
					rec, err := hist.Get(s.ID)
					So(err, ShouldBeNil)
					skill := float64(100-p.SkillRating) / 100

					vStart := s.Start / (rec.AvgStartPosition * skill)
					vFinish := s.Finish / (rec.AvgFinishPosition * skill)
					So(vStart, ShouldAlmostEqual, vFinish, 1e-9)
					So(vStart, ShouldBeBetweenOrEqual, 0.8, 1.2)
				}
			})
		})

		Convey("When unseeded runs execute concurrently", func() {
			e := simulation.New(reg, hist)
			var wg sync.WaitGroup
			errs := make(chan error, 16)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := e.Run(ctx, event, ""); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)

			Convey("Then none of them fail", func() {
				So(len(errs), ShouldEqual, 0)
			})
		})

		Convey("When positions are resolved", func() {
			e := simulation.New(reg, hist, simulation.WithSeed(3))
			out, err := e.Run(ctx, event, "")
			So(err, ShouldBeNil)

			Convey("Then both columns are dense permutations of 1..N", func() {
				starts := map[int]bool{}
				for i, r := range out.Rows {
					So(r.FinishPosition, ShouldEqual, i+1)
					So(r.StartPosition, ShouldBeBetweenOrEqual, 1, 20)
					So(starts[r.StartPosition], ShouldBeFalse)
					starts[r.StartPosition] = true
				}
				So(len(starts), ShouldEqual, 20)
			})
		})
	})
}

func TestEngine_Errors(t *testing.T) {
	Convey("Given a participant without history", t, func() {
		reg, err := registry.New([]model.Participant{{ID: 1, Name: "A", SkillRating: 80}})
		So(err, ShouldBeNil)
		e := simulation.New(reg, history.New(nil))

		_, err = e.Run(context.Background(), event, "")

		Convey("Then the run aborts with ErrNotFound", func() {
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given an empty registry", t, func() {
		reg, err := registry.New(nil)
		So(err, ShouldBeNil)
		e := simulation.New(reg, history.New(nil))

		_, err = e.Run(context.Background(), event, "")

		Convey("Then ErrNoEntrants is returned", func() {
			So(errors.Is(err, simulation.ErrNoEntrants), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		reg, hist := twoDrivers()
		e := simulation.New(reg, hist)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := e.Run(ctx, event, "")

		Convey("Then the context error is returned", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given the qualifying grid capability without a resolver", t, func() {
		reg, hist := twoDrivers()
		e := simulation.New(reg, hist, simulation.WithQualifyingGrid(true))

		_, err := e.Run(context.Background(), event, "")

		Convey("Then ErrNoGrid is returned", func() {
			So(errors.Is(err, simulation.ErrNoGrid), ShouldBeTrue)
		})
	})
}

func TestEngine_Lookups(t *testing.T) {
	Convey("Given an engine over a counting registry", t, func() {
		reg, hist := fieldOf(5)
		counting := &countingRegistry{Registry: reg}
		e := simulation.New(counting, hist, simulation.WithSeed(3))

		Convey("When raw scores are simulated", func() {
			raw, err := e.Simulate(context.Background(), event, "")

			Convey("Then each score carries the participant name", func() {
				So(err, ShouldBeNil)
				for _, r := range raw {
					So(r.Name, ShouldEqual, "driver")
				}
			})
		})

		Convey("When a run is resolved", func() {
			out, err := e.RunSeeded(context.Background(), 3, event, "")

			Convey("Then every participant is looked up exactly once", func() {
				So(err, ShouldBeNil)
				So(len(out.Rows), ShouldEqual, 5)
				So(counting.lookups, ShouldEqual, 5)
				for _, row := range out.Rows {
					So(row.Name, ShouldEqual, "driver")
				}
			})
		})
	})
}

func TestEngine_QualifyingGrid(t *testing.T) {
	Convey("Given qualifying that puts B on pole", t, func() {
		reg, hist := twoDrivers()
		g := grid.NewResolver(reg, []model.QualifyingResult{
			{EventID: event, ParticipantID: idB, Position: 1},
		})
		e := simulation.New(reg, hist,
			simulation.WithGrid(g),
			simulation.WithQualifyingGrid(true),
			simulation.WithVariabilityRange(1, 1),
		)

		out, err := e.Run(context.Background(), event, "")

		Convey("Then start positions follow qualifying while finish follows scores", func() {
			So(err, ShouldBeNil)
			So(e.UsesQualifyingGrid(), ShouldBeTrue)
			So(out.Rows[0].ParticipantID, ShouldEqual, idA)
			So(out.Rows[0].StartPosition, ShouldEqual, 2)
			So(out.Rows[0].FinishPosition, ShouldEqual, 1)
			So(out.Rows[1].StartPosition, ShouldEqual, 1)
		})

		Convey("And inconsistent qualifying aborts the run", func() {
			bad := grid.NewResolver(reg, []model.QualifyingResult{
				{EventID: event, ParticipantID: idA, Position: 5},
			})
			e := simulation.New(reg, hist, simulation.WithGrid(bad), simulation.WithQualifyingGrid(true))
			_, err := e.Run(context.Background(), event, "")
			So(errors.Is(err, model.ErrInconsistentGrid), ShouldBeTrue)
		})
	})
}

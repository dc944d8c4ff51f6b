package grid_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/pitwall/internal/domain/grid"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/registry"
	. "github.com/smartystreets/goconvey/convey"
)

const event model.EventID = 1098

func newRegistry(ids ...model.ParticipantID) *registry.Registry {
	ps := make([]model.Participant, 0, len(ids))
	for _, id := range ids {
		ps = append(ps, model.Participant{ID: id, Name: "p", SkillRating: 80})
	}
	r, err := registry.New(ps)
	if err != nil {
		panic(err)
	}
	return r
}

func isPermutation(g map[model.ParticipantID]int, n int) bool {
	if len(g) != n {
		return false
	}
	seen := make(map[int]bool, n)
	for _, pos := range g {
		if pos < 1 || pos > n || seen[pos] {
			return false
		}
		seen[pos] = true
	}
	return true
}

func TestResolveGrid(t *testing.T) {
	Convey("Given three participants X<Y<Z and qualifying only for X", t, func() {
		const x, y, z model.ParticipantID = 10, 20, 30
		reg := newRegistry(x, y, z)
		r := grid.NewResolver(reg, []model.QualifyingResult{
			{EventID: event, ParticipantID: x, Position: 2},
		})

		g, err := r.ResolveGrid(event, []model.ParticipantID{z, x, y})

		Convey("Then X keeps 2 and Y, Z take 1 and 3 in id order", func() {
			So(err, ShouldBeNil)
			So(g[x], ShouldEqual, 2)
			So(g[y], ShouldEqual, 1)
			So(g[z], ShouldEqual, 3)
			So(r.HasQualifying(event), ShouldBeTrue)
		})
	})

	Convey("Given no qualifying data for the event", t, func() {
		reg := newRegistry(5, 3, 9)
		r := grid.NewResolver(reg, nil)

		g, err := r.ResolveGrid(event, []model.ParticipantID{9, 5, 3})

		Convey("Then the grid follows ascending id order", func() {
			So(err, ShouldBeNil)
			So(g, ShouldResemble, map[model.ParticipantID]int{3: 1, 5: 2, 9: 3})
			So(r.HasQualifying(event), ShouldBeFalse)
		})
	})

	Convey("Given duplicate position values", t, func() {
		reg := newRegistry(1, 2, 3)
		r := grid.NewResolver(reg, []model.QualifyingResult{
			{EventID: event, ParticipantID: 2, Position: 1},
			{EventID: event, ParticipantID: 3, Position: 1},
		})

		g, err := r.ResolveGrid(event, []model.ParticipantID{1, 2, 3})

		Convey("Then the first occurrence wins and the other is backfilled", func() {
			So(err, ShouldBeNil)
			So(g[2], ShouldEqual, 1)
			So(g[1], ShouldEqual, 2)
			So(g[3], ShouldEqual, 3)
		})
	})

	Convey("Given a participant recorded twice", t, func() {
		reg := newRegistry(1, 2)
		r := grid.NewResolver(reg, []model.QualifyingResult{
			{EventID: event, ParticipantID: 2, Position: 2},
			{EventID: event, ParticipantID: 2, Position: 1},
		})

		g, err := r.ResolveGrid(event, []model.ParticipantID{1, 2})

		Convey("Then only the first position is used", func() {
			So(err, ShouldBeNil)
			So(g[2], ShouldEqual, 2)
			So(g[1], ShouldEqual, 1)
		})
	})

	Convey("Given more distinct recorded positions than participants", t, func() {
		reg := newRegistry(1, 2)
		r := grid.NewResolver(reg, []model.QualifyingResult{
			{EventID: event, ParticipantID: 1, Position: 1},
			{EventID: event, ParticipantID: 2, Position: 2},
			{EventID: event, ParticipantID: 1, Position: 3},
		})

		_, err := r.ResolveGrid(event, []model.ParticipantID{1, 2})

		Convey("Then ErrInconsistentGrid is returned", func() {
			So(errors.Is(err, model.ErrInconsistentGrid), ShouldBeTrue)
		})
	})

	Convey("Given a recorded position beyond the field size", t, func() {
		reg := newRegistry(1, 2)
		r := grid.NewResolver(reg, []model.QualifyingResult{
			{EventID: event, ParticipantID: 1, Position: 7},
		})

		_, err := r.ResolveGrid(event, []model.ParticipantID{1, 2})

		Convey("Then ErrInconsistentGrid is returned", func() {
			So(errors.Is(err, model.ErrInconsistentGrid), ShouldBeTrue)
		})
	})

	Convey("Given qualifying rows naming an unregistered participant", t, func() {
		reg := newRegistry(1, 2)
		r := grid.NewResolver(reg, []model.QualifyingResult{
			{EventID: event, ParticipantID: 77, Position: 1},
		})

		_, err := r.ResolveGrid(event, []model.ParticipantID{1, 2})

		Convey("Then ErrNotFound is returned", func() {
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given an entrant listed twice", t, func() {
		reg := newRegistry(1, 2)
		r := grid.NewResolver(reg, nil)

		_, err := r.ResolveGrid(event, []model.ParticipantID{1, 1})

		Convey("Then ErrMalformedInput is returned", func() {
			So(errors.Is(err, model.ErrMalformedInput), ShouldBeTrue)
		})
	})

	Convey("Given random partial qualifying data", t, func() {
		rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic test data

		Convey("Then every resolved grid is a permutation of 1..N", func() {
			for trial := 0; trial < 200; trial++ {
				n := 1 + rng.Intn(20)
				ids := make([]model.ParticipantID, n)
				for i := range ids {
					ids[i] = model.ParticipantID(100 + i)
				}
				var rows []model.QualifyingResult
				for _, id := range ids {
					if rng.Intn(2) == 0 {
						rows = append(rows, model.QualifyingResult{EventID: event, ParticipantID: id, Position: 1 + rng.Intn(n)})
					}
				}
				r := grid.NewResolver(newRegistry(ids...), rows)
				rng.Shuffle(n, func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

				g, err := r.ResolveGrid(event, ids)
				So(err, ShouldBeNil)
				So(isPermutation(g, n), ShouldBeTrue)
			}
		})
	})
}

package weather_test

import (
	"testing"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/weather"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInfluenceFactor(t *testing.T) {
	Convey("Given condition labels", t, func() {
		cases := []struct {
			label string
			want  float64
		}{
			{"Light Rain", 1.5},
			{"SHOWERS", 1.5},
			{"Mostly Cloudy", 1.3},
			{"unstable", 1.3},
			{"Clear Sky", 1.0},
			{"fair weather", 1.0},
			{"Haze", 1.05},
			{"Thunderstorm", 1.05},
			{"", 1.05},
		}

		for _, tc := range cases {
			So(weather.InfluenceFactor(tc.label), ShouldEqual, tc.want)
		}

		Convey("When a label mixes wet and clear wording", func() {
			Convey("Then the wet class wins", func() {
				So(weather.InfluenceFactor("clear then rain"), ShouldEqual, 1.5)
				So(weather.InfluenceFactor("cloudy, clearing later"), ShouldEqual, 1.3)
			})
		})
	})
}

func TestResolver(t *testing.T) {
	Convey("Given a resolver with one forecast", t, func() {
		r := weather.NewResolver([]model.EnvironmentalCondition{
			{LocationKey: "Australia (Melbourne)", ConditionLabel: "Showers", TempMin: 11, TempMax: 12},
		})

		Convey("When resolving the known location", func() {
			c := r.Resolve("Australia (Melbourne)")

			Convey("Then the factor is derived from the label", func() {
				So(c.ConditionLabel, ShouldEqual, "Showers")
				So(c.TempMin, ShouldEqual, 11)
				So(c.TempMax, ShouldEqual, 12)
				So(c.InfluenceFactor, ShouldEqual, 1.5)
			})
		})

		Convey("When resolving an unknown location", func() {
			c := r.Resolve("Nowhere")

			Convey("Then the neutral default is returned", func() {
				So(c.LocationKey, ShouldEqual, "Nowhere")
				So(c.ConditionLabel, ShouldEqual, "clear")
				So(c.InfluenceFactor, ShouldEqual, 1.0)
				So(r.Len(), ShouldEqual, 1)
			})
		})
	})
}

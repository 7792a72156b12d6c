package scoreboard_test

import (
	"testing"

	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/reveal"
	"github.com/okian/brecher/internal/domain/rules"
	"github.com/okian/brecher/internal/domain/scoreboard"
	"github.com/okian/brecher/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var roster = model.Roster{"David", "Cedric", "Müller"}

// gymWeek gives each person the number of one-hour gym sessions listed.
func gymWeek(sessions map[model.Person]int) model.WeekEntries {
	week := model.WeekEntries{}
	for p, n := range sessions {
		for _, day := range model.Days[:n] {
			week.Set(p, day, rules.Gym, "1")
		}
	}
	return week
}

func TestRank(t *testing.T) {
	Convey("Given tied scores", t, func() {
		entries := scoreboard.Rank(roster, map[model.Person]float64{"David": 4, "Cedric": 6, "Müller": 4})

		Convey("Then ties share a rank and keep roster order", func() {
			So(entries, ShouldResemble, []types.Entry{
				{Rank: 1, Person: "Cedric", Score: 6},
				{Rank: 2, Person: "David", Score: 4},
				{Rank: 2, Person: "Müller", Score: 4},
			})
		})
	})

	Convey("Given winners", t, func() {
		Convey("When the best score is positive", func() {
			w, ok := scoreboard.Winner(roster, map[model.Person]float64{"David": 3, "Cedric": 3})
			So(ok, ShouldBeTrue)
			So(w, ShouldEqual, model.Person("David"))
		})

		Convey("When nobody scored", func() {
			_, ok := scoreboard.Winner(roster, map[model.Person]float64{"David": 0, "Cedric": -2})
			So(ok, ShouldBeFalse)
		})
	})
}

func TestBuilder(t *testing.T) {
	Convey("Given a season of three weeks where week 41 is still running", t, func() {
		b := scoreboard.NewBuilder(roster, nil, scoreboard.WithSeason(reveal.Season{StartWeek: 39}))
		h := scoreboard.History{
			Weeks: []model.WeekID{39, 40, 41},
			Entries: map[model.WeekID]model.WeekEntries{
				39: gymWeek(map[model.Person]int{"David": 2, "Cedric": 1}),
				40: gymWeek(map[model.Person]int{"Cedric": 3}),
				41: gymWeek(map[model.Person]int{"Müller": 7}),
			},
		}
		official := model.WeekID(40)

		Convey("When building the weekly scoreboard", func() {
			entries := b.Weekly(h.Entries[39])
			So(entries[0], ShouldResemble, types.Entry{Rank: 1, Person: "David", Score: 4})
			So(entries[2], ShouldResemble, types.Entry{Rank: 3, Person: "Müller", Score: 0})
		})

		Convey("When building the monthly scoreboard", func() {
			entries := b.Monthly(h, official)

			Convey("Then the running week is left out", func() {
				So(entries[0], ShouldResemble, types.Entry{Rank: 1, Person: "Cedric", Score: 8})
				So(entries[1], ShouldResemble, types.Entry{Rank: 2, Person: "David", Score: 4})
				So(entries[2], ShouldResemble, types.Entry{Rank: 3, Person: "Müller", Score: 0})
			})
		})

		Convey("When building the overview", func() {
			rows := b.Overview(h, official)

			Convey("Then revealed weeks carry scores and winners", func() {
				So(rows, ShouldHaveLength, 3)
				So(rows[0].Status, ShouldEqual, scoreboard.StatusFinal)
				So(*rows[0].Winner, ShouldEqual, model.Person("David"))
				So(rows[1].Scores["Cedric"], ShouldEqual, 6)
			})

			Convey("And the running week is a placeholder", func() {
				So(rows[2].Label, ShouldEqual, "KW41")
				So(rows[2].Status, ShouldEqual, scoreboard.StatusInProgress)
				So(rows[2].Scores, ShouldBeNil)
				So(rows[2].Winner, ShouldBeNil)
			})
		})

		Convey("When building category leaders for the running week", func() {
			leaders := b.CategoryLeaders(41, h.Entries[41], false)

			Convey("Then the leader is named but the numbers are masked", func() {
				So(leaders, ShouldHaveLength, 6)
				So(leaders[0].Category, ShouldEqual, rules.Gym)
				So(*leaders[0].Leader, ShouldEqual, model.Person("Müller"))
				So(leaders[0].Score, ShouldBeNil)
				So(leaders[0].Scores, ShouldBeNil)
				So(leaders[0].Masked, ShouldBeTrue)
			})

			Convey("And categories without points have no leader", func() {
				So(leaders[1].Leader, ShouldBeNil)
			})
		})

		Convey("When building category leaders for a revealed week", func() {
			leaders := b.CategoryLeaders(40, h.Entries[40], true)
			So(*leaders[0].Score, ShouldEqual, 6)
			So(leaders[0].Scores["David"], ShouldEqual, 0)
		})

		Convey("When building user statistics", func() {
			stats := b.UserStatistics("Cedric", h, official)
			So(stats.Wins, ShouldEqual, 1)
			So(stats.TotalPoints, ShouldEqual, 8)
			So(stats.CompletedWeeks, ShouldEqual, 0)
		})

		Convey("When building chart data", func() {
			series := b.ChartData(h, official)

			Convey("Then only revealed weeks are plotted", func() {
				So(series[0].Weeks, ShouldResemble, []string{"KW39", "KW40"})
				So(series[0].Points["Cedric"], ShouldResemble, []float64{2, 6})
				So(series[0].Points["Müller"], ShouldResemble, []float64{0, 0})
			})
		})
	})

	Convey("Given a fully filled week", t, func() {
		b := scoreboard.NewBuilder(roster, nil)
		week := model.WeekEntries{}
		for _, day := range model.Days {
			for _, category := range rules.Current().Categories() {
				week.Set("David", day, category, "0")
			}
		}
		h := scoreboard.History{Weeks: []model.WeekID{10}, Entries: map[model.WeekID]model.WeekEntries{10: week}}

		Convey("Then it counts as completed even before it is revealed", func() {
			stats := b.UserStatistics("David", h, 9)
			So(stats.CompletedWeeks, ShouldEqual, 1)
			So(stats.Wins, ShouldEqual, 0)
		})
	})
}

package scoring_test

import (
	"testing"

	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/rules"
	scoring "github.com/okian/brecher/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScorer(t *testing.T) {
	Convey("Given a scorer with the current rules", t, func() {
		scorer := scoring.NewScorer()
		week := model.PersonWeek{}

		Convey("When the week is empty", func() {
			ws := scorer.Week(week)

			Convey("Then every total is zero and every cell white", func() {
				So(ws.Weekly, ShouldEqual, 0)
				So(ws.Bonus, ShouldEqual, 0)
				for _, day := range model.Days {
					So(ws.Daily[day], ShouldEqual, 0)
					So(ws.Cells[day][rules.Fehler].Color, ShouldEqual, model.White)
				}
			})
		})

		Convey("When a single day is filled", func() {
			week.Set(model.Monday, rules.Gym, "1")
			week.Set(model.Monday, rules.Sleep, "8")
			week.Set(model.Monday, rules.Steps, "12345")

			Convey("Then the daily total is the rounded sum of the cells", func() {
				So(scorer.DailyTotal(week, model.Monday), ShouldEqual, 8.47)
				So(scorer.WeeklyTotal(week), ShouldEqual, 8.47)
			})
		})

		Convey("When errors spread over several days", func() {
			week.Set(model.Tuesday, rules.Fehler, "2")
			week.Set(model.Thursday, rules.Fehler, "1")

			Convey("Then the week context decides each day", func() {
				So(scorer.Cell(week, model.Tuesday, rules.Fehler).Points, ShouldEqual, -2)
				So(scorer.DailyTotal(week, model.Thursday), ShouldEqual, -2)
				So(scorer.CategoryTotal(week, rules.Fehler), ShouldEqual, -4)
				So(scorer.WeeklyTotal(week), ShouldEqual, -4)
			})

			Convey("And the context cells are exposed", func() {
				cells, ok := scorer.ContextCells(week, rules.Fehler)
				So(ok, ShouldBeTrue)
				So(cells, ShouldHaveLength, 7)
				_, ok = scorer.ContextCells(week, rules.Gym)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the week earns both bonuses", func() {
			for _, day := range model.Days {
				week.Set(day, rules.Fehler, "0")
			}
			for _, day := range model.Days[:5] {
				week.Set(day, rules.Gym, "1")
			}
			ws := scorer.Week(week)

			Convey("Then the bonus is added on top of the days", func() {
				So(ws.Bonuses["consistency"], ShouldEqual, 2)
				So(ws.Bonuses["clean_week"], ShouldEqual, 2)
				So(ws.Bonus, ShouldEqual, 4)
				So(ws.Weekly, ShouldEqual, 14)
			})
		})

		Convey("When the same week is scored twice", func() {
			week.Set(model.Friday, rules.Work, "233")
			week.Set(model.Friday, rules.Food, "2")
			So(scorer.Week(week), ShouldResemble, scorer.Week(week))
		})
	})

	Convey("Given a scorer with the legacy rules", t, func() {
		scorer := scoring.NewScorer(scoring.WithRuleSet(rules.Legacy()))
		week := model.PersonWeek{}
		week.Set(model.Monday, rules.Fehler, "1")
		week.Set(model.Tuesday, rules.Fehler, "1")

		Convey("Then every error costs two points", func() {
			So(scorer.Rules().Version(), ShouldEqual, rules.VersionLegacy)
			So(scorer.WeeklyTotal(week), ShouldEqual, -4)
		})
	})
}

func TestRound2(t *testing.T) {
	Convey("Round2 rounds to two decimals", t, func() {
		So(scoring.Round2(1.005), ShouldAlmostEqual, 1.0, 0.011)
		So(scoring.Round2(2.4691), ShouldEqual, 2.47)
		So(scoring.Round2(-3.333), ShouldEqual, -3.33)
	})
}

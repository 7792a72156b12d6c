package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/brecher/internal/adapters/repository"
	service "github.com/okian/brecher/internal/app"
	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/reveal"
	"github.com/okian/brecher/internal/domain/rules"
	"github.com/okian/brecher/internal/domain/scoreboard"
	"github.com/okian/brecher/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// wednesdayOfWeek41 makes week 40 the official week.
var wednesdayOfWeek41 = time.Date(2025, time.October, 8, 12, 0, 0, 0, time.UTC)

func newEngine(store repository.Store) *service.Engine {
	return service.New(
		service.WithStore(store),
		service.WithRevealOptions(
			reveal.WithLocation(time.UTC),
			reveal.WithClock(func() time.Time { return wednesdayOfWeek41 }),
		),
	)
}

func write(ctx context.Context, e *service.Engine, week model.WeekID, person model.Person, day model.Day, category model.Category, value string) (service.WriteResult, error) {
	return e.WriteCell(ctx, service.CellWrite{Week: week, Person: person, Day: day, Category: category, Value: value})
}

func TestEngine_Lifecycle(t *testing.T) {
	Convey("Given a new engine", t, func() {
		e := service.New()

		Convey("When it is used before Start", func() {
			_, err := e.GetWeeklyScoreboard(context.Background(), 39)

			Convey("Then it refuses", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When started and stopped", func() {
			So(e.Start(context.Background()), ShouldBeNil)
			So(e.GetStats()["started"], ShouldEqual, true)
			So(e.GetStats()["rules"], ShouldEqual, rules.VersionCurrent)

			e.Stop()
			So(e.GetStats()["started"], ShouldEqual, false)
		})
	})
}

func TestEngine_WriteCell(t *testing.T) {
	Convey("Given a started engine with the season initialized", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		e := newEngine(store)
		So(e.Start(ctx), ShouldBeNil)
		defer e.Stop()

		created, err := e.InitializeWeeks(ctx)
		So(err, ShouldBeNil)
		So(created, ShouldEqual, 8*3*7*13)

		Convey("When the season is initialized again", func() {
			created, err := e.InitializeWeeks(ctx)

			Convey("Then nothing is created", func() {
				So(err, ShouldBeNil)
				So(created, ShouldEqual, 0)
			})
		})

		Convey("When writing a gym session", func() {
			res, err := write(ctx, e, 40, "David", model.Monday, rules.Gym, " 1 ")

			Convey("Then the cell and totals are returned", func() {
				So(err, ShouldBeNil)
				So(res.Points, ShouldEqual, 2)
				So(res.Color, ShouldEqual, model.Green)
				So(res.DailyTotal, ShouldEqual, 2)
				So(res.WeeklyTotal, ShouldEqual, 2)
				So(res.Warning, ShouldBeEmpty)
				So(res.Scoreboard[0].Person, ShouldEqual, model.Person("David"))
				So(res.Errors, ShouldBeNil)
			})

			Convey("And the value is stored trimmed", func() {
				cell, err := e.ComputeCellDisplay(ctx, 40, "David", model.Monday, rules.Gym)
				So(err, ShouldBeNil)
				So(cell, ShouldResemble, service.CellDisplay{Value: "1", Points: 2, Color: model.Green})
			})
		})

		Convey("When the same value is written twice", func() {
			first, err := write(ctx, e, 40, "Cedric", model.Friday, rules.Sleep, "8")
			So(err, ShouldBeNil)
			second, err := write(ctx, e, 40, "Cedric", model.Friday, rules.Sleep, "8")
			So(err, ShouldBeNil)

			Convey("Then both results are identical", func() {
				So(second, ShouldResemble, first)
			})
		})

		Convey("When errors are logged on Tuesday and Thursday", func() {
			_, err := write(ctx, e, 40, "Müller", model.Tuesday, rules.Fehler, "2")
			So(err, ShouldBeNil)
			res, err := write(ctx, e, 40, "Müller", model.Thursday, rules.Fehler, "1")
			So(err, ShouldBeNil)

			Convey("Then the whole week is rescored", func() {
				So(res.Points, ShouldEqual, -2)
				So(res.WeeklyTotal, ShouldEqual, -4)
				So(res.Errors[model.Tuesday], ShouldResemble, rules.Cell{Points: -2, Color: model.Red})
				So(res.Errors[model.Monday].Color, ShouldEqual, model.White)
			})
		})

		Convey("When a person earns the consistency bonus", func() {
			var res service.WriteResult
			for _, day := range model.Days[:5] {
				res, err = write(ctx, e, 40, "Cedric", day, rules.Gym, "1")
				So(err, ShouldBeNil)
			}

			Convey("Then the bonus is reported per person", func() {
				So(res.Bonus, ShouldEqual, 2)
				So(res.WeeklyTotal, ShouldEqual, 12)
				So(res.Bonuses["Cedric"], ShouldEqual, 2)
				So(res.Bonuses["David"], ShouldEqual, 0)
			})
		})

		Convey("When a second rest day is written", func() {
			_, err := write(ctx, e, 40, "David", model.Monday, rules.Gym, "R")
			So(err, ShouldBeNil)
			before, err := store.Stats(ctx)
			So(err, ShouldBeNil)

			_, err = write(ctx, e, 40, "David", model.Wednesday, rules.Gym, "R")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, rules.ErrValidationRejected), ShouldBeTrue)
				var verr *rules.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Reason, ShouldNotBeEmpty)
			})

			Convey("And the store is unchanged", func() {
				cell, err := e.ComputeCellDisplay(ctx, 40, "David", model.Wednesday, rules.Gym)
				So(err, ShouldBeNil)
				So(cell.Value, ShouldEqual, "")
				after, err := store.Stats(ctx)
				So(err, ShouldBeNil)
				So(after.LastUpdated.Equal(before.LastUpdated), ShouldBeTrue)
			})

			Convey("And another person may still rest that day", func() {
				_, err := write(ctx, e, 40, "Cedric", model.Wednesday, rules.Gym, "R")
				So(err, ShouldBeNil)
			})
		})

		Convey("When parameters are unknown", func() {
			cases := []service.CellWrite{
				{Week: 40, Person: "Eve", Day: model.Monday, Category: rules.Gym},
				{Week: 40, Person: "David", Day: "Xx", Category: rules.Gym},
				{Week: 40, Person: "David", Day: model.Monday, Category: "Study"},
				{Week: 60, Person: "David", Day: model.Monday, Category: rules.Gym},
				{Week: 2, Person: "David", Day: model.Monday, Category: rules.Gym},
			}

			Convey("Then every write is refused as invalid", func() {
				for _, c := range cases {
					_, err := e.WriteCell(ctx, c)
					So(errors.Is(err, service.ErrInvalidParameter), ShouldBeTrue)
				}
				weeks, err := e.ListWeeks(ctx)
				So(err, ShouldBeNil)
				So(weeks, ShouldHaveLength, 8)
			})
		})
	})
}

// flakyStore fails reads once armed.
type flakyStore struct {
	repository.Store
	failReads bool
	failSets  bool
}

var errBoom = errors.New("boom")

func (f *flakyStore) Set(ctx context.Context, key model.Key, value string) error {
	if f.failSets {
		return errBoom
	}
	if err := f.Store.Set(ctx, key, value); err != nil {
		return err
	}
	f.failReads = true
	return nil
}

func (f *flakyStore) ListWeekEntries(ctx context.Context, week model.WeekID) (model.WeekEntries, error) {
	if f.failReads {
		return nil, errBoom
	}
	return f.Store.ListWeekEntries(ctx, week)
}

// rivalStore lands a second write right after the first Set it sees, as a
// concurrent writer would.
type rivalStore struct {
	repository.Store
	rival model.Key
	value string
	fired bool
}

func (r *rivalStore) Set(ctx context.Context, key model.Key, value string) error {
	if err := r.Store.Set(ctx, key, value); err != nil {
		return err
	}
	if r.fired {
		return nil
	}
	r.fired = true
	return r.Store.Set(ctx, r.rival, r.value)
}

func TestEngine_ConcurrentRestDays(t *testing.T) {
	Convey("Given a rest day written concurrently on another day of the same week", t, func() {
		ctx := context.Background()
		backing := repository.NewMemoryStore()
		e := newEngine(backing)
		So(e.Start(ctx), ShouldBeNil)
		defer e.Stop()
		_, err := e.CreateWeek(ctx, 40)
		So(err, ShouldBeNil)
		_, err = write(ctx, e, 40, "David", model.Monday, rules.Gym, "1")
		So(err, ShouldBeNil)

		rival := model.Key{Week: 40, Person: "David", Day: model.Tuesday, Category: rules.Gym}
		racing := newEngine(&rivalStore{Store: backing, rival: rival, value: "R"})
		So(racing.Start(ctx), ShouldBeNil)
		defer racing.Stop()

		Convey("When both pass validation and land in the store", func() {
			_, err := write(ctx, racing, 40, "David", model.Monday, rules.Gym, "R")

			Convey("Then the later check undoes this write", func() {
				So(errors.Is(err, rules.ErrValidationRejected), ShouldBeTrue)

				monday, err := backing.Get(ctx, model.Key{Week: 40, Person: "David", Day: model.Monday, Category: rules.Gym})
				So(err, ShouldBeNil)
				So(monday, ShouldEqual, "1")
				tuesday, err := backing.Get(ctx, rival)
				So(err, ShouldBeNil)
				So(tuesday, ShouldEqual, "R")
			})
		})
	})
}

func TestEngine_Failures(t *testing.T) {
	Convey("Given an engine whose store fails reads after a write", t, func() {
		ctx := context.Background()
		backing := repository.NewMemoryStore()
		flaky := &flakyStore{Store: backing}
		e := newEngine(flaky)
		So(e.Start(ctx), ShouldBeNil)
		defer e.Stop()
		_, err := e.CreateWeek(ctx, 40)
		So(err, ShouldBeNil)

		Convey("When a write succeeds but the recompute fails", func() {
			res, err := write(ctx, e, 40, "David", model.Monday, rules.Gym, "1")

			Convey("Then a degraded result is returned without an error", func() {
				So(err, ShouldBeNil)
				So(res.Warning, ShouldNotBeEmpty)
				So(res.WeeklyTotal, ShouldEqual, 0)
				So(res.Points, ShouldEqual, 0)
			})

			Convey("And the value was still written", func() {
				v, err := backing.Get(ctx, model.Key{Week: 40, Person: "David", Day: model.Monday, Category: rules.Gym})
				So(err, ShouldBeNil)
				So(v, ShouldEqual, "1")
			})
		})

		Convey("When the store refuses the write", func() {
			flaky.failSets = true
			_, err := write(ctx, e, 40, "David", model.Monday, rules.Gym, "1")

			Convey("Then the store error is surfaced", func() {
				So(errors.Is(err, errBoom), ShouldBeTrue)
			})
		})
	})
}

func TestEngine_Scoreboards(t *testing.T) {
	Convey("Given a season where week 41 is still running", t, func() {
		ctx := context.Background()
		e := newEngine(repository.NewMemoryStore())
		So(e.Start(ctx), ShouldBeNil)
		defer e.Stop()
		for _, w := range []model.WeekID{39, 40, 41} {
			_, err := e.CreateWeek(ctx, w)
			So(err, ShouldBeNil)
		}

		_, err := write(ctx, e, 39, "David", model.Monday, rules.Gym, "2")
		So(err, ShouldBeNil)
		_, err = write(ctx, e, 40, "Cedric", model.Monday, rules.Gym, "3")
		So(err, ShouldBeNil)

		monthlyBefore, err := e.GetMonthlyScoreboard(ctx)
		So(err, ShouldBeNil)

		_, err = write(ctx, e, 41, "Müller", model.Monday, rules.Gym, "5")
		So(err, ShouldBeNil)

		Convey("When reading the monthly scoreboard", func() {
			monthly, err := e.GetMonthlyScoreboard(ctx)
			So(err, ShouldBeNil)

			Convey("Then the running week contributes nothing", func() {
				So(monthly, ShouldResemble, monthlyBefore)
				So(monthly[0].Person, ShouldEqual, model.Person("Cedric"))
				So(monthly[0].Score, ShouldEqual, 6)
				So(monthly[2].Person, ShouldEqual, model.Person("Müller"))
				So(monthly[2].Score, ShouldEqual, 0)
			})
		})

		Convey("When reading the weekly scoreboard of the running week", func() {
			weekly, err := e.GetWeeklyScoreboard(ctx, 41)
			So(err, ShouldBeNil)
			So(weekly[0].Person, ShouldEqual, model.Person("Müller"))
			So(weekly[0].Score, ShouldEqual, 12)
		})

		Convey("When reading the overview", func() {
			ov, err := e.GetWeeklyOverview(ctx)
			So(err, ShouldBeNil)

			Convey("Then only revealed weeks show scores", func() {
				So(ov.OfficialWeek, ShouldEqual, model.WeekID(40))
				So(ov.ScoreboardVisible, ShouldBeTrue)
				So(ov.Weeks, ShouldHaveLength, 3)
				So(*ov.Weeks[0].Winner, ShouldEqual, model.Person("David"))
				So(ov.Weeks[2].Status, ShouldEqual, scoreboard.StatusInProgress)
				So(ov.Weeks[2].Scores, ShouldBeNil)
			})
		})

		Convey("When reading the category leaders", func() {
			leaders, err := e.GetCategoryLeaders(ctx)
			So(err, ShouldBeNil)

			Convey("Then the running week's leader is named with masked scores", func() {
				So(leaders.Week, ShouldEqual, model.WeekID(41))
				So(leaders.Revealed, ShouldBeFalse)
				So(*leaders.Categories[0].Leader, ShouldEqual, model.Person("Müller"))
				So(leaders.Categories[0].Score, ShouldBeNil)
			})
		})

		Convey("When reading user statistics", func() {
			stats, err := e.GetUserStatistics(ctx, "Müller")
			So(err, ShouldBeNil)
			So(stats.Wins, ShouldEqual, 0)
			So(stats.TotalPoints, ShouldEqual, 0)

			stats, err = e.GetUserStatistics(ctx, "Cedric")
			So(err, ShouldBeNil)
			So(stats.Wins, ShouldEqual, 1)
			So(stats.TotalPoints, ShouldEqual, 6)

			_, err = e.GetUserStatistics(ctx, "Eve")
			So(errors.Is(err, service.ErrInvalidParameter), ShouldBeTrue)
		})

		Convey("When reading chart data", func() {
			series, err := e.GetChartData(ctx)
			So(err, ShouldBeNil)
			So(series[0].Category, ShouldEqual, rules.Gym)
			So(series[0].Weeks, ShouldResemble, []string{"KW39", "KW40"})
		})

		Convey("When reading a week view", func() {
			view, err := e.GetWeekView(ctx, 40)
			So(err, ShouldBeNil)
			So(view.Label, ShouldEqual, "KW40")
			So(view.People["Cedric"].WeeklyTotal, ShouldEqual, 6)
			So(view.People["Cedric"].Days[model.Monday].Cells[rules.Gym].Color, ShouldEqual, model.Green)

			_, err = e.GetWeekView(ctx, 12)
			So(errors.Is(err, service.ErrInvalidParameter), ShouldBeTrue)
		})
	})
}

func TestEngine_Backup(t *testing.T) {
	Convey("Given an engine with data", t, func() {
		ctx := context.Background()
		src := newEngine(repository.NewMemoryStore())
		So(src.Start(ctx), ShouldBeNil)
		defer src.Stop()
		_, err := src.CreateWeek(ctx, 39)
		So(err, ShouldBeNil)
		_, err = write(ctx, src, 39, "David", model.Sunday, rules.Work, "250")
		So(err, ShouldBeNil)

		Convey("When it is exported and imported elsewhere", func() {
			backup, err := src.Export(ctx)
			So(err, ShouldBeNil)
			So(backup, ShouldContainKey, "KW39")

			dst := newEngine(repository.NewMemoryStore())
			So(dst.Start(ctx), ShouldBeNil)
			defer dst.Stop()
			n, err := dst.Import(ctx, backup)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 3*7*13)

			Convey("Then both engines agree", func() {
				a, err := src.GetWeeklyScoreboard(ctx, 39)
				So(err, ShouldBeNil)
				b, err := dst.GetWeeklyScoreboard(ctx, 39)
				So(err, ShouldBeNil)
				So(b, ShouldResemble, a)

				st, err := dst.Stats(ctx)
				So(err, ShouldBeNil)
				So(st.TotalRecords, ShouldEqual, 3*7*13)
				So(st.TotalWeeks, ShouldEqual, 1)
			})
		})

		Convey("When a backup names an unknown person", func() {
			dst := newEngine(repository.NewMemoryStore())
			So(dst.Start(ctx), ShouldBeNil)
			defer dst.Stop()
			backup := service.Backup{"KW39": model.WeekEntries{"Eve": {model.Monday: {rules.Gym: "1"}}}}
			_, err := dst.Import(ctx, backup)

			Convey("Then nothing is written", func() {
				So(errors.Is(err, service.ErrInvalidParameter), ShouldBeTrue)
				weeks, err := dst.ListWeeks(ctx)
				So(err, ShouldBeNil)
				So(weeks, ShouldBeEmpty)
			})
		})

		Convey("When a backup logs several rest days in one week", func() {
			backup := service.Backup{"KW39": model.WeekEntries{"Cedric": {
				model.Monday:    {rules.Gym: "R"},
				model.Tuesday:   {rules.Gym: "R"},
				model.Wednesday: {rules.Gym: "R"},
			}}}
			_, err := src.Import(ctx, backup)

			Convey("Then the whole backup is rejected", func() {
				var verr *rules.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Category, ShouldEqual, rules.Gym)

				view, err := src.GetWeekView(ctx, 39)
				So(err, ShouldBeNil)
				So(view.People["Cedric"].Days[model.Monday].Cells[rules.Gym].Value, ShouldEqual, "")
			})
		})

		Convey("When a backup adds a rest day to a week that already has one", func() {
			_, err := write(ctx, src, 39, "Cedric", model.Friday, rules.Gym, "R")
			So(err, ShouldBeNil)
			backup := service.Backup{"KW39": model.WeekEntries{"Cedric": {model.Monday: {rules.Gym: "R"}}}}
			_, err = src.Import(ctx, backup)

			So(errors.Is(err, rules.ErrValidationRejected), ShouldBeTrue)
		})

		Convey("When a backup moves the rest day to another day", func() {
			_, err := write(ctx, src, 39, "Cedric", model.Friday, rules.Gym, "R")
			So(err, ShouldBeNil)
			backup := service.Backup{"KW39": model.WeekEntries{"Cedric": {
				model.Monday: {rules.Gym: "R"},
				model.Friday: {rules.Gym: "1"},
			}}}
			n, err := src.Import(ctx, backup)

			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})

		Convey("When a person restores only their own entries", func() {
			own := service.Backup{"KW39": model.WeekEntries{"David": {model.Monday: {rules.Gym: "2"}}}}
			n, err := src.ImportOwn(ctx, "David", own)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			Convey("Then entries of someone else are forbidden", func() {
				other := service.Backup{"KW39": model.WeekEntries{"Müller": {model.Monday: {rules.Gym: "2"}}}}
				_, err := src.ImportOwn(ctx, "David", other)
				So(errors.Is(err, service.ErrForbidden), ShouldBeTrue)

				display, err := src.ComputeCellDisplay(ctx, 39, "Müller", model.Monday, rules.Gym)
				So(err, ShouldBeNil)
				So(display.Value, ShouldEqual, "")
			})
		})
	})
}

func TestEngine_SundayBlackout(t *testing.T) {
	Convey("Given the Sunday before the reveal hour of week 41", t, func() {
		ctx := context.Background()
		now := time.Date(2025, time.October, 12, 21, 0, 0, 0, time.UTC)
		e := service.New(
			service.WithStore(repository.NewMemoryStore()),
			service.WithRevealOptions(
				reveal.WithLocation(time.UTC),
				reveal.WithClock(func() time.Time { return now }),
			),
		)
		So(e.Start(ctx), ShouldBeNil)
		defer e.Stop()
		for _, week := range []model.WeekID{40, 41} {
			_, err := e.CreateWeek(ctx, week)
			So(err, ShouldBeNil)
		}
		_, err := write(ctx, e, 40, "Cedric", model.Monday, rules.Gym, "2")
		So(err, ShouldBeNil)

		status := e.Reveal()
		So(status.ScoreboardVisible, ShouldBeFalse)
		So(status.OfficialWeek, ShouldEqual, model.WeekID(40))

		Convey("When David writes into the running week", func() {
			res, err := write(ctx, e, 41, "David", model.Monday, rules.Gym, "3")
			So(err, ShouldBeNil)

			Convey("Then his own totals are returned but nobody is ranked", func() {
				So(res.WeeklyTotal, ShouldEqual, 6)
				So(res.Scoreboard, ShouldHaveLength, 3)
				for _, row := range res.Scoreboard {
					So(row.Hidden, ShouldBeTrue)
					So(row.Rank, ShouldEqual, 0)
					So(row.Score, ShouldEqual, 0)
				}
				So(res.Bonuses, ShouldHaveLength, 1)
				_, ok := res.Bonuses["David"]
				So(ok, ShouldBeTrue)
			})

			Convey("Then the weekly scoreboard of the running week is hidden", func() {
				weekly, err := e.GetWeeklyScoreboard(ctx, 41)
				So(err, ShouldBeNil)
				So(weekly[0].Person, ShouldEqual, model.Person("David"))
				So(weekly[0].Hidden, ShouldBeTrue)
				So(weekly[0].Score, ShouldEqual, 0)

				view, err := e.GetWeekView(ctx, 41)
				So(err, ShouldBeNil)
				So(view.Scoreboard[0].Hidden, ShouldBeTrue)
			})

			Convey("Then the official week stays ranked", func() {
				weekly, err := e.GetWeeklyScoreboard(ctx, 40)
				So(err, ShouldBeNil)
				So(weekly[0].Person, ShouldEqual, model.Person("Cedric"))
				So(weekly[0].Hidden, ShouldBeFalse)
				So(weekly[0].Score, ShouldEqual, 4)
			})

			Convey("Then the reveal hour lifts the blackout", func() {
				now = now.Add(time.Hour)

				weekly, err := e.GetWeeklyScoreboard(ctx, 41)
				So(err, ShouldBeNil)
				So(weekly[0].Person, ShouldEqual, model.Person("David"))
				So(weekly[0].Hidden, ShouldBeFalse)
				So(weekly[0].Score, ShouldEqual, 6)
			})
		})
	})
}

func TestEngine_WriteLog(t *testing.T) {
	Convey("Given debug logging to a buffer", t, func() {
		var buf bytes.Buffer
		So(logger.InitWithFormat("json", &buf), ShouldBeNil)
		So(logger.SetLevelString("debug"), ShouldBeNil)
		defer func() { _ = logger.Init() }()

		ctx := context.Background()
		e := newEngine(repository.NewMemoryStore())
		So(e.Start(ctx), ShouldBeNil)
		defer e.Stop()
		_, err := e.CreateWeek(ctx, 41)
		So(err, ShouldBeNil)

		Convey("When a cell is written", func() {
			_, err := write(ctx, e, 41, "David", model.Monday, rules.Gym, "1")
			So(err, ShouldBeNil)

			Convey("Then the recompute is logged with its totals", func() {
				So(buf.String(), ShouldContainSubstring, `"msg":"week recomputed"`)
				So(buf.String(), ShouldContainSubstring, `"points":2`)
				So(buf.String(), ShouldContainSubstring, `"weeklyTotal":2`)
				So(buf.String(), ShouldContainSubstring, `"scoresHidden":false`)
			})
		})
	})
}

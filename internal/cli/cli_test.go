package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/brecher/internal/adapters/repository"
	service "github.com/okian/brecher/internal/app"
	"github.com/okian/brecher/internal/cli"
	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/reveal"
	"github.com/okian/brecher/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var wednesdayOfWeek41 = time.Date(2025, time.October, 8, 12, 0, 0, 0, time.UTC)

func opener(store repository.Store) cli.Opener {
	return func(ctx context.Context) (*service.Engine, error) {
		e := service.New(
			service.WithStore(store),
			service.WithRevealOptions(
				reveal.WithLocation(time.UTC),
				reveal.WithClock(func() time.Time { return wednesdayOfWeek41 }),
			),
		)
		if err := e.Start(ctx); err != nil {
			return nil, err
		}
		return e, nil
	}
}

func run(open cli.Opener, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := cli.NewRootCommand(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(store repository.Store) {
	ctx := context.Background()
	e, err := opener(store)(ctx)
	So(err, ShouldBeNil)
	defer e.Stop()
	_, err = e.InitializeWeeks(ctx)
	So(err, ShouldBeNil)
	_, err = e.WriteCell(ctx, service.CellWrite{Week: 40, Person: "Cedric", Day: model.Monday, Category: "Gym", Value: "5"})
	So(err, ShouldBeNil)
}

func TestCLI_Scoreboard(t *testing.T) {
	Convey("Given a store with one scored week", t, func() {
		store := repository.NewMemoryStore()
		seed(store)

		Convey("When the weekly scoreboard is printed", func() {
			out, err := run(opener(store), "scoreboard", "--week", "40")

			Convey("Then it lists the leader and the score", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "KW40")
				So(out, ShouldContainSubstring, "Cedric")
				So(out, ShouldContainSubstring, "12.00")
				So(out, ShouldContainSubstring, "Müller")
			})
		})

		Convey("When the monthly scoreboard is printed", func() {
			out, err := run(opener(store), "scoreboard")

			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Revealed weeks up to KW40")
			So(out, ShouldContainSubstring, "12.00")
		})

		Convey("When stats are printed", func() {
			out, err := run(opener(store), "stats")

			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, repository.BackendMemory)
			So(out, ShouldContainSubstring, "KW40")
		})
	})
}

func TestCLI_Backup(t *testing.T) {
	Convey("Given a seeded store", t, func() {
		store := repository.NewMemoryStore()
		seed(store)
		file := filepath.Join(t.TempDir(), "backup.json")

		Convey("When it is exported to a file and imported elsewhere", func() {
			out, err := run(opener(store), "export", file)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Exported 8 weeks")

			restored := repository.NewMemoryStore()
			out, err = run(opener(restored), "import", file)

			Convey("Then every record arrives", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Imported 2184 records from 8 weeks")

				v, err := restored.Get(context.Background(), model.Key{Week: 40, Person: "Cedric", Day: model.Monday, Category: "Gym"})
				So(err, ShouldBeNil)
				So(v, ShouldEqual, "5")
			})
		})

		Convey("When export has no file argument", func() {
			out, err := run(opener(store), "export")

			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, `"KW40"`)
		})

		Convey("When the backup file is not JSON", func() {
			So(os.WriteFile(file, []byte("nope"), 0o600), ShouldBeNil)
			_, err := run(opener(store), "import", file)

			So(err, ShouldNotBeNil)
		})
	})
}

func TestCLI_InitWeeks(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store := repository.NewMemoryStore()

		out, err := run(opener(store), "init-weeks")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "Created 2184 cells")

		Convey("Then a second run creates nothing", func() {
			out, err := run(opener(store), "init-weeks")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Created 0 cells")
		})
	})
}

func TestCLI_OpenFailure(t *testing.T) {
	Convey("When the engine cannot be opened", t, func() {
		boom := errors.New("boom")
		_, err := run(func(context.Context) (*service.Engine, error) { return nil, boom }, "stats")

		Convey("Then the command fails with that error", func() {
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})
}

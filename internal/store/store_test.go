package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/f3rmion/aimpact/internal/predict"
	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStore(t *testing.T) {
	Convey("Given a fresh history database", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "nested", "history.db")

		s, err := Open(ctx, path)
		So(err, ShouldBeNil)
		Reset(func() { s.Close() })

		t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		tick := 0
		s.now = func() time.Time {
			tick++
			return t0.Add(time.Duration(tick) * time.Minute)
		}

		in := predict.DefaultInput()
		in.Tool = "ChatGPT"
		in.LastExamScore = 70

		Convey("When a prediction is added", func() {
			rec, err := s.Add(ctx, in, predict.Result{ScoreWithAI: 82.35, ReferenceScore: 70, Passed: true, Impact: 12.35})
			So(err, ShouldBeNil)

			Convey("Then it gets a UUID and a timestamp", func() {
				_, err := uuid.Parse(rec.ID)
				So(err, ShouldBeNil)
				So(rec.CreatedAt.Equal(t0.Add(time.Minute)), ShouldBeTrue)
			})

			Convey("Then it can be read back", func() {
				got, err := s.Get(ctx, rec.ID)
				So(err, ShouldBeNil)
				So(got.Input, ShouldResemble, in)
				So(got.Result.ScoreWithAI, ShouldEqual, 82.35)
				So(got.Result.ReferenceScore, ShouldEqual, 70.0)
				So(got.Result.Passed, ShouldBeTrue)
				So(got.Result.Impact, ShouldEqual, 12.35)
				So(got.CreatedAt.Equal(rec.CreatedAt), ShouldBeTrue)
			})
		})

		Convey("When several predictions are added", func() {
			for i := 0; i < 5; i++ {
				in.LastExamScore = float64(50 + i)
				_, err := s.Add(ctx, in, predict.Result{ScoreWithAI: float64(60 + i), Passed: true, Impact: 10})
				So(err, ShouldBeNil)
			}

			Convey("Then Recent returns the newest first", func() {
				recs, err := s.Recent(ctx, 3)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 3)
				So(recs[0].Result.ScoreWithAI, ShouldEqual, 64.0)
				So(recs[2].Result.ScoreWithAI, ShouldEqual, 62.0)
				So(recs[0].Result.ReferenceScore, ShouldEqual, 54.0)
			})

			Convey("Then a non-positive limit uses the default", func() {
				recs, err := s.Recent(ctx, 0)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 5)
			})
		})

		Convey("An unknown ID is not found", func() {
			_, err := s.Get(ctx, "missing")
			So(err, ShouldEqual, ErrNotFound)
		})

		Convey("Reopening keeps the records", func() {
			_, err := s.Add(ctx, in, predict.Result{ScoreWithAI: 41, Passed: true, Impact: 1})
			So(err, ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			s, err = Open(ctx, path)
			So(err, ShouldBeNil)
			recs, err := s.Recent(ctx, 10)
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 1)
		})
	})
}

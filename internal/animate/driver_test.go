package animate

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const score Target = "score"

func TestDriver(t *testing.T) {
	Convey("Given a driver with a fixed clock", t, func() {
		t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		d := NewDriver(WithClock(func() time.Time { return t0 }))

		Convey("When a counter starts", func() {
			cmd := d.Start(score, NewNumber(0, 82.3, 1200*time.Millisecond, WithDecimals(1)))
			id := d.runs[score].id

			Convey("Then the first frame is drawn and another is scheduled", func() {
				So(cmd, ShouldNotBeNil)
				So(d.Text(score), ShouldEqual, "0.0")
				So(d.Active(score), ShouldBeTrue)
			})

			Convey("Then frames advance along the eased curve", func() {
				next := d.Update(FrameMsg{Target: score, ID: id, At: t0.Add(600 * time.Millisecond)})
				So(next, ShouldNotBeNil)
				So(d.Text(score), ShouldEqual, "72.0")
			})

			Convey("Then the run ends on the exact target and stops scheduling", func() {
				next := d.Update(FrameMsg{Target: score, ID: id, At: t0.Add(1250 * time.Millisecond)})
				So(next, ShouldBeNil)
				So(d.Text(score), ShouldEqual, "82.3")
				v, ok := d.Value(score)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 82.3)
				So(d.Active(score), ShouldBeFalse)
				So(d.Running(), ShouldEqual, 0)
			})

			Convey("Then an out-of-order frame does not move the counter backwards", func() {
				d.Update(FrameMsg{Target: score, ID: id, At: t0.Add(900 * time.Millisecond)})
				later := d.Text(score)
				d.Update(FrameMsg{Target: score, ID: id, At: t0.Add(300 * time.Millisecond)})
				So(d.Text(score), ShouldEqual, later)
			})

			Convey("Then restarting the target cancels the first run", func() {
				d.Start(score, NewNumber(0, 10, time.Second))
				So(d.runs[score].id, ShouldNotEqual, id)

				stale := d.Update(FrameMsg{Target: score, ID: id, At: t0.Add(2 * time.Second)})
				So(stale, ShouldBeNil)
				So(d.Text(score), ShouldEqual, "0")
				So(d.Active(score), ShouldBeTrue)
			})

			Convey("Then cancelling keeps the last frame and drops later frames", func() {
				d.Update(FrameMsg{Target: score, ID: id, At: t0.Add(600 * time.Millisecond)})
				d.Cancel(score)
				So(d.Update(FrameMsg{Target: score, ID: id, At: t0.Add(time.Second)}), ShouldBeNil)
				So(d.Text(score), ShouldEqual, "72.0")
				So(d.Active(score), ShouldBeFalse)
			})
		})

		Convey("When a counter targets NaN", func() {
			cmd := d.Start(score, NewNumber(0, math.NaN(), time.Second, WithDecimals(1)))

			Convey("Then the placeholder is shown and nothing is scheduled", func() {
				So(cmd, ShouldBeNil)
				So(d.Text(score), ShouldEqual, "--")
				So(d.Active(score), ShouldBeFalse)
			})
		})

		Convey("When a run is scheduled after a delay", func() {
			cmd := d.StartAfter(score, 200*time.Millisecond, NewNumber(0, 100, time.Second))
			id := d.runs[score].id

			Convey("Then nothing is drawn until it is due", func() {
				So(cmd, ShouldNotBeNil)
				So(d.Active(score), ShouldBeTrue)
				So(d.Text(score), ShouldEqual, "")
				So(d.Update(FrameMsg{Target: score, ID: id, At: t0}), ShouldBeNil)
			})

			Convey("Then the due message starts it", func() {
				next := d.Update(startMsg{target: score, id: id})
				So(next, ShouldNotBeNil)
				So(d.Text(score), ShouldEqual, "0")
			})

			Convey("Then an immediate start supersedes it", func() {
				d.Start(score, NewNumber(5, 5, 0))
				So(d.Update(startMsg{target: score, id: id}), ShouldBeNil)
				So(d.Text(score), ShouldEqual, "5")
			})
		})

		Convey("When the driver is reset", func() {
			d.Start(score, NewNumber(0, 1, time.Second))
			d.Reset()
			So(d.Running(), ShouldEqual, 0)
			So(d.Text(score), ShouldEqual, "")
			_, ok := d.Value(score)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestPlay(t *testing.T) {
	Convey("Given a group of counters played headless", t, func() {
		nums := []Number{
			NewNumber(0, 82.3, 20*time.Millisecond, WithDecimals(1)),
			NewNumber(0, 12.3, 20*time.Millisecond, WithDecimals(2), WithPrefix("+")),
			NewNumber(0, math.NaN(), 20*time.Millisecond),
		}

		Convey("When it runs to completion", func() {
			var frames [][]string
			err := Play(context.Background(), time.Millisecond, func(frame []string) {
				frames = append(frames, append([]string(nil), frame...))
			}, nums...)

			Convey("Then the last frame holds every final text", func() {
				So(err, ShouldBeNil)
				So(len(frames), ShouldBeGreaterThan, 1)
				So(frames[len(frames)-1], ShouldResemble, []string{"82.3", "+12.30", "--"})
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			long := NewNumber(0, 1, time.Hour)
			err := Play(ctx, 50*time.Millisecond, func([]string) {}, long)

			Convey("Then Play stops with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

package results_test

import (
	"math"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/f3rmion/aimpact/internal/animate"
	"github.com/f3rmion/aimpact/internal/predict"
	"github.com/f3rmion/aimpact/internal/results"
	. "github.com/smartystreets/goconvey/convey"
)

func fastTiming() results.Timing {
	return results.Timing{
		Counter:        30 * time.Millisecond,
		Bar:            20 * time.Millisecond,
		BarDelay:       10 * time.Millisecond,
		ImpactBarDelay: 20 * time.Millisecond,
	}
}

// drain runs cmd and everything it schedules the way a bubbletea program
// would, feeding each message back into the panel.
func drain(p *results.Panel, cmds ...tea.Cmd) {
	queue := append([]tea.Cmd(nil), cmds...)
	for len(queue) > 0 {
		cmd := queue[0]
		queue = queue[1:]
		if cmd == nil {
			continue
		}
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if next := p.Update(msg); next != nil {
			queue = append(queue, next)
		}
	}
}

func TestClassifyImpact(t *testing.T) {
	Convey("Given impact values around the thresholds", t, func() {
		cases := []struct {
			impact float64
			label  string
			level  results.Level
		}{
			{30, "significantly boosts", results.LevelStrongPositive},
			{5.0001, "significantly boosts", results.LevelStrongPositive},
			{5, "slightly helps", results.LevelMildPositive},
			{0.01, "slightly helps", results.LevelMildPositive},
			{0, "slightly hurts", results.LevelMildNegative},
			{-4.99, "slightly hurts", results.LevelMildNegative},
			{-5, "significantly hurts", results.LevelStrongNegative},
			{-42, "significantly hurts", results.LevelStrongNegative},
		}

		for _, c := range cases {
			got := results.ClassifyImpact(c.impact)
			So(got.Label, ShouldEqual, c.label)
			So(got.Level, ShouldEqual, c.level)
		}
	})

	Convey("Each level has its own colour and sentence", t, func() {
		So(results.ClassifyImpact(12).Color, ShouldEqual, results.ColorPositiveStrong)
		So(results.ClassifyImpact(2).Color, ShouldEqual, results.ColorPositiveMild)
		So(results.ClassifyImpact(-2).Color, ShouldEqual, results.ColorNegativeMild)
		So(results.ClassifyImpact(-12).Color, ShouldEqual, results.ColorNegativeStrong)
		So(results.ClassifyImpact(12).Text(), ShouldEqual, "🚀 AI significantly boosts score")
		So(results.ClassifyImpact(2).Text(), ShouldEqual, "📈 AI slightly helps")
		So(results.ClassifyImpact(2).Positive(), ShouldBeTrue)
		So(results.ClassifyImpact(0).Positive(), ShouldBeFalse)
	})

	Convey("NaN fails every comparison", t, func() {
		So(results.ClassifyImpact(math.NaN()).Level, ShouldEqual, results.LevelStrongNegative)
	})
}

func TestBars(t *testing.T) {
	Convey("Given a score bar", t, func() {
		So(results.ProgressWidth(150, 100), ShouldEqual, 100.0)
		So(results.ProgressWidth(82.3, 100), ShouldAlmostEqual, 82.3, 1e-9)
		So(results.ProgressWidth(-10, 100), ShouldEqual, 0.0)
		So(results.ProgressWidth(25, 50), ShouldEqual, 50.0)
		So(results.ProgressWidth(math.NaN(), 100), ShouldEqual, 0.0)
		So(results.ProgressWidth(10, 0), ShouldEqual, 0.0)
	})

	Convey("Given an impact bar", t, func() {
		pct, positive := results.ImpactBar(45, 30)
		So(pct, ShouldEqual, 100.0)
		So(positive, ShouldBeTrue)

		pct, positive = results.ImpactBar(-15, 30)
		So(pct, ShouldEqual, 50.0)
		So(positive, ShouldBeFalse)

		pct, positive = results.ImpactBar(0, 30)
		So(pct, ShouldEqual, 0.0)
		So(positive, ShouldBeTrue)

		pct, _ = results.ImpactBar(15, 0)
		So(pct, ShouldEqual, 50.0)
	})

	Convey("Given the impact prefix", t, func() {
		So(results.ImpactPrefix(12.3), ShouldEqual, "+")
		So(results.ImpactPrefix(0), ShouldEqual, "+")
		So(results.ImpactPrefix(-1), ShouldEqual, "")
	})
}

func TestPanel(t *testing.T) {
	Convey("Given a results panel", t, func() {
		p := results.NewPanel(animate.NewDriver(animate.WithFrameInterval(time.Millisecond)), fastTiming())

		Convey("It is hidden until a result is rendered", func() {
			So(p.Visible(), ShouldBeFalse)
			So(p.View(), ShouldEqual, "")
		})

		Convey("When a passing prediction is rendered to completion", func() {
			r := predict.Result{ScoreWithAI: 82.3, ReferenceScore: 70, Passed: true, Impact: 12.3}
			drain(p, p.Render(r))

			Convey("Then every counter ends on its exact value", func() {
				So(p.Text(results.TargetScore), ShouldEqual, "82.3")
				So(p.Text(results.TargetReference), ShouldEqual, "70.0")
				So(p.Text(results.TargetImpact), ShouldEqual, "+12.30")
			})

			Convey("Then the labels describe the result", func() {
				So(p.PassedLabel(), ShouldEqual, "✅ Passed")
				So(p.Impact().Label, ShouldEqual, "significantly boosts")
				So(p.ImpactLabel(), ShouldEqual, "🚀 AI significantly boosts score")
			})

			Convey("Then the bars are filled", func() {
				So(p.BarPercent(results.TargetScoreBar), ShouldAlmostEqual, 82.3, 1e-9)
				So(p.BarPercent(results.TargetReferenceBar), ShouldAlmostEqual, 70, 1e-9)
				So(p.BarPercent(results.TargetImpactBar), ShouldAlmostEqual, 41, 1e-9)
				So(p.ImpactPositive(), ShouldBeTrue)
				So(p.Animating(), ShouldBeFalse)
			})

			Convey("Then the view shows every card", func() {
				p.SetWidth(120)
				view := p.View()
				So(view, ShouldContainSubstring, "Score with AI")
				So(view, ShouldContainSubstring, "Last exam score")
				So(view, ShouldContainSubstring, "+12.30")
				So(view, ShouldContainSubstring, "Passed")
			})

			Convey("Then the summary carries the final values", func() {
				So(p.Summary(), ShouldEqual, "Predicted score with AI: 82.3 (✅ Passed)\n"+
					"Last exam score: 70.0\n"+
					"AI impact: +12.30 (🚀 AI significantly boosts score)\n")
			})
		})

		Convey("When a prediction is rendered", func() {
			cmd := p.Render(predict.Result{ScoreWithAI: 55, ReferenceScore: 50, Passed: true, Impact: 5})

			Convey("Then counters start from zero and bars wait for their delay", func() {
				So(p.Text(results.TargetScore), ShouldEqual, "0.0")
				So(p.Text(results.TargetImpact), ShouldEqual, "+0.00")
				So(p.BarPercent(results.TargetScoreBar), ShouldEqual, 0.0)
				So(p.Animating(), ShouldBeTrue)
				So(cmd, ShouldNotBeNil)
			})

			Convey("Then a second render supersedes the first", func() {
				second := p.Render(predict.Result{ScoreWithAI: 30, ReferenceScore: 40, Passed: false, Impact: -10})
				drain(p, cmd, second)

				So(p.Text(results.TargetScore), ShouldEqual, "30.0")
				So(p.Text(results.TargetImpact), ShouldEqual, "-10.00")
				So(p.PassedLabel(), ShouldEqual, "❌ Not Passed")
				So(p.Impact().Label, ShouldEqual, "significantly hurts")
				So(p.ImpactPositive(), ShouldBeFalse)
				So(p.BarPercent(results.TargetImpactBar), ShouldAlmostEqual, 100.0/3, 1e-9)
			})

			Convey("Then hiding cancels the animations", func() {
				p.Hide()
				So(p.Visible(), ShouldBeFalse)
				So(p.Animating(), ShouldBeFalse)
			})
		})

		Convey("When a result is shown without animating", func() {
			p.Show(predict.Result{ScoreWithAI: 82.25, ReferenceScore: 70, Passed: true, Impact: 12.25})

			Convey("Then labels and summary are set and nothing is scheduled", func() {
				So(p.Visible(), ShouldBeTrue)
				So(p.Animating(), ShouldBeFalse)
				So(p.ImpactPositive(), ShouldBeTrue)
				So(p.Impact().Label, ShouldEqual, "significantly boosts")
				So(p.Summary(), ShouldEqual, "Predicted score with AI: 82.3 (✅ Passed)\n"+
					"Last exam score: 70.0\n"+
					"AI impact: +12.25 (🚀 AI significantly boosts score)\n")
			})
		})

		Convey("When the prediction has missing numbers", func() {
			cmd := p.Render(predict.Result{
				ScoreWithAI:    math.NaN(),
				ReferenceScore: 70,
				Passed:         false,
				Impact:         math.NaN(),
			})
			drain(p, cmd)

			Convey("Then the affected counters show the placeholder", func() {
				So(p.Text(results.TargetScore), ShouldEqual, "--")
				So(p.Text(results.TargetImpact), ShouldEqual, "--")
				So(p.Text(results.TargetReference), ShouldEqual, "70.0")
				So(p.ImpactLabel(), ShouldEqual, "--")
				So(p.BarPercent(results.TargetScoreBar), ShouldEqual, 0.0)
			})

			Convey("Then the summary uses the placeholder too", func() {
				So(p.Summary(), ShouldContainSubstring, "Predicted score with AI: -- (❌ Not Passed)")
			})
		})
	})
}

package results

import (
	"bytes"
	"math"
	"text/template"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/f3rmion/aimpact/internal/animate"
	"github.com/f3rmion/aimpact/internal/predict"
)

// Display targets of the panel.
const (
	TargetScore        animate.Target = "score.value"
	TargetScoreBar     animate.Target = "score.bar"
	TargetReference    animate.Target = "reference.value"
	TargetReferenceBar animate.Target = "reference.bar"
	TargetImpact       animate.Target = "impact.value"
	TargetImpactBar    animate.Target = "impact.bar"
)

// Decimals shown by each counter.
const (
	ScoreDecimals  = 1
	ImpactDecimals = 2
)

// Pass labels.
const (
	PassedLabel    = "✅ Passed"
	NotPassedLabel = "❌ Not Passed"
)

// Timing controls how the panel is sequenced.
type Timing struct {
	Counter        time.Duration // counter transition length
	Bar            time.Duration // bar fill transition length
	BarDelay       time.Duration // score bars start this long after the counters
	ImpactBarDelay time.Duration // the impact bar starts this long after the counters
}

// DefaultTiming matches the pacing of the web form.
func DefaultTiming() Timing {
	return Timing{
		Counter:        1200 * time.Millisecond,
		Bar:            600 * time.Millisecond,
		BarDelay:       200 * time.Millisecond,
		ImpactBarDelay: 400 * time.Millisecond,
	}
}

// Panel is the animated results panel. It owns no timers itself; every
// transition runs on the driver's targets.
type Panel struct {
	driver *animate.Driver
	timing Timing

	result         predict.Result
	visible        bool
	impact         Impact
	impactPositive bool

	width    int
	bigScore bool
}

// NewPanel creates a hidden panel over driver.
func NewPanel(driver *animate.Driver, timing Timing) *Panel {
	return &Panel{
		driver:   driver,
		timing:   timing,
		bigScore: true,
	}
}

// Render shows r, cancelling whatever the panel was animating, and returns
// the commands that drive the new transitions.
func (p *Panel) Render(r predict.Result) tea.Cmd {
	p.Show(r)

	t := p.timing
	d := p.driver

	scoreCounter := func(target animate.Target, v float64) tea.Cmd {
		return d.Start(target, animate.NewNumber(0, v, t.Counter, animate.WithDecimals(ScoreDecimals)))
	}

	impactPct, _ := ImpactBar(r.Impact, DefaultImpactCap)

	return tea.Batch(
		scoreCounter(TargetScore, r.ScoreWithAI),
		p.fill(TargetScoreBar, t.BarDelay, ProgressWidth(r.ScoreWithAI, DefaultMaxScore)),

		scoreCounter(TargetReference, r.ReferenceScore),
		p.fill(TargetReferenceBar, t.BarDelay, ProgressWidth(r.ReferenceScore, DefaultMaxScore)),

		d.Start(TargetImpact, animate.NewNumber(0, r.Impact, t.Counter,
			animate.WithDecimals(ImpactDecimals),
			animate.WithPrefix(ImpactPrefix(r.Impact)),
		)),
		p.fill(TargetImpactBar, t.ImpactBarDelay, impactPct),
	)
}

// Show sets the result and its labels without starting any transition.
// Summary and the label accessors reflect r immediately.
func (p *Panel) Show(r predict.Result) {
	p.result = r
	p.visible = true
	p.impact = ClassifyImpact(r.Impact)
	_, p.impactPositive = ImpactBar(r.Impact, DefaultImpactCap)
}

// fill empties a bar and schedules its transition to percent.
func (p *Panel) fill(target animate.Target, delay time.Duration, percent float64) tea.Cmd {
	p.driver.Start(target, animate.NewNumber(0, 0, 0))
	return p.driver.StartAfter(target, delay, animate.NewNumber(0, percent, p.timing.Bar))
}

// Update forwards animation messages to the driver.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	return p.driver.Update(msg)
}

// Hide clears the panel and cancels its animations.
func (p *Panel) Hide() {
	p.visible = false
	for _, t := range []animate.Target{
		TargetScore, TargetScoreBar, TargetReference, TargetReferenceBar, TargetImpact, TargetImpactBar,
	} {
		p.driver.Cancel(t)
	}
}

// SetWidth sets the width available to View.
func (p *Panel) SetWidth(width int) {
	p.width = width
}

// SetBigScore turns the block-art score on or off. It is on by default and
// only used when a font is available.
func (p *Panel) SetBigScore(on bool) {
	p.bigScore = on
}

// Visible reports whether a result has been rendered.
func (p *Panel) Visible() bool {
	return p.visible
}

// Animating reports whether any transition is still running or scheduled.
func (p *Panel) Animating() bool {
	return p.driver.Running() > 0
}

// Result returns the result being shown.
func (p *Panel) Result() predict.Result {
	return p.result
}

// Text returns the current text of a counter target.
func (p *Panel) Text(t animate.Target) string {
	return p.driver.Text(t)
}

// BarPercent returns the current fill of a bar target in percent.
func (p *Panel) BarPercent(t animate.Target) float64 {
	v, ok := p.driver.Value(t)
	if !ok || math.IsNaN(v) {
		return 0
	}
	return v
}

// PassedLabel is the pass/fail line under the with-AI score.
func (p *Panel) PassedLabel() string {
	if p.result.Passed {
		return PassedLabel
	}
	return NotPassedLabel
}

// Impact returns the classification of the shown impact.
func (p *Panel) Impact() Impact {
	return p.impact
}

// ImpactLabel is the classification sentence, or the placeholder when the
// impact is not a number.
func (p *Panel) ImpactLabel() string {
	if math.IsNaN(p.result.Impact) || math.IsInf(p.result.Impact, 0) {
		return animate.Placeholder
	}
	return p.impact.Text()
}

// ImpactPositive reports the direction of the impact bar.
func (p *Panel) ImpactPositive() bool {
	return p.impactPositive
}

var summaryTemplate = template.Must(template.New("summary").Parse(
	`Predicted score with AI: {{.Score}} ({{.Passed}})
Last exam score: {{.Reference}}
AI impact: {{.Impact}} ({{.ImpactLabel}})
`))

// Summary renders the final values as plain text, independent of how far
// the animations have progressed.
func (p *Panel) Summary() string {
	r := p.result
	data := struct {
		Score, Passed, Reference, Impact, ImpactLabel string
	}{
		Score:     animate.NewNumber(0, r.ScoreWithAI, 0, animate.WithDecimals(ScoreDecimals)).Final(),
		Passed:    p.PassedLabel(),
		Reference: animate.NewNumber(0, r.ReferenceScore, 0, animate.WithDecimals(ScoreDecimals)).Final(),
		Impact: animate.NewNumber(0, r.Impact, 0,
			animate.WithDecimals(ImpactDecimals),
			animate.WithPrefix(ImpactPrefix(r.Impact)),
		).Final(),
		ImpactLabel: p.ImpactLabel(),
	}

	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

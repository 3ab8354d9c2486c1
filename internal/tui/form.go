package tui

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/f3rmion/aimpact/internal/predict"
	"github.com/mattn/go-runewidth"
)

type fieldKind int

const (
	kindSelect fieldKind = iota
	kindSlider
)

// Field keys, matching the request's JSON names.
const (
	KeyTool              = "ai_tools_used"
	KeyPurpose           = "ai_usage_purpose"
	KeyDependency        = "ai_dependency_score"
	KeyContentPercentage = "ai_generated_content_percentage"
	KeyLastExamScore     = "last_exam_score"
	KeyUsageHours        = "ai_usage_hours"
	KeyStudyConsistency  = "study_consistency_index"
	KeySleepHours        = "sleep_hours"
)

// field is one form control: a select over options or a slider.
type field struct {
	key   string
	label string
	kind  fieldKind

	options  []string
	selected int

	min, max, step float64
	decimals       int
	value          float64
}

// Text is the value as the form shows it.
func (f field) Text() string {
	if f.kind == kindSelect {
		if len(f.options) == 0 {
			return predict.DefaultCategory
		}
		return f.options[f.selected]
	}
	return strconv.FormatFloat(f.value, 'f', f.decimals, 64)
}

func (f *field) adjust(steps int) {
	if f.kind == kindSelect {
		if n := len(f.options); n > 0 {
			f.selected = ((f.selected+steps)%n + n) % n
		}
		return
	}
	f.set(f.value + float64(steps)*f.step)
}

// set clamps v to the slider range and snaps it to the slider's precision.
func (f *field) set(v float64) {
	v = math.Min(math.Max(v, f.min), f.max)
	scale := math.Pow(10, float64(f.decimals))
	f.value = math.Round(v*scale) / scale
}

func (f field) fraction() float64 {
	if f.max <= f.min {
		return 0
	}
	return (f.value - f.min) / (f.max - f.min)
}

// Form collects the prediction inputs.
type Form struct {
	fields []field
	focus  int
}

// NewForm creates a form holding the request defaults.
func NewForm() Form {
	d := predict.DefaultInput()
	f := Form{fields: []field{
		{key: KeyTool, label: "AI tool used", kind: kindSelect, options: []string{d.Tool}},
		{key: KeyPurpose, label: "AI usage purpose", kind: kindSelect, options: []string{d.Purpose}},
		{key: KeyDependency, label: "AI dependency score", kind: kindSlider, min: 1, max: 10, step: 1},
		{key: KeyContentPercentage, label: "AI-generated content %", kind: kindSlider, min: 0, max: 100, step: 1},
		{key: KeyLastExamScore, label: "Last exam score", kind: kindSlider, min: 0, max: 100, step: 1},
		{key: KeyUsageHours, label: "AI usage hours / day", kind: kindSlider, min: 0, max: 12, step: 0.1, decimals: 1},
		{key: KeyStudyConsistency, label: "Study consistency index", kind: kindSlider, min: 0, max: 10, step: 0.1, decimals: 1},
		{key: KeySleepHours, label: "Sleep hours", kind: kindSlider, min: 3, max: 12, step: 0.1, decimals: 1},
	}}
	f.SetInput(d)
	return f
}

// Focused returns the key of the focused field.
func (f Form) Focused() string {
	return f.fields[f.focus].key
}

// Next moves focus down, wrapping around.
func (f *Form) Next() {
	f.focus = (f.focus + 1) % len(f.fields)
}

// Prev moves focus up, wrapping around.
func (f *Form) Prev() {
	f.focus = (f.focus - 1 + len(f.fields)) % len(f.fields)
}

// Adjust moves the focused field by steps: selects cycle, sliders clamp.
func (f *Form) Adjust(steps int) {
	f.fields[f.focus].adjust(steps)
}

// Text returns the displayed value of the field with key.
func (f Form) Text(key string) string {
	if i := f.index(key); i >= 0 {
		return f.fields[i].Text()
	}
	return ""
}

// SetOptions replaces the select choices, keeping the current choice when
// it is still offered and falling back to "None", then the first option.
func (f *Form) SetOptions(opts predict.Options) {
	f.setChoices(KeyTool, opts.Tools)
	f.setChoices(KeyPurpose, opts.Purposes)
}

func (f *Form) setChoices(key string, options []string) {
	if len(options) == 0 {
		return
	}
	fl := &f.fields[f.index(key)]
	current := fl.Text()
	fl.options = slices.Clone(options)
	fl.selected = 0
	if i := slices.Index(fl.options, current); i >= 0 {
		fl.selected = i
	} else if i := slices.Index(fl.options, predict.DefaultCategory); i >= 0 {
		fl.selected = i
	}
}

// Input returns the form values as a prediction input.
func (f Form) Input() predict.Input {
	return predict.Input{
		Tool:              f.Text(KeyTool),
		Purpose:           f.Text(KeyPurpose),
		Dependency:        f.value(KeyDependency),
		ContentPercentage: f.value(KeyContentPercentage),
		LastExamScore:     f.value(KeyLastExamScore),
		UsageHours:        f.value(KeyUsageHours),
		StudyConsistency:  f.value(KeyStudyConsistency),
		SleepHours:        f.value(KeySleepHours),
	}
}

// SetInput loads in into the form. Categories not offered are added.
func (f *Form) SetInput(in predict.Input) {
	f.choose(KeyTool, in.Tool)
	f.choose(KeyPurpose, in.Purpose)
	for key, v := range map[string]float64{
		KeyDependency:        in.Dependency,
		KeyContentPercentage: in.ContentPercentage,
		KeyLastExamScore:     in.LastExamScore,
		KeyUsageHours:        in.UsageHours,
		KeyStudyConsistency:  in.StudyConsistency,
		KeySleepHours:        in.SleepHours,
	} {
		f.fields[f.index(key)].set(v)
	}
}

func (f *Form) choose(key, v string) {
	fl := &f.fields[f.index(key)]
	i := slices.Index(fl.options, v)
	if i < 0 {
		fl.options = append(fl.options, v)
		i = len(fl.options) - 1
	}
	fl.selected = i
}

func (f Form) value(key string) float64 {
	return f.fields[f.index(key)].value
}

func (f Form) index(key string) int {
	return slices.IndexFunc(f.fields, func(fl field) bool { return fl.key == key })
}

const labelWidth = 26

// View renders the form. Sliders draw their position as a track.
func (f Form) View(width int, disabled bool) string {
	trackWidth := width - labelWidth - 8
	if trackWidth < 10 {
		trackWidth = 10
	}
	track := progress.New(
		progress.WithSolidFill(string(ColorSecondary)),
		progress.WithoutPercentage(),
		progress.WithWidth(trackWidth),
	)

	var b strings.Builder
	for i, fl := range f.fields {
		focused := i == f.focus && !disabled

		label := runewidth.FillRight(fl.label, labelWidth)
		if focused {
			b.WriteString(LabelFocusedStyle.Render("▸ " + label))
		} else {
			b.WriteString(LabelStyle.Render("  " + label))
		}

		switch fl.kind {
		case kindSelect:
			style := SelectStyle
			if focused {
				style = SelectFocusedStyle
			}
			b.WriteString(style.Render("‹ " + fl.Text() + " ›"))
		case kindSlider:
			b.WriteString(track.ViewAs(fl.fraction()))
			b.WriteString(" ")
			b.WriteString(FieldValueStyle.Render(fl.Text()))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

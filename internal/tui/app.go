package tui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/f3rmion/aimpact/internal/client"
	"github.com/f3rmion/aimpact/internal/clipboard"
	"github.com/f3rmion/aimpact/internal/logging"
	"github.com/f3rmion/aimpact/internal/predict"
	"github.com/f3rmion/aimpact/internal/results"
)

// Predictor is the prediction backend the form submits to.
type Predictor interface {
	Predict(ctx context.Context, in predict.Input) (predict.Result, error)
	Options(ctx context.Context) (predict.Options, error)
}

// Button labels
const (
	SubmitLabel  = "Predict Performance"
	LoadingLabel = "Analyzing..."
)

// Message types
type optionsMsg struct {
	opts predict.Options
	err  error
}

type predictionMsg struct {
	result predict.Result
	err    error
}

type clearCopiedMsg struct{}

func clearCopiedAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearCopiedMsg{}
	})
}

// AppModel is the form plus results panel.
type AppModel struct {
	predictor Predictor
	log       logging.Logger

	form    Form
	panel   *results.Panel
	spinner spinner.Model

	loading bool
	alert   string
	copied  bool

	width    int
	height   int
	ready    bool
	showHelp bool
}

// NewApp creates the TUI over predictor, rendering results on panel.
func NewApp(predictor Predictor, panel *results.Panel, log logging.Logger) AppModel {
	if log == nil {
		log = logging.Discard()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	return AppModel{
		predictor: predictor,
		log:       log,
		form:      NewForm(),
		panel:     panel,
		spinner:   s,
	}
}

// Init fetches the select options.
func (m AppModel) Init() tea.Cmd {
	return m.fetchOptions()
}

// Update handles messages
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.panel.SetWidth(m.contentWidth())
		return m, nil

	case optionsMsg:
		if msg.err != nil {
			m.log.Warn(context.Background(), "loading options", logging.Err(msg.err))
			return m, nil
		}
		m.form.SetOptions(msg.opts)
		return m, nil

	case predictionMsg:
		// the form is re-enabled whatever the outcome
		m.loading = false
		if msg.err != nil {
			m.alert = AlertText(msg.err)
			m.log.Warn(context.Background(), "prediction failed", logging.Err(msg.err))
			return m, nil
		}
		m.alert = ""
		m.log.Info(context.Background(), "prediction received",
			logging.Float64("score_with_ai", msg.result.ScoreWithAI),
			logging.Float64("impact", msg.result.Impact),
		)
		return m, m.panel.Render(msg.result)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clipboard.CopiedMsg:
		if msg.Err != nil {
			m.alert = "Copy failed: " + msg.Err.Error()
			return m, nil
		}
		m.copied = true
		return m, clearCopiedAfter(2 * time.Second)

	case clearCopiedMsg:
		m.copied = false
		return m, nil
	}

	// animation frames
	return m, m.panel.Update(msg)
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Help overlay - any key closes it
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case "y":
		if m.panel.Visible() {
			return m, clipboard.Copy(m.panel.Summary())
		}
		return m, nil
	case "esc":
		m.alert = ""
		return m, nil
	}

	// the form is disabled while a prediction is in flight
	if m.loading {
		return m, nil
	}

	switch msg.String() {
	case "down", "j", "tab":
		m.form.Next()
	case "up", "k", "shift+tab":
		m.form.Prev()
	case "right", "l":
		m.form.Adjust(1)
	case "left", "h":
		m.form.Adjust(-1)
	case "shift+right", "L":
		m.form.Adjust(10)
	case "shift+left", "H":
		m.form.Adjust(-10)
	case "r":
		m.form.SetInput(predict.DefaultInput())
	case "enter":
		return m.submit()
	}
	return m, nil
}

// submit starts a prediction and shows the loading state.
func (m AppModel) submit() (tea.Model, tea.Cmd) {
	m.loading = true
	m.alert = ""
	in := m.form.Input()
	predictor := m.predictor

	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := predictor.Predict(context.Background(), in)
		return predictionMsg{result: res, err: err}
	})
}

func (m AppModel) fetchOptions() tea.Cmd {
	predictor := m.predictor
	return func() tea.Msg {
		opts, err := predictor.Options(context.Background())
		return optionsMsg{opts: opts, err: err}
	}
}

// AlertText is the alert line for a failed prediction.
func AlertText(err error) string {
	var perr *client.PredictionError
	if errors.As(err, &perr) {
		return "Prediction failed: " + perr.Message
	}
	return "Network error: " + err.Error()
}

// Loading reports whether a prediction is in flight.
func (m AppModel) Loading() bool {
	return m.loading
}

// Alert returns the current alert line.
func (m AppModel) Alert() string {
	return m.alert
}

// Form returns a copy of the form state.
func (m AppModel) Form() Form {
	f := m.form
	f.fields = slices.Clone(f.fields)
	return f
}

func (m AppModel) contentWidth() int {
	return m.width - 4
}

const formWidth = 64

// View renders the UI
func (m AppModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("AI Impact Predictor"))
	b.WriteString("  ")
	b.WriteString(SubtitleStyle.Render("How does AI use change your exam score?"))
	b.WriteString("\n\n")

	form := m.form.View(formWidth-6, m.loading) + "\n" + m.renderButton()
	b.WriteString(FormBoxStyle.Width(formWidth).Render(form))
	b.WriteString("\n")

	if m.alert != "" {
		b.WriteString(AlertStyle.Render(m.alert))
		b.WriteString("\n")
	}

	if m.panel.Visible() {
		b.WriteString("\n")
		b.WriteString(m.panel.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	return ContentStyle.Width(m.width).Render(b.String())
}

func (m AppModel) renderButton() string {
	if m.loading {
		return ButtonBusyStyle.Render(m.spinner.View() + " " + LoadingLabel)
	}
	return ButtonStyle.Render("▶ " + SubmitLabel)
}

func (m AppModel) renderStatus() string {
	help := "↑/↓ field • ←/→ adjust • enter predict • r reset • ? help • q quit"
	if m.panel.Visible() {
		help = "↑/↓ field • ←/→ adjust • enter predict • y copy • ? help • q quit"
	}
	status := HelpStyle.Render(help)
	if m.copied {
		status += "  " + CopiedStyle.Render("Copied!")
	}
	return status
}

// renderHelp renders the help overlay
func (m AppModel) renderHelp() string {
	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorSecondary).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Width(14)

	descStyle := lipgloss.NewStyle().
		Foreground(ColorText)

	rows := []struct{ key, desc string }{
		{"↑/↓ tab", "Move between fields"},
		{"←/→", "Change value"},
		{"shift+←/→", "Change value by 10 steps"},
		{"enter", "Predict"},
		{"r", "Reset the form"},
		{"y", "Copy results to clipboard"},
		{"esc", "Dismiss alert"},
		{"q", "Quit"},
	}

	helpText := TitleStyle.Render("AI Impact Predictor") + "\n"
	helpText += sectionStyle.Render("Keys") + "\n"
	for _, r := range rows {
		helpText += keyStyle.Render(r.key) + descStyle.Render(r.desc) + "\n"
	}

	helpText += "\n" + lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true).
		Render("Press any key to close")

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSecondary).
		Padding(1, 2).
		Width(50)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, boxStyle.Render(helpText))
}

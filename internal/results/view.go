package results

import (
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/f3rmion/aimpact/internal/animate"
	"github.com/f3rmion/aimpact/internal/tui/bigchar"
	"github.com/mattn/go-runewidth"
)

// Panel styles
var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3d5a80")).
			Padding(0, 2).
			MarginRight(1)

	cardTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a8dadc")).
			Bold(true)

	scoreValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffe66d")).
			Bold(true)

	referenceValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#f1faee")).
				Bold(true)

	bigScoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffe66d"))

	passedStyle = lipgloss.NewStyle().
			Foreground(ColorPositiveStrong).
			Bold(true)

	notPassedStyle = lipgloss.NewStyle().
			Foreground(ColorNegativeStrong).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const (
	minCardWidth = 24
	bigRows      = 4
)

// View renders the three result cards. Cards sit side by side when the panel
// is wide enough and stack otherwise.
func (p *Panel) View() string {
	if !p.visible {
		return ""
	}

	width := p.width
	if width <= 0 {
		width = 80
	}

	side := width >= 3*(minCardWidth+6)
	inner := width - 6
	if side {
		inner = width/3 - 6
	}
	if inner < minCardWidth {
		inner = minCardWidth
	}

	cards := []string{
		p.scoreCard(inner),
		p.referenceCard(inner),
		p.impactCard(inner),
	}

	if side {
		return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (p *Panel) scoreCard(width int) string {
	text := p.Text(TargetScore)
	value := scoreValueStyle.Render(text)
	if p.bigScore {
		if big := bigchar.Render(text, bigRows); big != "" && runewidth.StringWidth(firstLine(big)) <= width {
			value = bigScoreStyle.Render(big)
		}
	}

	passed := notPassedStyle.Render(NotPassedLabel)
	if p.result.Passed {
		passed = passedStyle.Render(PassedLabel)
	}

	return p.card(width,
		cardTitleStyle.Render("Score with AI"),
		value,
		bar(width, string(ColorPositiveStrong), p.BarPercent(TargetScoreBar)),
		passed,
	)
}

func (p *Panel) referenceCard(width int) string {
	return p.card(width,
		cardTitleStyle.Render("Last exam score"),
		referenceValueStyle.Render(p.Text(TargetReference)),
		bar(width, "#a8dadc", p.BarPercent(TargetReferenceBar)),
		mutedStyle.Render("Reference"),
	)
}

func (p *Panel) impactCard(width int) string {
	color := string(ColorNegativeStrong)
	if p.impactPositive {
		color = string(ColorPositiveStrong)
	}

	label := mutedStyle.Render(animate.Placeholder)
	if text := p.ImpactLabel(); text != animate.Placeholder {
		label = lipgloss.NewStyle().
			Foreground(p.impact.Color).
			Bold(true).
			Render(runewidth.Truncate(text, width, "…"))
	}

	return p.card(width,
		cardTitleStyle.Render("AI impact"),
		lipgloss.NewStyle().Foreground(p.impact.Color).Bold(true).Render(p.Text(TargetImpact)),
		bar(width, color, p.BarPercent(TargetImpactBar)),
		label,
	)
}

func (p *Panel) card(width int, lines ...string) string {
	return cardStyle.Width(width + 4).Render(strings.Join(lines, "\n"))
}

// bar draws a static bar at percent (0..100).
func bar(width int, color string, percent float64) string {
	b := progress.New(
		progress.WithSolidFill(color),
		progress.WithoutPercentage(),
		progress.WithWidth(width),
	)
	return b.ViewAs(percent / 100)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

package boardctl

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/okian/attendboard/internal/domain/types"
)

const (
	rankWidth  = 5
	nameWidth  = 28
	scoreWidth = 22
)

var medals = []string{"gold", "silver", "bronze"}

// Printer renders views for a terminal.
type Printer struct {
	out io.Writer
	now func() time.Time

	title   lipgloss.Style
	header  lipgloss.Style
	rank    lipgloss.Style
	name    lipgloss.Style
	score   lipgloss.Style
	board   lipgloss.Style
	marker  lipgloss.Style
	muted   lipgloss.Style
	hint    lipgloss.Style
	failure lipgloss.Style
	medal   map[string]lipgloss.Style
}

// NewPrinter creates a Printer writing to out. Colors are used only when out
// is a terminal.
func NewPrinter(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:     out,
		now:     time.Now,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).MarginBottom(1),
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("241")),
		rank:    r.NewStyle().Width(rankWidth).Foreground(lipgloss.Color("241")),
		name:    r.NewStyle().Width(nameWidth),
		score:   r.NewStyle().Width(scoreWidth).Align(lipgloss.Right),
		board:   r.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		marker:  r.NewStyle().Foreground(lipgloss.Color("212")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("240")),
		hint:    r.NewStyle().Foreground(lipgloss.Color("214")).Border(lipgloss.RoundedBorder()).Padding(0, 1),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		medal: map[string]lipgloss.Style{
			"gold":   r.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
			"silver": r.NewStyle().Foreground(lipgloss.Color("250")).Bold(true),
			"bronze": r.NewStyle().Foreground(lipgloss.Color("173")).Bold(true),
		},
	}
}

// Print writes v.
func (p *Printer) Print(v *types.View) error {
	_, err := io.WriteString(p.out, p.Render(v))
	return err
}

// Render formats v as a block of text.
func (p *Printer) Render(v *types.View) string {
	var b strings.Builder

	title := v.Title
	if title == "" {
		title = "Attendance Leaderboard"
	}
	b.WriteString(p.title.Render(fmt.Sprintf("%s  %s", title, v.Term)))
	b.WriteString("\n")

	if v.SetupHint != "" {
		b.WriteString(p.hint.Render(v.SetupHint))
		b.WriteString("\n")
		return b.String()
	}
	if v.Error != "" {
		b.WriteString(p.failure.Render(v.Error))
		b.WriteString("\n")
		return b.String()
	}

	for i, e := range v.Podium {
		medal := medals[i%len(medals)]
		line := fmt.Sprintf("%-4s %s  %s", humanize.Ordinal(i+1), e.Name, score(e.Score))
		b.WriteString(p.medal[medal].Render(line))
		b.WriteString("\n")
	}
	if len(v.Podium) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(p.header.Render(p.rank.Render("#") + p.name.Render("Name") + p.score.Render(v.ScoreLabel)))
	b.WriteString("\n")
	if len(v.Rows) == 0 {
		b.WriteString(p.muted.Render("no entries"))
		b.WriteString("\n")
	}
	for i, r := range v.Rows {
		if v.Marker != nil && *v.Marker == i {
			b.WriteString(p.marker.Render(strings.Repeat("─", rankWidth+nameWidth+scoreWidth)))
			b.WriteString("\n")
		}
		rank := ""
		if r.Rank != nil {
			rank = fmt.Sprint(*r.Rank)
		}
		line := p.rank.Render(rank) + p.name.Render(r.Name) + p.score.Render(score(r.Score))
		if r.Board {
			line = p.board.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(p.muted.Render(p.footer(v)))
	b.WriteString("\n")
	return b.String()
}

func (p *Printer) footer(v *types.View) string {
	parts := []string{
		fmt.Sprintf("page %d/%d", v.Page, v.TotalPages),
		fmt.Sprintf("%s members", humanize.Comma(int64(v.Count))),
		"mode " + v.Mode,
	}
	if v.Query != "" {
		parts = append(parts, fmt.Sprintf("search %q", v.Query))
	}
	if v.UpdatedAt != nil {
		parts = append(parts, "updated "+humanize.RelTime(*v.UpdatedAt, p.now(), "ago", "from now"))
	}
	return strings.Join(parts, " · ")
}

// PrintTerms writes the selectable terms, marking the current one.
func (p *Printer) PrintTerms(terms []types.TermOption) error {
	var b strings.Builder
	for _, t := range terms {
		if t.Selected {
			b.WriteString(p.marker.Render("* " + t.Key))
		} else {
			b.WriteString("  " + t.Key)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

func score(s *float64) string {
	if s == nil {
		return "–"
	}
	return humanize.Ftoa(*s)
}

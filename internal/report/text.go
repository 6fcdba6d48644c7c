package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/huddle/internal/domain/checkin"
	"github.com/okian/huddle/internal/domain/types"
)

type theme struct {
	Header  lipgloss.Style
	Section lipgloss.Style
	Jersey  lipgloss.Style
	Alert   lipgloss.Style
	Dim     lipgloss.Style
}

func newTheme(w io.Writer, styled bool) theme {
	if !styled {
		plain := lipgloss.NewStyle()
		return theme{Header: plain, Section: plain, Jersey: plain, Alert: plain, Dim: plain}
	}
	r := lipgloss.NewRenderer(w)
	return theme{
		Header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Border(lipgloss.RoundedBorder()).Padding(0, 1),
		Section: r.NewStyle().Bold(true).Underline(true),
		Jersey:  r.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
		Alert:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Dim:     r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func renderText(w io.Writer, d types.Dashboard, styled bool) error {
	t := newTheme(w, styled)
	var b strings.Builder

	b.WriteString(t.Header.Render(titleDashboard))
	b.WriteString("\n")
	b.WriteString(t.Dim.Render(subtitle(d)))
	b.WriteString("\n")
	b.WriteString(summary(d))
	b.WriteString("\n")
	if d.RefreshError != "" {
		b.WriteString(t.Alert.Render("Last refresh failed: " + d.RefreshError))
		b.WriteString("\n")
	}

	// Alerts and missing are only listed when non-empty.
	if len(d.Alerts) > 0 {
		writeSection(&b, t, titleAlerts)
		for _, c := range d.Alerts {
			fmt.Fprintf(&b, "  %s %s\n", t.Jersey.Render("#"+c.Jersey), c.Name)
			fmt.Fprintf(&b, "      %s\n", t.Alert.Render(join("  ", c.Feeling, c.Physical, label("Energy", c.Energy))))
			writeNotes(&b, c)
			if c.Date != "" {
				fmt.Fprintf(&b, "      %s\n", t.Dim.Render(c.Date))
			}
		}
	}

	writeSection(&b, t, titleToday)
	if len(d.Today) == 0 {
		b.WriteString(t.Dim.Render("  No check-ins yet."))
		b.WriteString("\n")
	}
	for _, c := range d.Today {
		fmt.Fprintf(&b, "  %s %s\n", t.Jersey.Render("#"+c.Jersey), c.Name)
		fmt.Fprintf(&b, "      %s\n", join("  ",
			label("Feeling", c.Feeling), label("Energy", c.Energy), label("Physical", c.Physical)))
		writeNotes(&b, c)
	}

	if len(d.Missing) > 0 {
		writeSection(&b, t, titleMissing)
		for _, c := range d.Missing {
			fmt.Fprintf(&b, "  %s %s  %s\n", t.Jersey.Render("#"+c.Jersey), c.Name, t.Dim.Render("Last: "+c.LastContact))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSection(b *strings.Builder, t theme, title string) {
	b.WriteString("\n")
	b.WriteString(t.Section.Render(title))
	b.WriteString("\n")
}

func writeNotes(b *strings.Builder, c checkin.Card) {
	if c.Notes != "" {
		fmt.Fprintf(b, "      %q\n", c.Notes)
	}
}

func label(name, value string) string {
	return name + ": " + value
}

// join skips empty parts.
func join(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

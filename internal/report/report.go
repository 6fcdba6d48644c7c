// Package report renders a dashboard outside the browser: a terminal summary,
// machine-readable JSON or YAML, or a printable PDF.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/huddle/internal/domain/types"
)

// Format names an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatPDF  Format = "pdf"
)

// Section titles shared by the text and PDF renderers.
const (
	titleDashboard = "Team Dashboard"
	titleAlerts    = "Players Need Attention"
	titleToday     = "Today's Check-ins"
	titleMissing   = "Missing Check-ins"
)

// ParseFormat parses a format name; the empty string selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML, FormatPDF:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Binary reports whether f should not be written to a terminal.
func (f Format) Binary() bool { return f == FormatPDF }

// Render writes d to w in format f.
func Render(w io.Writer, d types.Dashboard, f Format, opts ...Option) error {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	switch f {
	case FormatText, "":
		err = renderText(w, d, s.styled)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(d)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(d); err == nil {
			err = enc.Close()
		}
	case FormatPDF:
		err = renderPDF(w, d)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRender, f, err)
	}
	return nil
}

func summary(d types.Dashboard) string {
	return fmt.Sprintf("Check-ins Today: %d   Need Attention: %d   Missing Today: %d",
		d.Counts.Today, d.Counts.Alerts, d.Counts.Missing)
}

func subtitle(d types.Dashboard) string {
	s := fmt.Sprintf("%s (missing policy: %s)", d.Date, d.Policy)
	if !d.FetchedAt.IsZero() {
		s += ", fetched " + d.FetchedAt.UTC().Format("2006-01-02 15:04 MST")
	}
	return s
}

// Command huddle-report fetches the check-in table once and prints the
// dashboard as text, JSON, YAML or PDF.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/okian/huddle/internal/adapters/airtable"
	"github.com/okian/huddle/internal/config"
	"github.com/okian/huddle/internal/domain/checkin"
	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/internal/report"
	"github.com/okian/huddle/pkg/logger"
)

const dateLayout = "2006-01-02"

var errBinaryToTerminal = errors.New("refusing to write a PDF to a terminal; use -out")

type options struct {
	format  report.Format
	out     string
	policy  string
	date    string
	timeout time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "huddle-report:", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("huddle-report", flag.ContinueOnError)
	fs.SetOutput(stderr)

	format := fs.String("format", "text", "output format: text, json, yaml or pdf")
	out := fs.String("out", "", "write to this file instead of stdout")
	policy := fs.String("policy", "", "missing check-in policy: distinct or literal (default from config)")
	date := fs.String("date", "", "treat this YYYY-MM-DD as today (default: today in the configured timezone)")
	timeout := fs.Duration("timeout", 0, "fetch timeout (default from config)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	f, err := report.ParseFormat(*format)
	if err != nil {
		return options{}, err
	}
	if *date != "" {
		if _, err := time.Parse(dateLayout, *date); err != nil {
			return options{}, fmt.Errorf("invalid -date %q: %w", *date, err)
		}
	}
	return options{format: f, out: *out, policy: *policy, date: *date, timeout: *timeout}, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if opts.policy != "" {
		cfg.MissingPolicy = opts.policy
	}
	if opts.timeout > 0 {
		cfg.FetchTimeoutMS = int(opts.timeout / time.Millisecond)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(logger.WithWriter(stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	log := logger.Named("report")

	d, err := build(ctx, cfg, opts.date)
	if err != nil {
		return err
	}
	log.Debug(ctx, "dashboard derived",
		logger.String("date", d.Date),
		logger.Int("records", d.Records),
		logger.String("format", string(opts.format)),
	)

	return writeReport(opts, stdout, d)
}

// writeReport renders d to the chosen destination. A failed render leaves
// no -out file behind.
func writeReport(opts options, stdout io.Writer, d types.Dashboard) error {
	w, styled, closeOut, err := output(opts, stdout)
	if err != nil {
		return err
	}
	if err := report.Render(w, d, opts.format, report.WithStyled(styled)); err != nil {
		_ = closeOut()
		discard(opts.out)
		return err
	}
	if err := closeOut(); err != nil {
		discard(opts.out)
		return err
	}
	return nil
}

// build fetches once and derives the dashboard for today, or for date if set.
func build(ctx context.Context, cfg *config.Config, date string) (types.Dashboard, error) {
	loc, err := cfg.Location()
	if err != nil {
		return types.Dashboard{}, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return types.Dashboard{}, err
	}

	client := airtable.NewClient(
		airtable.WithAPIURL(cfg.AirtableAPIURL),
		airtable.WithBaseID(cfg.AirtableBaseID),
		airtable.WithToken(cfg.AirtableToken),
		airtable.WithTable(cfg.AirtableTable),
		airtable.WithTimeout(cfg.FetchTimeout()),
	)
	records, err := client.List(ctx)
	if err != nil {
		return types.Dashboard{}, fmt.Errorf("%w: %w", types.ErrFetchFailed, err)
	}
	fetchedAt := time.Now()

	if date == "" {
		date = checkin.Today(fetchedAt, loc)
	}
	d := types.NewDashboard(checkin.Derive(records, date, policy), len(records))
	d.FetchedAt = fetchedAt.UTC()
	return d, nil
}

// discard removes a partially written -out file.
func discard(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}

// output picks the destination. Text is styled only on a terminal.
func output(opts options, stdout io.Writer) (io.Writer, bool, func() error, error) {
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return nil, false, nil, err
		}
		return f, false, f.Close, nil
	}

	tty := false
	if f, ok := stdout.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	if tty && opts.format.Binary() {
		return nil, false, nil, errBinaryToTerminal
	}
	return stdout, tty && opts.format == report.FormatText, func() error { return nil }, nil
}

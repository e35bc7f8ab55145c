// Package pipeline runs one fetch → parse → build → write cycle and maps
// its outcome onto a process exit code.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/civil"

	"postcal/internal/config"
	"postcal/internal/delivery"
	"postcal/internal/ics"
	appLog "postcal/internal/log"
)

// Version is reported in logs and the User-Agent header.
const Version = "0.1.0"

// Exit codes. Config failures share 1 with fetch failures: both end the
// run before any date has been seen.
const (
	ExitOK           = 0
	ExitFetchFailed  = 1
	ExitConfigFailed = 1
	ExitNoDates      = 2
	ExitWriteFailed  = 3
)

var (
	// ErrNoDates means the fetch succeeded but no value parsed as a date.
	ErrNoDates = errors.New("no valid delivery dates")
	// ErrWriteCalendar wraps failures to store the generated calendar.
	ErrWriteCalendar = errors.New("write calendar")
)

// ExitCode maps the result of Run onto a process exit code. Any error that
// is neither ErrNoDates nor ErrWriteCalendar is a fetch failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrNoDates):
		return ExitNoDates
	case errors.Is(err, ErrWriteCalendar):
		return ExitWriteFailed
	default:
		return ExitFetchFailed
	}
}

// Fetcher abstracts the delivery-date source.
type Fetcher interface {
	Fetch(ctx context.Context) (delivery.Response, error)
}

// Runner holds the collaborators of a single run.
type Runner struct {
	Config  *config.Config
	Fetcher Fetcher
	Builder *ics.Builder

	Stdout io.Writer
	Stderr io.Writer
}

// New wires a Runner for cfg using the real HTTP client.
func New(cfg *config.Config, stdout, stderr io.Writer) *Runner {
	client := delivery.NewClient(cfg.Endpoint, cfg.PostalCode, cfg.RequestTimeout(),
		delivery.WithUserAgent("postcal/"+Version))
	return &Runner{
		Config:  cfg,
		Fetcher: client,
		Builder: ics.NewBuilder(),
		Stdout:  stdout,
		Stderr:  stderr,
	}
}

// Run executes the pipeline. It returns nil on success, the fetch error
// (usually a *delivery.FetchError), ErrNoDates, or an error wrapping
// ErrWriteCalendar. Human-readable status goes to Stdout/Stderr.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()

	resp, err := r.Fetcher.Fetch(ctx)
	if err != nil {
		appLog.Error("delivery fetch failed", err, "postal_code", r.Config.PostalCode)
		fmt.Fprintf(r.Stderr, "Misslyckades att hämta data: %v\n", err)
		return err
	}

	dates := delivery.ParseDates(resp.Values()...)
	if len(dates) == 0 {
		appLog.Info("no delivery dates parsed", "postal_code", r.Config.PostalCode, "values", len(resp.Values()))
		fmt.Fprintln(r.Stdout, "Inga giltiga datum hittades.")
		return ErrNoDates
	}

	r.logChanges(dates)

	data, n := r.Builder.Serialize(dates, ics.OptionsFromConfig(r.Config))
	if err := ics.WriteFile(r.Config.OutputPath, data); err != nil {
		appLog.Error("calendar write failed", err, "path", r.Config.OutputPath)
		fmt.Fprintf(r.Stderr, "Misslyckades att skriva kalender: %v\n", err)
		return fmt.Errorf("%w %s: %w", ErrWriteCalendar, r.Config.OutputPath, err)
	}

	appLog.Info("calendar written",
		"path", r.Config.OutputPath,
		"events", n,
		"bytes", len(data),
		"elapsed", time.Since(start).String(),
	)
	fmt.Fprintf(r.Stdout, "Skrev %s med %d händelse(r).\n", r.Config.OutputPath, n)
	return nil
}

// logChanges reports how the date set differs from the file about to be
// replaced. It never affects the outcome of the run.
func (r *Runner) logChanges(dates []civil.Date) {
	previous, err := ics.ReadDates(r.Config.OutputPath)
	if err != nil {
		appLog.Error("previous calendar unreadable; ignoring", err, "path", r.Config.OutputPath)
		return
	}
	added, removed := ics.DiffDates(previous, ics.UniqueDates(dates))
	appLog.Info("delivery dates compared with previous calendar",
		"previous", len(previous),
		"added", len(added),
		"removed", len(removed),
	)
}

package ics

import (
	"slices"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"

	"postcal/internal/config"
	appLog "postcal/internal/log"
	"postcal/internal/model"
)

// CalendarOptions carries the container- and event-level constants of a
// generated calendar.
type CalendarOptions struct {
	PostalCode string
	Name       string // X-WR-CALNAME
	Timezone   string // X-WR-TIMEZONE
	ProductID  string

	Summary   string
	EventURL  string
	UIDDomain string
}

// OptionsFromConfig maps the application config onto CalendarOptions.
func OptionsFromConfig(cfg *config.Config) CalendarOptions {
	return CalendarOptions{
		PostalCode: cfg.PostalCode,
		Name:       cfg.CalendarName,
		Timezone:   cfg.Timezone,
		ProductID:  cfg.ProductID,
		Summary:    cfg.Summary,
		EventURL:   cfg.EventURL,
		UIDDomain:  cfg.UIDDomain,
	}
}

// Builder turns delivery dates into an iCalendar document.
type Builder struct {
	// Now supplies the DTSTAMP. If nil, time.Now is used.
	Now func() time.Time
}

// NewBuilder returns a Builder stamping events with the wall clock.
func NewBuilder() *Builder {
	return &Builder{Now: time.Now}
}

// UniqueDates returns the distinct dates in ascending order. The input is
// not modified.
func UniqueDates(dates []civil.Date) []civil.Date {
	out := slices.Clone(dates)
	slices.SortFunc(out, compareDates)
	return slices.Compact(out)
}

func compareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// Events builds one all-day DeliveryEvent per distinct date, ascending.
func (b *Builder) Events(dates []civil.Date, opts CalendarOptions) []model.DeliveryEvent {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	stamp := now().UTC()

	unique := UniqueDates(dates)
	events := make([]model.DeliveryEvent, 0, len(unique))
	for _, d := range unique {
		events = append(events, model.DeliveryEvent{
			UID:     model.EventUID(opts.PostalCode, d, opts.UIDDomain),
			Summary: opts.Summary,
			URL:     opts.EventURL,
			Start:   d,
			End:     d.AddDays(1),
			Stamp:   stamp,
		})
	}
	return events
}

// Build creates the calendar document for dates. Duplicates collapse into
// a single event.
func (b *Builder) Build(dates []civil.Date, opts CalendarOptions) (*ical.Calendar, []model.DeliveryEvent) {
	cal := ical.NewCalendar()
	cal.SetProductId(opts.ProductID)
	cal.SetVersion("2.0")
	cal.SetXWRCalName(opts.Name)
	cal.SetXWRTimezone(opts.Timezone)

	events := b.Events(dates, opts)
	for _, ev := range events {
		ve := cal.AddEvent(ev.UID)
		ve.SetSummary(ev.Summary)
		ve.SetAllDayStartAt(ev.Start.In(time.UTC))
		ve.SetAllDayEndAt(ev.End.In(time.UTC))
		ve.SetDtStampTime(ev.Stamp)
		ve.SetURL(ev.URL)
	}

	appLog.Debug("ics calendar built", "postal_code", opts.PostalCode, "event_count", len(events))
	return cal, events
}

// Serialize builds the calendar and returns its wire form together with
// the number of events it contains.
func (b *Builder) Serialize(dates []civil.Date, opts CalendarOptions) ([]byte, int) {
	cal, events := b.Build(dates, opts)
	return []byte(cal.Serialize()), len(events)
}

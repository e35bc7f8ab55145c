package ics

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"

	appLog "postcal/internal/log"
)

// ParsedEvent is the subset of a VEVENT that a previously generated
// delivery calendar is checked against.
type ParsedEvent struct {
	UID     string
	Summary string
	Start   civil.Date
	AllDay  bool
}

// ParseICS parses a calendar payload into ParsedEvents.
//
//   - VEVENTs without UID or DTSTART are logged and skipped.
//   - All-day detection follows VALUE=DATE or a date-only DTSTART value.
func ParseICS(body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil {
		return out, errors.New("missing DTSTART")
	}
	val := strings.TrimSpace(dtStartProp.Value)
	if params := dtStartProp.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.AllDay = true
		}
	}
	if !strings.Contains(val, "T") {
		out.AllDay = true
	}

	// Only the calendar date matters; a DATE-TIME start is truncated.
	if len(val) < 8 {
		return out, errors.New("malformed DTSTART " + val)
	}
	t, err := time.Parse("20060102", val[:8])
	if err != nil {
		return out, err
	}
	out.Start = civil.DateOf(t)

	return out, nil
}

// ReadDates returns the event start dates of the calendar at path. A
// missing file is not an error and yields no dates.
func ReadDates(path string) ([]civil.Date, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	events, err := ParseICS(body)
	if err != nil {
		return nil, err
	}

	dates := make([]civil.Date, 0, len(events))
	for _, ev := range events {
		dates = append(dates, ev.Start)
	}
	return UniqueDates(dates), nil
}

// DiffDates compares two ascending, distinct date sets.
func DiffDates(previous, current []civil.Date) (added, removed []civil.Date) {
	i, j := 0, 0
	for i < len(previous) && j < len(current) {
		switch c := compareDates(previous[i], current[j]); {
		case c == 0:
			i++
			j++
		case c < 0:
			removed = append(removed, previous[i])
			i++
		default:
			added = append(added, current[j])
			j++
		}
	}
	removed = append(removed, previous[i:]...)
	added = append(added, current[j:]...)
	return added, removed
}

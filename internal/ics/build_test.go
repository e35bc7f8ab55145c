package ics

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"postcal/internal/config"
)

func d(y int, m time.Month, day int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: day}
}

func fixedBuilder(t time.Time) *Builder {
	return &Builder{Now: func() time.Time { return t }}
}

func TestBuilder_Events_dedupAndSort(t *testing.T) {
	opts := OptionsFromConfig(config.DefaultConfig())
	stamp := time.Date(2025, 1, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600))

	events := fixedBuilder(stamp).Events([]civil.Date{
		d(2025, time.January, 2),
		d(2025, time.January, 1),
		d(2025, time.January, 1),
	}, opts)

	require.Len(t, events, 2)
	require.Equal(t, d(2025, time.January, 1), events[0].Start)
	require.Equal(t, d(2025, time.January, 2), events[0].End)
	require.Equal(t, d(2025, time.January, 2), events[1].Start)
	require.Equal(t, d(2025, time.January, 3), events[1].End)

	for _, ev := range events {
		require.Equal(t, "Postutdelning", ev.Summary)
		require.Equal(t, config.DefaultEventURL, ev.URL)
		require.Equal(t, time.UTC, ev.Stamp.Location())
		require.True(t, ev.Stamp.Equal(stamp))
	}
	require.Equal(t, "postnord-56632-2025-01-01@example.local", events[0].UID)
}

func TestBuilder_Events_monthAndYearRollover(t *testing.T) {
	opts := OptionsFromConfig(config.DefaultConfig())
	events := NewBuilder().Events([]civil.Date{d(2024, time.December, 31), d(2024, time.February, 29)}, opts)

	require.Equal(t, d(2024, time.March, 1), events[0].End)
	require.Equal(t, d(2025, time.January, 1), events[1].End)
}

// Identifiers must not depend on build time, only on postal code and date.
func TestBuilder_stableUIDs(t *testing.T) {
	opts := OptionsFromConfig(config.DefaultConfig())
	dates := []civil.Date{d(2025, time.June, 10), d(2025, time.June, 11)}

	first := fixedBuilder(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)).Events(dates, opts)
	second := fixedBuilder(time.Date(2025, 6, 9, 8, 30, 0, 0, time.UTC)).Events(dates, opts)

	require.Len(t, second, len(first))
	for i := range first {
		require.Equal(t, first[i].UID, second[i].UID)
		require.NotEqual(t, first[i].Stamp, second[i].Stamp)
	}
}

func TestBuilder_Serialize(t *testing.T) {
	opts := OptionsFromConfig(config.DefaultConfig())
	stamp := time.Date(2025, 6, 9, 8, 30, 0, 0, time.UTC)

	data, n := fixedBuilder(stamp).Serialize([]civil.Date{
		d(2025, time.June, 11),
		d(2025, time.June, 10),
		d(2025, time.June, 10),
	}, opts)
	out := string(data)

	require.Equal(t, 2, n)
	require.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	require.Contains(t, out, "VERSION:2.0")
	require.Contains(t, out, "PRODID:-//PostNord Utdelningskalender//postnord.se//")
	require.Contains(t, out, "X-WR-CALNAME:Postutdelning 56632")
	require.Contains(t, out, "X-WR-TIMEZONE:Europe/Stockholm")
	require.Contains(t, out, "DTSTART;VALUE=DATE:20250610")
	require.Contains(t, out, "DTEND;VALUE=DATE:20250611")
	require.Contains(t, out, "DTSTAMP:20250609T083000Z")
	require.Contains(t, out, "UID:postnord-56632-2025-06-11@example.local")
	require.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	require.Less(t, strings.Index(out, "20250610"), strings.Index(out, "DTSTART;VALUE=DATE:20250611"))
	require.Equal(t, 1, strings.Count(out, "PRODID"))
	require.Equal(t, 1, strings.Count(out, "VERSION"))

	events, err := ParseICS(data)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, d(2025, time.June, 10), events[0].Start)
	require.True(t, events[0].AllDay)
	require.Equal(t, "Postutdelning", events[0].Summary)
	require.Equal(t, "postnord-56632-2025-06-10@example.local", events[0].UID)
}

func TestUniqueDates(t *testing.T) {
	in := []civil.Date{d(2025, time.March, 3), d(2025, time.March, 1), d(2025, time.March, 3)}

	got := UniqueDates(in)

	require.Equal(t, []civil.Date{d(2025, time.March, 1), d(2025, time.March, 3)}, got)
	require.Equal(t, d(2025, time.March, 3), in[0], "input must not be reordered")
	require.Empty(t, UniqueDates(nil))
}

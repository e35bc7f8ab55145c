package delivery

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	appLog "postcal/internal/log"
)

var (
	ErrEmpty              = errors.New("empty date value")
	ErrUnrecognizedFormat = errors.New("unrecognized date format")
	ErrUnknownMonth       = errors.New("unknown month name")
	ErrInvalidDate        = errors.New("invalid calendar date")
)

// ParseError explains why a raw value did not yield a date.
type ParseError struct {
	Input  string
	Reason error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Reason }

var monthsSV = map[string]time.Month{
	"januari":   time.January,
	"februari":  time.February,
	"mars":      time.March,
	"april":     time.April,
	"maj":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"augusti":   time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// minYear is the first year of the calendar; year 0 does not exist.
const minYear = 1

// e.g. "5 mars, 2025" or " 11 Juni 2025 "
var localizedDateRe = regexp.MustCompile(`^\s*(\d{1,2})\s+([A-Za-zÅÄÖåäö]+),?\s+(\d{4})\s*$`)

// ParseDate accepts either an ISO date (2025-06-10) or the long Swedish
// form used by the PostNord site (10 juni, 2025). It never panics; a value
// that is not a date yields a *ParseError.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, &ParseError{Input: s, Reason: ErrEmpty}
	}

	if len(s) == 10 && s[4] == '-' && s[7] == '-' {
		if d, err := civil.ParseDate(s); err == nil && d.Year >= minYear {
			return d, nil
		}
		// Fall through: a malformed ISO value is not fatal.
	}

	m := localizedDateRe.FindStringSubmatch(foldDigitsAndSpaces(s))
	if m == nil {
		return civil.Date{}, &ParseError{Input: s, Reason: ErrUnrecognizedFormat}
	}

	month, ok := monthsSV[cases.Lower(language.Swedish).String(m[2])]
	if !ok {
		return civil.Date{}, &ParseError{Input: s, Reason: ErrUnknownMonth}
	}

	// Both groups are all digits with bounded width, Atoi cannot fail.
	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])

	d := civil.Date{Year: year, Month: month, Day: day}
	if d.Year < minYear || !d.IsValid() {
		return civil.Date{}, &ParseError{Input: s, Reason: ErrInvalidDate}
	}
	return d, nil
}

// foldDigitsAndSpaces rewrites Unicode whitespace (U+00A0 and friends) to
// an ASCII space and decimal digits of any script to ASCII digits, so the
// ASCII-only regexp classes see what a locale-formatted string means.
func foldDigitsAndSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r < utf8.RuneSelf:
			return r
		case unicode.IsSpace(r):
			return ' '
		case unicode.Is(unicode.Nd, r):
			return '0' + rune(digitValue(r))
		}
		return r
	}, s)
}

// digitValue returns the value of a decimal digit rune. Nd ranges are runs
// of complete 0-9 blocks, so the offset into the range gives the value.
func digitValue(r rune) int {
	for _, rg := range unicode.Nd.R16 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			return int(r-lo) % 10
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			return int(r-lo) % 10
		}
	}
	return 0
}

// ParseDates parses every value and keeps the successful ones in input
// order. Failures are logged at debug level and dropped.
func ParseDates(values ...string) []civil.Date {
	out := make([]civil.Date, 0, len(values))
	for _, v := range values {
		d, err := ParseDate(v)
		if err != nil {
			appLog.Debug("delivery date skipped", "value", v, "reason", errors.Unwrap(err))
			continue
		}
		out = append(out, d)
	}
	return out
}

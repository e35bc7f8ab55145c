package delivery

import (
	"bytes"
	"encoding/json"
)

// Response is the subset of the sendoutarrival payload we care about.
//
// The service is loosely typed: "delivery" may be null and "upcoming" may
// be a single string, a list of strings, null or missing entirely.
type Response struct {
	Delivery OptionalString `json:"delivery"`
	Upcoming Upcoming       `json:"upcoming"`
}

// Values returns every raw date string in the response, delivery first.
func (r Response) Values() []string {
	out := make([]string, 0, 1+len(r.Upcoming.list))
	if r.Delivery.Valid {
		out = append(out, r.Delivery.Value)
	}
	return append(out, r.Upcoming.Values()...)
}

// OptionalString decodes a JSON string. null, absent or non-string values
// leave Valid false rather than failing the whole document.
type OptionalString struct {
	Value string
	Valid bool
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil || s == nil {
		*o = OptionalString{}
		return nil
	}
	*o = OptionalString{Value: *s, Valid: true}
	return nil
}

// UpcomingKind tags which JSON shape "upcoming" arrived in.
type UpcomingKind int

const (
	UpcomingAbsent UpcomingKind = iota
	UpcomingSingle
	UpcomingList
)

// Upcoming is the decoded "upcoming" field.
type Upcoming struct {
	Kind UpcomingKind
	list []string
}

// Values normalizes the field to a list. Absent yields an empty list.
func (u Upcoming) Values() []string {
	if len(u.list) == 0 {
		return []string{}
	}
	out := make([]string, len(u.list))
	copy(out, u.list)
	return out
}

func (u *Upcoming) UnmarshalJSON(data []byte) error {
	*u = Upcoming{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		u.Kind = UpcomingSingle
		u.list = []string{s}
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		u.Kind = UpcomingList
		u.list = make([]string, 0, len(raw))
		for _, item := range raw {
			var s *string
			if err := json.Unmarshal(item, &s); err != nil || s == nil {
				// Non-string entries are dropped like unparseable dates.
				continue
			}
			u.list = append(u.list, *s)
		}
	}
	// Objects, numbers and booleans are treated as absent.
	return nil
}

// NewUpcoming builds an Upcoming list value, mainly for tests and callers
// that assemble a Response by hand.
func NewUpcoming(values ...string) Upcoming {
	return Upcoming{Kind: UpcomingList, list: append([]string(nil), values...)}
}

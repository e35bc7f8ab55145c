package model

import (
	"time"

	"cloud.google.com/go/civil"
)

// DeliveryEvent is one all-day calendar entry for a single delivery date.
// It is derived from the parsed date set and never stored on its own.
type DeliveryEvent struct {
	// UID is stable for a given postal code and date, so regenerating the
	// calendar does not create duplicates in subscribed clients.
	UID string

	Summary string
	URL     string

	// Start is the delivery date; End is the exclusive day after it.
	Start civil.Date
	End   civil.Date

	// Stamp is the DTSTAMP, the UTC build time.
	Stamp time.Time
}

// EventUID returns the identifier used for a delivery on date d.
func EventUID(postalCode string, d civil.Date, domain string) string {
	return "postnord-" + postalCode + "-" + d.String() + "@" + domain
}

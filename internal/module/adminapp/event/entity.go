package event

import (
	"time"
)

// Event owns the seat inventory carved into ticket categories. The sum
// of active category capacities never exceeds AvailableSeats; that sum
// is recomputed from category rows inside each unit of work, never
// cached.
type Event struct {
	ID                int64
	ShortName         string
	Description       string
	WebsiteURL        string
	TermsURL          string
	ImageURL          string
	Location          string
	Latitude          string
	Longitude         string
	BeginsAt          time.Time
	EndsAt            time.Time
	TimeZone          string
	RegularPriceCents int64
	Currency          string
	AvailableSeats    int
	VATIncluded       bool
	VAT               float64
	FreeOfCharge      bool
	OrganizationID    int64
	PrivateKey        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

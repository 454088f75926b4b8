package event

import (
	"time"

	"github.com/Praitheesh/alf.io/internal/module/adminapp/category"
)

type TicketCategoryResponse struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	MaxTickets       int       `json:"max_tickets"`
	PriceCents       int64     `json:"price_cents"`
	Inception        time.Time `json:"inception"`
	Expiration       time.Time `json:"expiration"`
	AccessRestricted bool      `json:"access_restricted"`
	Active           bool      `json:"active"`
	SoldTickets      int       `json:"sold_tickets"`
	CheckedInTickets int       `json:"checked_in_tickets"`
	NotSoldTickets   int       `json:"not_sold_tickets"`
}

func (r *TicketCategoryResponse) PopulateFromEntity(tc category.TicketCategoryWithStatistics) {
	r.ID = tc.ID
	r.Name = tc.Name
	r.Description = tc.Description
	r.MaxTickets = tc.MaxTickets
	r.PriceCents = tc.PriceCents
	r.Inception = tc.Inception
	r.Expiration = tc.Expiration
	r.AccessRestricted = tc.AccessRestricted
	r.Active = tc.Active
	r.SoldTickets = tc.Statistics.SoldTickets
	r.CheckedInTickets = tc.Statistics.CheckedInTickets
	r.NotSoldTickets = tc.Statistics.NotSoldTickets
}

type EventResponse struct {
	ID               int64                    `json:"id"`
	ShortName        string                   `json:"short_name"`
	Description      string                   `json:"description"`
	Location         string                   `json:"location"`
	Latitude         string                   `json:"latitude"`
	Longitude        string                   `json:"longitude"`
	Begin            time.Time                `json:"begin"`
	End              time.Time                `json:"end"`
	TimeZone         string                   `json:"time_zone"`
	PriceCents       int64                    `json:"price_cents"`
	Currency         string                   `json:"currency"`
	AvailableSeats   int                      `json:"available_seats"`
	VATIncluded      bool                     `json:"vat_included"`
	VAT              float64                  `json:"vat"`
	FreeOfCharge     bool                     `json:"free_of_charge"`
	OrganizationID   int64                    `json:"organization_id"`
	TicketCategories []TicketCategoryResponse `json:"ticket_categories,omitempty"`
}

func (r *EventResponse) PopulateFromEntity(e Event, categories []category.TicketCategoryWithStatistics) {
	r.ID = e.ID
	r.ShortName = e.ShortName
	r.Description = e.Description
	r.Location = e.Location
	r.Latitude = e.Latitude
	r.Longitude = e.Longitude
	r.Begin = e.BeginsAt
	r.End = e.EndsAt
	r.TimeZone = e.TimeZone
	r.PriceCents = e.RegularPriceCents
	r.Currency = e.Currency
	r.AvailableSeats = e.AvailableSeats
	r.VATIncluded = e.VATIncluded
	r.VAT = e.VAT
	r.FreeOfCharge = e.FreeOfCharge
	r.OrganizationID = e.OrganizationID

	for _, tc := range categories {
		var tcr TicketCategoryResponse
		tcr.PopulateFromEntity(tc)
		r.TicketCategories = append(r.TicketCategories, tcr)
	}
}

type CreateEventResponse struct {
	EventResponse
}

type GetManyEventResponse struct {
	Events []EventResponse `json:"events"`
}

type CreateCategoryResponse struct {
	TicketCategoryResponse
}

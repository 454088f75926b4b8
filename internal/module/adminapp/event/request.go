package event

import (
	"time"

	"github.com/Praitheesh/alf.io/internal/module/adminapp/category"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/location"
	"github.com/Praitheesh/alf.io/internal/pkg/money"
	"github.com/Praitheesh/alf.io/internal/pkg/util"
)

type TicketCategoryRequest struct {
	Name                     string `json:"name" validate:"required"`
	Description              string `json:"description" validate:"-"`
	MaxTickets               int    `json:"max_tickets" validate:"required,min=1"`
	PriceCents               int64  `json:"price_cents" validate:"min=0"`
	Inception                string `json:"inception" validate:"datetime=2006-01-02 15:04:05"`
	Expiration               string `json:"expiration" validate:"datetime=2006-01-02 15:04:05"`
	TokenGenerationRequested bool   `json:"token_generation_requested" validate:"-"`
}

// ToEntity builds the category in the event's time zone at the charged
// price produced by the price evaluator.
func (r TicketCategoryRequest) ToEntity(eventID int64, loc *time.Location, chargedPriceCents int64) category.TicketCategory {
	inception, _ := time.ParseInLocation(time.DateTime, r.Inception, loc)
	expiration, _ := time.ParseInLocation(time.DateTime, r.Expiration, loc)

	return category.TicketCategory{
		EventID:          eventID,
		Name:             r.Name,
		Description:      r.Description,
		MaxTickets:       r.MaxTickets,
		PriceCents:       chargedPriceCents,
		Inception:        inception,
		Expiration:       expiration,
		AccessRestricted: r.TokenGenerationRequested,
		Active:           true,
	}
}

type CreateEventRequest struct {
	ShortName        string                  `json:"short_name" validate:"required"`
	Description      string                  `json:"description" validate:"required"`
	WebsiteURL       string                  `json:"website_url" validate:"omitempty,url"`
	TermsURL         string                  `json:"terms_url" validate:"omitempty,url"`
	ImageURL         string                  `json:"image_url" validate:"omitempty,url"`
	Location         string                  `json:"location" validate:"required"`
	Begin            string                  `json:"begin" validate:"datetime=2006-01-02 15:04:05"`
	End              string                  `json:"end" validate:"datetime=2006-01-02 15:04:05"`
	PriceCents       int64                   `json:"price_cents" validate:"min=0"`
	Currency         string                  `json:"currency" validate:"required,len=3"`
	AvailableSeats   int                     `json:"available_seats" validate:"required,min=1"`
	VATIncluded      bool                    `json:"vat_included" validate:"-"`
	VAT              float64                 `json:"vat" validate:"min=0"`
	FreeOfCharge     bool                    `json:"free_of_charge" validate:"-"`
	OrganizationID   int64                   `json:"organization_id" validate:"required"`
	TicketCategories []TicketCategoryRequest `json:"ticket_categories" validate:"required,dive"`
}

// ToEntity builds the event with its charged regular price. VAT is
// forced to zero on free-of-charge events.
func (r CreateEventRequest) ToEntity(geo location.Geolocation, loc *time.Location, now time.Time) Event {
	begin, _ := time.ParseInLocation(time.DateTime, r.Begin, loc)
	end, _ := time.ParseInLocation(time.DateTime, r.End, loc)

	vat := r.VAT
	if r.FreeOfCharge {
		vat = 0
	}

	return Event{
		ShortName:         r.ShortName,
		Description:       r.Description,
		WebsiteURL:        r.WebsiteURL,
		TermsURL:          r.TermsURL,
		ImageURL:          r.ImageURL,
		Location:          r.Location,
		Latitude:          geo.Latitude,
		Longitude:         geo.Longitude,
		BeginsAt:          begin,
		EndsAt:            end,
		TimeZone:          geo.TimeZone,
		RegularPriceCents: money.EvaluatePrice(r.PriceCents, r.VAT, r.VATIncluded, r.FreeOfCharge),
		Currency:          r.Currency,
		AvailableSeats:    r.AvailableSeats,
		VATIncluded:       r.VATIncluded,
		VAT:               vat,
		FreeOfCharge:      r.FreeOfCharge,
		OrganizationID:    r.OrganizationID,
		PrivateKey:        util.GenerateOpaqueCode(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

type UpdateEventRequest struct {
	EventID int64 `json:"-" validate:"required"`
	CreateEventRequest
}

type UpdateEventHeaderRequest struct {
	EventID     int64  `json:"-" validate:"required"`
	ShortName   string `json:"short_name" validate:"required"`
	Description string `json:"description" validate:"required"`
	WebsiteURL  string `json:"website_url" validate:"omitempty,url"`
	TermsURL    string `json:"terms_url" validate:"omitempty,url"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Location    string `json:"location" validate:"required"`
	Begin       string `json:"begin" validate:"datetime=2006-01-02 15:04:05"`
	End         string `json:"end" validate:"datetime=2006-01-02 15:04:05"`
}

type UpdateEventPricesRequest struct {
	EventID        int64   `json:"-" validate:"required"`
	PriceCents     int64   `json:"price_cents" validate:"min=0"`
	Currency       string  `json:"currency" validate:"required,len=3"`
	AvailableSeats int     `json:"available_seats" validate:"required,min=1"`
	VATIncluded    bool    `json:"vat_included" validate:"-"`
	VAT            float64 `json:"vat" validate:"min=0"`
	FreeOfCharge   bool    `json:"free_of_charge" validate:"-"`
}

type CreateCategoryRequest struct {
	EventID int64 `json:"-" validate:"required"`
	TicketCategoryRequest
}

type UpdateCategoryRequest struct {
	EventID    int64 `json:"-" validate:"required"`
	CategoryID int64 `json:"-" validate:"required"`
	TicketCategoryRequest
}

type ReallocateCategoryRequest struct {
	EventID          int64 `json:"-" validate:"required"`
	SourceCategoryID int64 `json:"source_category_id" validate:"required"`
	TargetCategoryID int64 `json:"target_category_id" validate:"required,nefield=SourceCategoryID"`
}

package category

import (
	"time"

	"github.com/Praitheesh/alf.io/internal/module/adminapp/ticket"
)

// TicketCategory is a named subdivision of an event's seat inventory
// with its own price, sale window and restriction mode. While active,
// inception < expiration and both fall inside the owning event's
// window.
type TicketCategory struct {
	ID               int64
	EventID          int64
	Name             string
	Description      string
	MaxTickets       int
	PriceCents       int64
	Inception        time.Time
	Expiration       time.Time
	AccessRestricted bool
	Active           bool
}

type TicketCategoryWithStatistics struct {
	TicketCategory
	Statistics ticket.Statistics
}

package token

import "github.com/Praitheesh/alf.io/internal/pkg/util"

const (
	StatusWaiting   = "WAITING"
	StatusLocked    = "LOCKED"
	StatusCancelled = "CANCELLED"
)

// SpecialPrice is a single-use access token gating the purchase of a
// restricted-category ticket. One WAITING-or-LOCKED token exists per
// unsold seat of the category.
type SpecialPrice struct {
	ID               int64
	TicketCategoryID int64
	Code             string
	PriceCents       int64
	Status           string
}

// GenerateBatch builds count WAITING tokens carrying the category's
// current price, each with a fresh opaque code.
func GenerateBatch(categoryID int64, priceCents int64, count int) []SpecialPrice {
	batch := make([]SpecialPrice, count)
	for i := range batch {
		batch[i] = SpecialPrice{
			TicketCategoryID: categoryID,
			Code:             util.GenerateOpaqueCode(),
			PriceCents:       priceCents,
			Status:           StatusWaiting,
		}
	}

	return batch
}

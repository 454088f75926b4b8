package ticket

import (
	"time"

	"github.com/Praitheesh/alf.io/internal/pkg/util"
)

const (
	StatusFree        = "FREE"
	StatusAcquired    = "ACQUIRED"
	StatusCheckedIn   = "CHECKED_IN"
	StatusInvalidated = "INVALIDATED"
)

type Ticket struct {
	ID                 int64
	UUID               string
	EventID            int64
	CategoryID         int64
	Status             string
	Creation           time.Time
	OriginalPriceCents int64
	PaidPriceCents     int64
}

// Statistics is the per-category sales view derived from ticket rows.
// NotSold is capacity minus sold, never a stored counter.
type Statistics struct {
	SoldTickets      int
	CheckedInTickets int
	NotSoldTickets   int
}

// GenerateBatch materializes count FREE tickets for a category. The
// original price is the event's regular price and the paid price the
// category's charged price, kept apart so reporting can tell discount
// effects later on.
func GenerateBatch(eventID, categoryID int64, count int, creation time.Time, originalPriceCents, paidPriceCents int64) []Ticket {
	batch := make([]Ticket, count)
	for i := range batch {
		batch[i] = Ticket{
			UUID:               util.GenerateOpaqueCode(),
			EventID:            eventID,
			CategoryID:         categoryID,
			Status:             StatusFree,
			Creation:           creation,
			OriginalPriceCents: originalPriceCents,
			PaidPriceCents:     paidPriceCents,
		}
	}

	return batch
}

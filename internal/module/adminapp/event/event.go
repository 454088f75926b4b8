package event

const (
	ActionEventCreated     = "EVENT_CREATED"
	ActionEventUpdated     = "EVENT_UPDATED"
	ActionCategoryCreated  = "CATEGORY_CREATED"
	ActionCategoryResized  = "CATEGORY_RESIZED"
	ActionSeatsReallocated = "SEATS_REALLOCATED"
)

// InventoryMessage is published after every committed inventory change
// so downstream consumers can refresh their view of the seat map.
type InventoryMessage struct {
	Action     string `json:"action"`
	EventID    int64  `json:"event_id"`
	CategoryID int64  `json:"category_id,omitempty"`
}

// CategoryExpireMessage is the payload of the deferred cloud task that
// fires at a restricted category's expiration to sweep its unused
// access tokens.
type CategoryExpireMessage struct {
	EventID    int64 `json:"event_id"`
	CategoryID int64 `json:"category_id"`
}

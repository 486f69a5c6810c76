package order

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus returns the Status matching s, or false for anything
// outside the closed vocabulary.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusDelivered, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

type Item struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	// Name is joined in from the catalog at read time, never persisted.
	Name string `json:"name,omitempty"`
}

type Order struct {
	ID          string    `json:"id"`
	TotalAmount float64   `json:"totalAmount"`
	TotalItems  int       `json:"totalItems"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	Items       []Item    `json:"items,omitempty"`
}

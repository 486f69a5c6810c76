package catalog

import (
	"context"
	"errors"
)

// Product is the catalog's view of a product at query time. It is
// never persisted by this service.
type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ErrUnavailable signals that the catalog round-trip could not
// complete (timeout, transport failure, malformed reply).
var ErrUnavailable = errors.New("catalog service unavailable")

// Client resolves product ids against the remote catalog. The returned
// slice may cover only a subset of the requested ids; detecting missing
// products is the caller's job. Implementations do not retry.
type Client interface {
	ValidateProducts(ctx context.Context, ids []int64) ([]Product, error)
}

package order

import "errors"

// Business error kinds. Callers classify with errors.Is; messages carry
// the entity id for diagnosis.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrValidation       = errors.New("invalid order request")
	ErrStoreReadFailed  = errors.New("order store read failed")
	ErrStoreWriteFailed = errors.New("order store write failed")
)

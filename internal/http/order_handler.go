package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/andreasstove999/orders-ms/internal/catalog"
	"github.com/andreasstove999/orders-ms/internal/order"
)

type OrderHandler struct {
	svc *order.Service
}

func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type createOrderRequest struct {
	Items []order.CreateItem `json:"items"`
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "malformed request body")
		return
	}

	// Create spans a catalog round-trip plus the store write
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.svc.Create(ctx, req.Items)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "missing orderId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.svc.FindOne(ctx, orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := order.ListQuery{}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := order.ParseStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "validation_error", "unknown status "+raw)
			return
		}
		q.Status = &status
	}

	var err error
	if q.Page, err = queryInt(r, "page"); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "page must be a positive integer")
		return
	}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, err := h.svc.FindAll(ctx, q)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *OrderHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "missing orderId")
		return
	}

	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "malformed request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.svc.ChangeStatus(ctx, orderID, order.Status(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// queryInt reads an optional positive integer query parameter. Zero
// means unset; the service applies its defaults.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return v, nil
}

// writeServiceError maps the workflow error taxonomy to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, order.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, order.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, catalog.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "catalog_unavailable", err.Error())
	case errors.Is(err, order.ErrStoreReadFailed):
		writeError(w, http.StatusInternalServerError, "store_read_failed", "failed to load order data")
	case errors.Is(err, order.ErrStoreWriteFailed):
		writeError(w, http.StatusInternalServerError, "store_write_failed", "failed to persist order data")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

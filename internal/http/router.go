package http

import (
	"encoding/json"
	"net/http"

	"github.com/andreasstove999/orders-ms/internal/order"
)

func NewRouter(svc *order.Service) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthHandler)

	h := NewOrderHandler(svc)

	mux.HandleFunc("POST /api/orders", h.CreateOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{orderId}", h.GetOrder)
	mux.HandleFunc("PATCH /api/orders/{orderId}/status", h.ChangeStatus)

	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "orders-ms",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]errorBody{
		"error": {Kind: kind, Message: msg},
	})
}

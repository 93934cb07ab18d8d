package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
	"storefront/pkg/order"
)

type response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	OrderID   int64  `json:"order_id,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, response{Success: false, Message: msg})
}

// fail maps a domain error to a status code. Business-rule failures carry
// their message; persistence failures get fallback and are logged.
func (s *Server) fail(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	var short *catalog.InsufficientStockError
	switch {
	case errors.Is(err, order.ErrInvalidInput), errors.Is(err, cart.ErrInvalidInput),
		errors.Is(err, catalog.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusConflict, "Cart is empty")
	case errors.As(err, &short):
		writeJSON(w, http.StatusConflict, response{Message: short.Error(), ProductID: short.ProductID})
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	default:
		s.log.Error(ctx, fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"storefront/pkg/otel"
)

type cartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type stockRequest struct {
	ProductID int64 `json:"product_id"`
	Delta     int   `json:"delta"`
}

type stockResponse struct {
	ProductID int64 `json:"product_id"`
	Stock     int   `json:"stock"`
}

// getProductHandler returns one product.
// @Summary Get product
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} response
// @Failure 404 {object} response
// @Router /products/{id} [get]
func (s *Server) getProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getProductHandler")
	defer span.End()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := s.ledger.GetProduct(ctx, id)
	if err != nil {
		s.fail(ctx, w, err, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: p})
}

// getCartHandler lists the caller's cart.
// @Summary Get cart
// @Produce json
// @Success 200 {object} response
// @Security ApiKeyAuth
// @Router /cart [get]
func (s *Server) getCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getCartHandler")
	defer span.End()

	id, _ := IdentityFrom(ctx)
	items, err := s.carts.Items(ctx, id.UserID)
	if err != nil {
		s.fail(ctx, w, err, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: items})
}

// addToCartHandler adds a product to the caller's cart.
// @Summary Add to cart
// @Accept json
// @Produce json
// @Param body body cartRequest true "Product and quantity (default 1)"
// @Success 200 {object} response
// @Failure 400 {object} response
// @Failure 404 {object} response
// @Security ApiKeyAuth
// @Router /cart/add [post]
func (s *Server) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addToCartHandler")
	defer span.End()

	var req cartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, _ := IdentityFrom(ctx)
	if err := s.carts.Add(ctx, id.UserID, req.ProductID, req.Quantity); err != nil {
		s.fail(ctx, w, err, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Added to cart"})
}

// updateCartHandler sets a cart line's quantity; zero removes it.
// @Summary Update cart quantity
// @Accept json
// @Produce json
// @Param body body cartRequest true "Product and new quantity"
// @Success 200 {object} response
// @Failure 400 {object} response
// @Security ApiKeyAuth
// @Router /cart/update [put]
func (s *Server) updateCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateCartHandler")
	defer span.End()

	var req cartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, _ := IdentityFrom(ctx)
	if err := s.carts.Update(ctx, id.UserID, req.ProductID, req.Quantity); err != nil {
		s.fail(ctx, w, err, "Database error")
		return
	}
	msg := "Cart updated"
	if req.Quantity == 0 {
		msg = "Removed from cart"
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: msg})
}

// removeFromCartHandler deletes a cart line.
// @Summary Remove from cart
// @Accept json
// @Produce json
// @Param body body cartRequest true "Product"
// @Success 200 {object} response
// @Security ApiKeyAuth
// @Router /cart/remove [delete]
func (s *Server) removeFromCartHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "removeFromCartHandler")
	defer span.End()

	var req cartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, _ := IdentityFrom(ctx)
	if err := s.carts.Remove(ctx, id.UserID, req.ProductID); err != nil {
		s.fail(ctx, w, err, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Removed from cart"})
}

// adjustStockHandler applies an administrative stock delta.
// @Summary Adjust product stock
// @Accept json
// @Produce json
// @Param body body stockRequest true "Product and delta"
// @Success 200 {object} response
// @Failure 404 {object} response
// @Failure 409 {object} response
// @Security ApiKeyAuth
// @Router /admin/products/stock [put]
func (s *Server) adjustStockHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "adjustStockHandler")
	defer span.End()

	var req stockRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stock, err := s.ledger.AdjustStock(ctx, req.ProductID, req.Delta)
	if err != nil {
		s.fail(ctx, w, err, "Database error")
		return
	}
	s.log.Info(ctx, "stock adjusted", "product_id", req.ProductID, "delta", req.Delta, "stock", stock)
	writeJSON(w, http.StatusOK, response{Success: true, Data: stockResponse{ProductID: req.ProductID, Stock: stock}})
}

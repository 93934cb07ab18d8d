package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"storefront/pkg/order"
	"storefront/pkg/otel"
)

type createOrderRequest struct {
	Address       string `json:"address"`
	AltPhone      string `json:"alt_phone"`
	PaymentMethod string `json:"payment_method"`
}

type orderStatusRequest struct {
	OrderID     int64  `json:"order_id"`
	OrderStatus string `json:"order_status"`
}

type paymentStatusRequest struct {
	OrderID       int64  `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
}

// createOrderHandler places an order from the caller's cart.
// @Summary Create order
// @Accept json
// @Produce json
// @Param order body createOrderRequest true "Checkout details"
// @Success 200 {object} response
// @Failure 400 {object} response
// @Failure 409 {object} response
// @Security ApiKeyAuth
// @Router /order/create [post]
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createOrderHandler")
	defer span.End()

	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		writeError(w, http.StatusBadRequest, "Address is required")
		return
	}
	if !order.PaymentMethod(req.PaymentMethod).Valid() {
		writeError(w, http.StatusBadRequest, "Invalid payment method")
		return
	}
	id, _ := IdentityFrom(ctx)
	orderID, err := s.orders.CreateOrder(ctx, order.CreateRequest{
		UserID:        id.UserID,
		Address:       req.Address,
		AltPhone:      req.AltPhone,
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		s.fail(ctx, w, err, "Failed to create order")
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Order placed successfully", OrderID: orderID})
}

// getOrderHandler returns one order to its owner or an admin.
// @Summary Get order
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} response
// @Failure 404 {object} response
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func (s *Server) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	orderID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		s.fail(ctx, w, err, "Failed to fetch order")
		return
	}
	if id, _ := IdentityFrom(ctx); id.UserID != o.UserID && !id.IsAdmin() {
		s.fail(ctx, w, order.ErrNotFound, "")
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: o})
}

// listOrdersHandler lists every order, newest first.
// @Summary List orders
// @Produce json
// @Success 200 {object} response
// @Security ApiKeyAuth
// @Router /admin/orders [get]
func (s *Server) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		s.fail(ctx, w, err, "Failed to fetch orders")
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: orders})
}

// updateOrderStatusHandler sets an order's status.
// @Summary Update order status
// @Accept json
// @Produce json
// @Param body body orderStatusRequest true "New status"
// @Success 200 {object} response
// @Failure 400 {object} response
// @Failure 404 {object} response
// @Security ApiKeyAuth
// @Router /admin/orders/status [put]
func (s *Server) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateOrderStatusHandler")
	defer span.End()

	var req orderStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !order.Status(req.OrderStatus).Valid() {
		writeError(w, http.StatusBadRequest, "Invalid order status")
		return
	}
	if err := s.orders.UpdateOrderStatus(ctx, req.OrderID, order.Status(req.OrderStatus)); err != nil {
		s.fail(ctx, w, err, "Failed to update order status")
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Order status updated"})
}

// updatePaymentStatusHandler sets the status of an order's payment.
// @Summary Update payment status
// @Accept json
// @Produce json
// @Param body body paymentStatusRequest true "New payment status"
// @Success 200 {object} response
// @Failure 400 {object} response
// @Failure 404 {object} response
// @Security ApiKeyAuth
// @Router /admin/orders/payment [put]
func (s *Server) updatePaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updatePaymentStatusHandler")
	defer span.End()

	var req paymentStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !order.PaymentStatus(req.PaymentStatus).Valid() {
		writeError(w, http.StatusBadRequest, "Invalid payment status")
		return
	}
	err := s.orders.UpdatePaymentStatus(ctx, req.OrderID, order.PaymentStatus(req.PaymentStatus))
	if errors.Is(err, order.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Payment record not found")
		return
	}
	if err != nil {
		s.fail(ctx, w, err, "Failed to update payment status")
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Payment status updated"})
}

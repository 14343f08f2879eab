package handler

import (
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/filter"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests. The principal placed in
// the request context by the authentication middleware scopes every call.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// List handles GET /orders/ requests. The result is filtered but not paginated.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	where, err := filter.Order(r.URL.Query())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	orders, err := h.service.List(r.Context(), auth.FromContext(r.Context()), where)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.NewOrderResponses(orders))
}

// UserOrders handles GET /orders/user-orders/ requests.
func (h *OrderHandler) UserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOwn(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.NewOrderResponses(orders))
}

// GetByID handles GET /orders/{id}/ requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.GetByID(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.NewOrderResponse(*order))
}

// Create handles POST /orders/ requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	req, err := model.DecodeOrderCreateRequest(body)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.Create(r.Context(), auth.FromContext(r.Context()), req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.NewOrderResponse(*order))
}

// Update handles PUT and PATCH /orders/{id}/ requests.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	req, err := model.DecodeOrderUpdateRequest(body, isPartial(r))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.Update(r.Context(), auth.FromContext(r.Context()), id, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.NewOrderResponse(*order))
}

// Delete handles DELETE /orders/{id}/ requests.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), auth.FromContext(r.Context()), id); err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

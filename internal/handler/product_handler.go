package handler

import (
	"net/http"

	"storefront/internal/filter"
	"storefront/internal/model"
	"storefront/internal/pagination"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service   service.ProductService
	paginator pagination.Paginator
	logger    zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:   service,
		paginator: pagination.New(),
		logger:    logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /products/ requests: search, ordering, filters, in-stock
// only, paginated.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	where, ordering, err := filter.ProductList(params)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	page, err := h.service.List(r.Context(), service.ProductListQuery{
		Where:   where,
		OrderBy: ordering,
		Page:    h.paginator.Request(params),
	})
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, pagination.NewEnvelope(r, h.paginator, page.Page,
		model.NewProductResponses(page.Products)))
}

// Info handles GET /products/info/ requests.
func (h *ProductHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// GetByID handles GET /products/{id}/ requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.NewProductResponse(*product))
}

// Create handles POST /products/ requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := h.decode(w, r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.NewProductResponse(*product))
}

// Update handles PUT and PATCH /products/{id}/ requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	in, err := h.decode(w, r)
	if err != nil {
		// A missing product is reported ahead of a malformed body.
		if _, lookupErr := h.service.GetByID(r.Context(), id); lookupErr != nil {
			err = lookupErr
		}
		writeError(w, err, h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), id, in, isPartial(r))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.NewProductResponse(*product))
}

// Delete handles DELETE /products/{id}/ requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request) (*model.ProductInput, error) {
	body, err := readBody(w, r)
	if err != nil {
		return nil, err
	}
	return model.DecodeProductInput(body)
}

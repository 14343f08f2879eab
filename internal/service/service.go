package service

import (
	"context"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/pagination"
	"storefront/internal/query"

	"github.com/google/uuid"
)

// ProductListQuery selects one page of the catalogue.
type ProductListQuery struct {
	Where   []query.Predicate
	OrderBy []query.Order
	Page    pagination.Request
}

// ProductPage is one page of products with its position in the full result.
type ProductPage struct {
	Products []model.Product
	Page     pagination.Page
}

// ProductService defines operations for product management.
type ProductService interface {
	// List retrieves one page of the products matching the query.
	List(ctx context.Context, q ProductListQuery) (*ProductPage, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// Create validates and stores a new product.
	Create(ctx context.Context, in *model.ProductInput) (*model.Product, error)

	// Update validates and applies a full or partial update.
	Update(ctx context.Context, id int64, in *model.ProductInput, partial bool) (*model.Product, error)

	// Delete removes a product.
	Delete(ctx context.Context, id int64) error

	// Info returns the aggregate snapshot of the whole catalogue.
	Info(ctx context.Context) (*model.ProductInfo, error)
}

// OrderService defines operations for order management. Every operation acts
// on behalf of a principal; non-staff principals only ever see their own
// orders, and other orders are reported as not found.
type OrderService interface {
	// List retrieves the orders visible to p that match the predicates.
	List(ctx context.Context, p *auth.Principal, where []query.Predicate) ([]model.Order, error)

	// ListOwn retrieves the orders placed by p, even when p is staff.
	ListOwn(ctx context.Context, p *auth.Principal) ([]model.Order, error)

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, p *auth.Principal, id uuid.UUID) (*model.Order, error)

	// Create places a new order owned by p.
	Create(ctx context.Context, p *auth.Principal, req *model.OrderCreateRequest) (*model.Order, error)

	// Update changes the status of an order.
	Update(ctx context.Context, p *auth.Principal, id uuid.UUID, req *model.OrderUpdateRequest) (*model.Order, error)

	// Delete removes an order and its items.
	Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error
}

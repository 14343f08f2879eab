package repository

import (
	"context"

	"storefront/internal/model"
	"storefront/internal/query"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// List retrieves the products matching spec.
	List(ctx context.Context, spec query.Spec) ([]model.Product, error)

	// Count returns the number of products matching the predicates.
	Count(ctx context.Context, where []query.Predicate) (int, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDs retrieves the products among ids that exist.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	// Create inserts p and sets its ID.
	Create(ctx context.Context, p *model.Product) error

	// Update overwrites every mutable column of p.
	Update(ctx context.Context, p *model.Product) error

	// Delete removes a product. Products still referenced by order items
	// cannot be deleted.
	Delete(ctx context.Context, id int64) error

	// Snapshot returns every product and the maximum price from one
	// consistent read. maxPrice is nil when there are no products.
	Snapshot(ctx context.Context) (products []model.Product, maxPrice *decimal.Decimal, err error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction and
	// sets its creation time.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts order items within the provided transaction
	// and sets their IDs.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// List retrieves the orders matching spec together with their items.
	List(ctx context.Context, spec query.Spec) ([]model.Order, error)

	// GetByID retrieves an order with its items. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// UpdateStatus changes the status of an order.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error

	// Delete removes an order and, by cascade, its items.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	// GetByID retrieves a user by ID. Returns nil when absent.
	GetByID(ctx context.Context, id int64) (*model.User, error)

	// GetByUsername retrieves a user by username. Returns nil when absent.
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// Upsert creates the user, or replaces the password and staff flag of an
	// existing user with the same username, and sets u.ID.
	Upsert(ctx context.Context, u *model.User) error
}

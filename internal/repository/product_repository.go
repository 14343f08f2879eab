package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/query"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// foreignKeyViolation is the PostgreSQL SQLSTATE for a foreign key violation.
const foreignKeyViolation = "23503"

const productColumns = "id, name, description, price, stock"

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// List retrieves the products matching spec, ordered by id when no other
// ordering is requested.
func (r *productRepository) List(ctx context.Context, spec query.Spec) ([]model.Product, error) {
	args := &query.Args{}
	sql := "SELECT " + productColumns + " FROM products" +
		query.Where(spec.Where, args) +
		query.OrderBy(spec.OrderBy, "id") +
		spec.Page(args)

	rows, err := r.pool.Query(ctx, sql, args.Values()...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan product rows")
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}

	return products, nil
}

// Count returns the number of products matching the predicates.
func (r *productRepository) Count(ctx context.Context, where []query.Predicate) (int, error) {
	args := &query.Args{}
	sql := "SELECT COUNT(*) FROM products" + query.Where(where, args)

	var count int
	if err := r.pool.QueryRow(ctx, sql, args.Values()...).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return count, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	p, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to scan product")
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	return p, nil
}

// GetByIDs retrieves the products among ids that exist.
func (r *productRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	rows, err := r.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ANY($1) ORDER BY id", ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan product rows")
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}

	return products, nil
}

// Create inserts p and sets its ID.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	sql := `
		INSERT INTO products (name, description, price, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if err := r.pool.QueryRow(ctx, sql, p.Name, p.Description, p.Price, p.Stock).Scan(&p.ID); err != nil {
		r.logger.Error().Err(err).Str("name", p.Name).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Int64("product_id", p.ID).Msg("product created")
	return nil
}

// Update overwrites every mutable column of p.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	sql := `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, sql, p.ID, p.Name, p.Description, p.Price, p.Stock)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", p.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// Delete removes a product unless order items still reference it.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			r.logger.Debug().Int64("product_id", id).Msg("product is referenced by orders")
			return model.ErrProductInUse
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// Snapshot reads the full catalogue and its maximum price inside a single
// read-only repeatable-read transaction so both agree.
func (r *productRepository) Snapshot(ctx context.Context) ([]model.Product, *decimal.Decimal, error) {
	var (
		products []model.Product
		maxPrice decimal.NullDecimal
	)

	txOpts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, r.pool, txOpts, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
		if err != nil {
			return err
		}
		if products, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Product]); err != nil {
			return err
		}
		return tx.QueryRow(ctx, "SELECT MAX(price) FROM products").Scan(&maxPrice)
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read product snapshot")
		return nil, nil, fmt.Errorf("failed to read product snapshot: %w", err)
	}

	if !maxPrice.Valid {
		return products, nil, nil
	}
	return products, &maxPrice.Decimal, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/query"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List counts the matching products first so that the requested page can be
// rejected before fetching it.
func (s *productService) List(ctx context.Context, q ProductListQuery) (*ProductPage, error) {
	count, err := s.productRepo.Count(ctx, q.Where)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count products")
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	page, err := q.Page.Resolve(count)
	if err != nil {
		s.logger.Debug().Int("count", count).Msg("requested page out of range")
		return nil, err
	}

	products, err := s.productRepo.List(ctx, query.Spec{
		Where:   q.Where,
		OrderBy: q.OrderBy,
		Limit:   page.Size,
		Offset:  page.Offset(),
	})
	if err != nil {
		s.logger.Error().Err(err).
			Int("page", page.Number).
			Int("size", page.Size).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("page", page.Number).
		Int("size", page.Size).
		Msg("retrieved products")

	return &ProductPage{Products: products, Page: page}, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Create validates and stores a new product.
func (s *productService) Create(ctx context.Context, in *model.ProductInput) (*model.Product, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}

	product := &model.Product{}
	in.Apply(product)

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	metrics.ProductWritten(metrics.OperationCreate)
	s.logger.Info().Int64("product_id", product.ID).Msg("product created")

	return product, nil
}

// Update validates the input, then applies it over the stored product.
func (s *productService) Update(ctx context.Context, id int64, in *model.ProductInput, partial bool) (*model.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := in.Validate(partial); err != nil {
		return nil, err
	}
	in.Apply(product)

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	metrics.ProductWritten(metrics.OperationUpdate)
	s.logger.Info().Int64("product_id", id).Bool("partial", partial).Msg("product updated")

	return product, nil
}

// Delete removes a product that no order references.
func (s *productService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			s.logger.Debug().Err(err).Int64("product_id", id).Msg("product not deleted")
			return err
		}
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	metrics.ProductWritten(metrics.OperationDelete)
	s.logger.Info().Int64("product_id", id).Msg("product deleted")

	return nil
}

// Info returns the aggregate snapshot of the whole catalogue, recomputed on
// every call.
func (s *productService) Info(ctx context.Context) (*model.ProductInfo, error) {
	products, maxPrice, err := s.productRepo.Snapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read product snapshot")
		return nil, fmt.Errorf("failed to get product info: %w", err)
	}

	return model.NewProductInfo(products, maxPrice), nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/auth"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/query"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

func ownedBy(p *auth.Principal) query.Predicate {
	return query.Eq("user_id", p.UserID)
}

// List retrieves every order for staff and only the caller's own otherwise.
func (s *orderService) List(ctx context.Context, p *auth.Principal, where []query.Predicate) ([]model.Order, error) {
	if err := auth.Authorize(p, auth.ResourceOrder, auth.ActionRead, nil); err != nil {
		return nil, err
	}

	scoped := make([]query.Predicate, 0, len(where)+1)
	if !p.IsStaff {
		scoped = append(scoped, ownedBy(p))
	}
	scoped = append(scoped, where...)

	orders, err := s.orderRepo.List(ctx, query.Spec{Where: scoped})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", p.UserID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// ListOwn retrieves the orders placed by the caller.
func (s *orderService) ListOwn(ctx context.Context, p *auth.Principal) ([]model.Order, error) {
	if err := auth.Authorize(p, auth.ResourceOrder, auth.ActionRead, nil); err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.List(ctx, query.Spec{Where: []query.Predicate{ownedBy(p)}})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", p.UserID).Msg("failed to list user orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// GetByID retrieves an order visible to the caller.
func (s *orderService) GetByID(ctx context.Context, p *auth.Principal, id uuid.UUID) (*model.Order, error) {
	return s.load(ctx, p, id, auth.ActionRead)
}

// load fetches an order and applies the object-level policy. An order the
// caller may not access is indistinguishable from a missing one.
func (s *orderService) load(ctx context.Context, p *auth.Principal, id uuid.UUID, act auth.Action) (*model.Order, error) {
	if err := auth.Authorize(p, auth.ResourceOrder, act, nil); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	if err := auth.Authorize(p, auth.ResourceOrder, act, &order.UserID); err != nil {
		s.logger.Warn().
			Str("order_id", id.String()).
			Int64("user_id", p.UserID).
			Msg("order belongs to another user")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// Create places a new order owned by the caller. The order and its items are
// written in one transaction.
func (s *orderService) Create(ctx context.Context, p *auth.Principal, req *model.OrderCreateRequest) (*model.Order, error) {
	if err := auth.Authorize(p, auth.ResourceOrder, auth.ActionWrite, nil); err != nil {
		return nil, err
	}

	products, err := s.resolveProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order := &model.Order{
		ID:     uuid.New(),
		UserID: p.UserID,
		Status: req.Status,
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order.Items = make([]model.OrderItem, len(req.Items))
	for i, item := range req.Items {
		order.Items[i] = model.OrderItem{
			OrderID:  order.ID,
			Product:  products[item.ProductID],
			Quantity: item.Quantity,
		}
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(order.Items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	metrics.OrderCreated(string(order.Status))
	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int64("user_id", p.UserID).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	return order, nil
}

// resolveProducts loads the referenced products, reporting each item whose
// product does not exist.
func (s *orderService) resolveProducts(ctx context.Context, items []model.OrderItemRequest) (map[int64]model.Product, error) {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	found, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("product_count", len(ids)).Msg("failed to load order products")
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	products := make(map[int64]model.Product, len(found))
	for _, p := range found {
		products[p.ID] = p
	}

	verr := model.NewValidationError()
	for i, item := range items {
		if _, ok := products[item.ProductID]; !ok {
			verr.Add(fmt.Sprintf("items[%d].product", i),
				fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", item.ProductID))
		}
	}
	if err := verr.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("order references unknown products")
		return nil, err
	}

	return products, nil
}

// Update changes the status of an order the caller can access. Items and
// ownership never change.
func (s *orderService) Update(ctx context.Context, p *auth.Principal, id uuid.UUID, req *model.OrderUpdateRequest) (*model.Order, error) {
	order, err := s.load(ctx, p, id, auth.ActionWrite)
	if err != nil {
		return nil, err
	}

	if req.Status == nil || *req.Status == order.Status {
		return order, nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, *req.Status); err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(order.Status)).
		Str("to", string(*req.Status)).
		Msg("order status updated")

	order.Status = *req.Status
	return order, nil
}

// Delete removes an order the caller can access.
func (s *orderService) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if _, err := s.load(ctx, p, id, auth.ActionWrite); err != nil {
		return err
	}

	if err := s.orderRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return err
		}
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.logger.Info().Str("order_id", id.String()).Msg("order deleted")
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	aws_pkg "storefront-service/pkg/aws"
	"storefront-service/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const checkoutTokenTTL = 24 * time.Hour

type OrderService interface {
	// PlaceOrder turns the user's cart into a PENDING order. A repeated
	// checkout token returns the order created by the first submission.
	PlaceOrder(ctx context.Context, userID uuid.UUID, req *models.CheckoutRequest) (*models.Order, *apperrors.Error)
	UserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, *apperrors.Error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, *apperrors.Error)
	// GetOrderForUser enforces ownership unless isAdmin is set.
	GetOrderForUser(ctx context.Context, userID, id uuid.UUID, isAdmin bool) (*models.Order, *apperrors.Error)
	ListOrders(ctx context.Context, status models.OrderStatus, page, size int) (models.Page[models.Order], *apperrors.Error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, *apperrors.Error)
}

type orderServiceImpl struct {
	tx      repository.Transactor
	orders  repository.OrderRepository
	idem    repository.IdempotencyStore
	events  *EventEmitter
	metrics MetricsRecorder
	logger  *zap.Logger
}

// NewOrderService creates an OrderService. idem and metrics may be nil.
func NewOrderService(
	tx repository.Transactor,
	orders repository.OrderRepository,
	idem repository.IdempotencyStore,
	events *EventEmitter,
	metrics MetricsRecorder,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{tx: tx, orders: orders, idem: idem, events: events, metrics: metrics, logger: logger}
}

func (s *orderServiceImpl) PlaceOrder(ctx context.Context, userID uuid.UUID, req *models.CheckoutRequest) (*models.Order, *apperrors.Error) {
	address := strings.TrimSpace(req.ShippingAddress)
	if address == "" {
		return nil, apperrors.BadRequest("Shipping address is required")
	}
	if len(address) > 500 {
		return nil, apperrors.BadRequest("Shipping address must be at most 500 characters")
	}

	idemKey := ""
	if s.idem != nil && strings.TrimSpace(req.Token) != "" {
		idemKey = userID.String() + ":" + strings.TrimSpace(req.Token)
		ok, existing, err := s.idem.Reserve(ctx, idemKey, checkoutTokenTTL)
		switch {
		case err != nil:
			s.logger.Warn("Idempotency store unavailable, continuing without it", zap.Error(err))
			idemKey = ""
		case !ok && existing != "":
			id, parseErr := uuid.Parse(existing)
			if parseErr == nil {
				s.logger.Info("Duplicate checkout submission", zap.String("order_id", existing))
				return s.GetOrder(ctx, id)
			}
			idemKey = ""
		case !ok:
			return nil, apperrors.Conflict("Your order is already being processed")
		}
	}

	order, err := s.createFromCart(ctx, userID, address)
	if err != nil {
		if idemKey != "" {
			if relErr := s.idem.Release(context.WithoutCancel(ctx), idemKey); relErr != nil {
				s.logger.Warn("Failed to release checkout token", zap.Error(relErr))
			}
		}
		appErr := apperrors.From(err)
		if appErr.Code >= 500 {
			s.logger.Error("Checkout failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
		return nil, appErr
	}

	if idemKey != "" {
		if err := s.idem.Complete(context.WithoutCancel(ctx), idemKey, order.ID.String(), checkoutTokenTTL); err != nil {
			s.logger.Warn("Failed to record checkout token", zap.Error(err))
		}
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)
	recordCount(ctx, s.metrics, aws_pkg.MetricOrdersCreated, nil)
	recordValue(ctx, s.metrics, aws_pkg.MetricOrderValue, order.TotalAmount.InexactFloat64(), nil)
	s.events.Emit(ctx, models.EventOrderPlaced, order.ID.String(), orderEvent(order))
	return order, nil
}

// createFromCart runs the checkout transaction: lock each product row,
// snapshot prices, decrement stock and empty the cart.
func (s *orderServiceImpl) createFromCart(ctx context.Context, userID uuid.UUID, address string) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTransaction(ctx, func(repos repository.Repositories) error {
		cart, err := repos.Carts.FindByUser(ctx, userID)
		if err != nil {
			return apperrors.Internal("Failed to load cart", err)
		}
		if len(cart) == 0 {
			return apperrors.BadRequest("Cart is empty")
		}

		o := &models.Order{
			UserID:          userID,
			Status:          models.OrderStatusPending,
			ShippingAddress: address,
			OrderDate:       time.Now(),
		}
		total := decimal.Zero
		for _, item := range cart {
			p, err := repos.Products.FindByIDForUpdate(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.BadRequest(fmt.Sprintf("Product %s is not available or insufficient stock", item.Product.Name))
				}
				return apperrors.Internal("Failed to load product", err)
			}
			if !p.IsAvailable(item.Quantity) {
				return apperrors.BadRequest(fmt.Sprintf("Product %s is not available or insufficient stock", p.Name))
			}
			line := models.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    item.Quantity,
				Price:       p.Price,
			}
			total = total.Add(line.Subtotal())
			o.Items = append(o.Items, line)
		}
		o.TotalAmount = total

		if err := repos.Orders.Create(ctx, o); err != nil {
			return apperrors.Internal("Failed to create order", err)
		}
		for _, line := range o.Items {
			if err := repos.Products.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.BadRequest(fmt.Sprintf("Product %s is not available or insufficient stock", line.ProductName))
				}
				return apperrors.Internal("Failed to update stock", err)
			}
		}
		if err := repos.Carts.DeleteByUser(ctx, userID); err != nil {
			return apperrors.Internal("Failed to clear cart", err)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderServiceImpl) UserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, *apperrors.Error) {
	orders, err := s.orders.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load orders", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to load orders", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, *apperrors.Error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.Internal("Failed to load order", err)
	}
	return order, nil
}

func (s *orderServiceImpl) GetOrderForUser(ctx context.Context, userID, id uuid.UUID, isAdmin bool) (*models.Order, *apperrors.Error) {
	order, appErr := s.GetOrder(ctx, id)
	if appErr != nil {
		return nil, appErr
	}
	if !isAdmin && order.UserID != userID {
		return nil, apperrors.Forbidden("Unauthorized access to order")
	}
	return order, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, status models.OrderStatus, page, size int) (models.Page[models.Order], *apperrors.Error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultAdminPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	orders, total, err := s.orders.List(ctx, status, page, size)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return models.Page[models.Order]{}, apperrors.Internal("Failed to load orders", err)
	}
	return models.NewPage(orders, page, size, total), nil
}

// UpdateStatus lets an admin move an order to any status.
func (s *orderServiceImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, *apperrors.Error) {
	if _, ok := models.ParseOrderStatus(string(status)); !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("Unknown order status: %s", status))
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.Internal("Failed to update order status", err)
	}
	order, appErr := s.GetOrder(ctx, id)
	if appErr != nil {
		return nil, appErr
	}
	s.logger.Info("Order status updated", zap.String("order_id", id.String()), zap.String("status", string(status)))
	s.events.Emit(ctx, models.EventOrderStatus, order.ID.String(), orderEvent(order))
	return order, nil
}

func orderEvent(o *models.Order) models.OrderEvent {
	return models.OrderEvent{
		OrderID:     o.ID.String(),
		UserID:      o.UserID.String(),
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		ItemCount:   len(o.Items),
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	aws_pkg "storefront-service/pkg/aws"
	"storefront-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const refundResponse = "Payment refunded successfully"

var errOrderNotPending = errors.New("order is not awaiting payment")

type PaymentService interface {
	// ProcessPayment charges a PENDING order owned by userID. A declined
	// charge is returned as a FAILED payment, not as an error.
	ProcessPayment(ctx context.Context, userID, orderID uuid.UUID, method models.PaymentMethod, details string) (*models.Payment, *apperrors.Error)
	GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, *apperrors.Error)
	GetPaymentByTransaction(ctx context.Context, transactionID string) (*models.Payment, *apperrors.Error)
	ListPayments(ctx context.Context, status models.PaymentStatus) ([]models.Payment, *apperrors.Error)
	RefundPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, *apperrors.Error)
}

type paymentServiceImpl struct {
	tx       repository.Transactor
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	gateway  *PaymentSimulator
	events   *EventEmitter
	metrics  MetricsRecorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewPaymentService(
	tx repository.Transactor,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	gateway *PaymentSimulator,
	events *EventEmitter,
	metrics MetricsRecorder,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		tx:       tx,
		orders:   orders,
		payments: payments,
		gateway:  gateway,
		events:   events,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *paymentServiceImpl) ProcessPayment(ctx context.Context, userID, orderID uuid.UUID, method models.PaymentMethod, details string) (*models.Payment, *apperrors.Error) {
	if _, ok := models.ParsePaymentMethod(string(method)); !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("Unsupported payment method: %s", method))
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.Internal("Failed to load order", err)
	}
	if order.UserID != userID {
		return nil, apperrors.Forbidden("Unauthorized access to order")
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperrors.BadRequest("Order is not awaiting payment")
	}

	payment := &models.Payment{
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		Method:        method,
		Status:        models.PaymentStatusProcessing,
		TransactionID: NewTransactionID(),
	}

	// The status is checked again under the row lock so concurrent
	// submissions for one order charge it at most once.
	err = s.tx.WithTransaction(ctx, func(repos repository.Repositories) error {
		current, err := repos.Orders.FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}
		if current.Status != models.OrderStatusPending {
			return errOrderNotPending
		}

		result := s.gateway.Charge(method, details)
		processedAt := s.now()
		payment.Status = result.Status
		payment.GatewayResponse = result.GatewayResponse
		payment.WalletType = result.WalletType
		payment.WalletAccount = result.WalletAccount
		payment.CardLastFour = result.CardLastFour
		payment.CardType = result.CardType
		payment.ProcessedAt = &processedAt

		if err := repos.Payments.Create(ctx, payment); err != nil {
			return err
		}
		if payment.IsSuccessful() {
			return repos.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusConfirmed)
		}
		return nil
	})
	if errors.Is(err, errOrderNotPending) {
		return nil, apperrors.BadRequest("Order is not awaiting payment")
	}
	if err != nil {
		s.logger.Error("Failed to record payment", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, apperrors.Internal("Payment processing failed", err)
	}

	fields := []zap.Field{
		zap.String("order_id", order.ID.String()),
		zap.String("transaction_id", payment.TransactionID),
		zap.String("method", string(method)),
		zap.String("status", string(payment.Status)),
	}
	if payment.IsSuccessful() {
		order.Status = models.OrderStatusConfirmed
		s.logger.Info("Payment completed", fields...)
		recordCount(ctx, s.metrics, aws_pkg.MetricPaymentSucceeded, map[string]string{"Method": string(method)})
		s.events.Emit(ctx, models.EventPaymentCompleted, order.ID.String(), paymentEvent(payment))
	} else {
		s.logger.Warn("Payment failed", fields...)
		recordCount(ctx, s.metrics, aws_pkg.MetricPaymentFailed, map[string]string{"Method": string(method)})
		s.events.Emit(ctx, models.EventPaymentFailed, order.ID.String(), paymentEvent(payment))
	}
	payment.Order = *order
	return payment, nil
}

// GetPaymentByOrder returns the latest attempt for the order.
func (s *paymentServiceImpl) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, *apperrors.Error) {
	p, err := s.payments.FindLatestByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Payment not found")
		}
		return nil, apperrors.Internal("Failed to load payment", err)
	}
	return p, nil
}

func (s *paymentServiceImpl) GetPaymentByTransaction(ctx context.Context, transactionID string) (*models.Payment, *apperrors.Error) {
	p, err := s.payments.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Payment not found")
		}
		return nil, apperrors.Internal("Failed to load payment", err)
	}
	return p, nil
}

// ListPayments filters by status; an empty status lists every payment.
func (s *paymentServiceImpl) ListPayments(ctx context.Context, status models.PaymentStatus) ([]models.Payment, *apperrors.Error) {
	payments, err := s.payments.FindByStatus(ctx, status)
	if err != nil {
		s.logger.Error("Failed to list payments", zap.Error(err))
		return nil, apperrors.Internal("Failed to load payments", err)
	}
	return payments, nil
}

func (s *paymentServiceImpl) RefundPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, *apperrors.Error) {
	p, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Payment not found")
		}
		return nil, apperrors.Internal("Failed to load payment", err)
	}
	if p.Status != models.PaymentStatusCompleted {
		return nil, apperrors.BadRequest("Can only refund completed payments")
	}

	p.Status = models.PaymentStatusRefunded
	p.GatewayResponse = refundResponse
	if err := s.payments.Save(ctx, p); err != nil {
		s.logger.Error("Failed to refund payment", zap.String("payment_id", paymentID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to refund payment", err)
	}

	s.logger.Info("Payment refunded", zap.String("payment_id", p.ID.String()), zap.String("transaction_id", p.TransactionID))
	recordCount(ctx, s.metrics, aws_pkg.MetricPaymentRefunded, nil)
	s.events.Emit(ctx, models.EventPaymentRefunded, p.OrderID.String(), paymentEvent(p))
	return p, nil
}

func paymentEvent(p *models.Payment) models.PaymentEvent {
	return models.PaymentEvent{
		PaymentID:     p.ID.String(),
		OrderID:       p.OrderID.String(),
		TransactionID: p.TransactionID,
		Method:        p.Method,
		Status:        p.Status,
		Amount:        p.Amount,
	}
}

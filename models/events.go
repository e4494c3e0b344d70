package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced      = "OrderPlaced"
	EventOrderStatus      = "OrderStatusChanged"
	EventPaymentCompleted = "PaymentCompleted"
	EventPaymentFailed    = "PaymentFailed"
	EventPaymentRefunded  = "PaymentRefunded"
	EventReviewAdded      = "ReviewAdded"
)

// Event is the envelope published to SNS or Kafka.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type OrderEvent struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	Status      OrderStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

type PaymentEvent struct {
	PaymentID     string          `json:"payment_id"`
	OrderID       string          `json:"order_id"`
	TransactionID string          `json:"transaction_id"`
	Method        PaymentMethod   `json:"payment_method"`
	Status        PaymentStatus   `json:"payment_status"`
	Amount        decimal.Decimal `json:"amount"`
}

type ReviewEvent struct {
	ReviewID         string `json:"review_id"`
	ProductID        string `json:"product_id"`
	UserID           string `json:"user_id"`
	Rating           int    `json:"rating"`
	VerifiedPurchase bool   `json:"verified_purchase"`
}

type DashboardStats struct {
	TotalProducts int64
	TotalUsers    int64
	TotalOrders   int64
	PendingOrders int64
	RecentOrders  []Order
}

// AllModels lists every table for AutoMigrate.
func AllModels() []any {
	return []any{&User{}, &Product{}, &CartItem{}, &Order{}, &OrderItem{}, &Payment{}, &Review{}}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard    PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard     PaymentMethod = "DEBIT_CARD"
	PaymentMethodDigitalWallet PaymentMethod = "DIGITAL_WALLET"
	PaymentMethodPayPal        PaymentMethod = "PAYPAL"
	PaymentMethodApplePay      PaymentMethod = "APPLE_PAY"
	PaymentMethodGooglePay     PaymentMethod = "GOOGLE_PAY"
)

var paymentMethodNames = map[PaymentMethod]string{
	PaymentMethodCreditCard:    "Credit Card",
	PaymentMethodDebitCard:     "Debit Card",
	PaymentMethodDigitalWallet: "Digital Wallet",
	PaymentMethodPayPal:        "PayPal",
	PaymentMethodApplePay:      "Apple Pay",
	PaymentMethodGooglePay:     "Google Pay",
}

func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodDigitalWallet,
		PaymentMethodPayPal, PaymentMethodApplePay, PaymentMethodGooglePay,
	}
}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(s)
	_, ok := paymentMethodNames[m]
	return m, ok
}

func (m PaymentMethod) DisplayName() string {
	if n, ok := paymentMethodNames[m]; ok {
		return n
	}
	return string(m)
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCancelled  PaymentStatus = "CANCELLED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

var paymentStatusNames = map[PaymentStatus]string{
	PaymentStatusPending:    "Pending",
	PaymentStatusProcessing: "Processing",
	PaymentStatusCompleted:  "Completed",
	PaymentStatusFailed:     "Failed",
	PaymentStatusCancelled:  "Cancelled",
	PaymentStatusRefunded:   "Refunded",
}

func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{
		PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded,
	}
}

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	st := PaymentStatus(s)
	_, ok := paymentStatusNames[st]
	return st, ok
}

func (s PaymentStatus) DisplayName() string {
	if n, ok := paymentStatusNames[s]; ok {
		return n
	}
	return string(s)
}

// Payment is one simulated payment attempt for an order. Only masked account
// data is stored.
type Payment struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Order           Order           `gorm:"foreignKey:OrderID" json:"-"`
	Amount          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Method          PaymentMethod   `gorm:"column:payment_method;type:varchar(20);not null" json:"payment_method"`
	Status          PaymentStatus   `gorm:"column:payment_status;type:varchar(20);not null;default:'PENDING';index" json:"payment_status"`
	TransactionID   string          `gorm:"size:32;uniqueIndex;not null" json:"transaction_id"`
	GatewayResponse string          `gorm:"size:255" json:"gateway_response"`
	WalletType      string          `gorm:"size:50" json:"wallet_type,omitempty"`
	WalletAccount   string          `gorm:"size:255" json:"wallet_account,omitempty"`
	CardLastFour    string          `gorm:"size:4" json:"card_last_four,omitempty"`
	CardType        string          `gorm:"size:30" json:"card_type,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Payment) IsSuccessful() bool {
	return p.Status == PaymentStatusCompleted
}

type PaymentRequest struct {
	PaymentMethod  string `form:"paymentMethod" validate:"required"`
	PaymentDetails string `form:"paymentDetails" validate:"required,max=255"`
}

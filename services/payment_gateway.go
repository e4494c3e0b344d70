package services

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"storefront-service/models"

	"github.com/google/uuid"
)

// RandomSource is the subset of *rand.Rand the simulator needs.
type RandomSource interface {
	Float64() float64
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }
func (globalRandom) IntN(n int) int   { return rand.IntN(n) }

// lockedRandom makes a seeded *rand.Rand safe for concurrent use.
type lockedRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewSeededRandom(seed uint64) RandomSource {
	return &lockedRandom{r: rand.New(rand.NewPCG(seed, seed))}
}

func (l *lockedRandom) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRandom) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// ChargeResult is the outcome of one simulated gateway call.
type ChargeResult struct {
	Status          models.PaymentStatus
	GatewayResponse string
	WalletType      string
	WalletAccount   string
	CardLastFour    string
	CardType        string
}

// PaymentSimulator stands in for a real payment gateway. Each charge succeeds
// with probability successRate.
type PaymentSimulator struct {
	successRate float64
	random      RandomSource
}

func NewPaymentSimulator(successRate float64, random RandomSource) *PaymentSimulator {
	if random == nil {
		random = globalRandom{}
	}
	if successRate < 0 {
		successRate = 0
	}
	if successRate > 1 {
		successRate = 1
	}
	return &PaymentSimulator{successRate: successRate, random: random}
}

func (g *PaymentSimulator) succeeded() bool {
	return g.random.Float64() < g.successRate
}

// Charge simulates a payment with the given method. details is parsed per
// method and only masked values are returned.
func (g *PaymentSimulator) Charge(method models.PaymentMethod, details string) ChargeResult {
	var res ChargeResult
	ok := g.succeeded()

	switch method {
	case models.PaymentMethodDigitalWallet:
		parts := strings.Split(details, ":")
		if len(parts) == 2 {
			res.WalletType = parts[0]
			res.WalletAccount = maskAccount(parts[1])
		}
		res.GatewayResponse = pick(ok,
			"Digital wallet payment successful via "+res.WalletType,
			"Digital wallet payment failed - insufficient funds")

	case models.PaymentMethodPayPal:
		res.WalletType = "PayPal"
		res.WalletAccount = maskEmail(details)
		res.GatewayResponse = pick(ok, "PayPal payment successful", "PayPal payment failed - account verification required")

	case models.PaymentMethodApplePay:
		res.WalletType = "Apple Pay"
		res.WalletAccount = maskAccount(details)
		res.GatewayResponse = pick(ok, "Apple Pay payment successful - Touch ID verified", "Apple Pay payment failed - authentication failed")

	case models.PaymentMethodGooglePay:
		res.WalletType = "Google Pay"
		res.WalletAccount = maskAccount(details)
		res.GatewayResponse = pick(ok, "Google Pay payment successful - Fingerprint verified", "Google Pay payment failed - network error")

	default:
		// card: number:mm:yy:cvv
		number := strings.SplitN(details, ":", 2)[0]
		res.CardLastFour = lastFour(number)
		res.CardType = detectCardType(number)
		if ok {
			res.GatewayResponse = fmt.Sprintf("Card payment successful - Authorization: %06d", g.random.IntN(1000000))
		} else {
			res.GatewayResponse = "Card payment failed - declined by issuer"
		}
	}

	if ok {
		res.Status = models.PaymentStatusCompleted
	} else {
		res.Status = models.PaymentStatusFailed
	}
	return res
}

func pick(ok bool, success, failure string) string {
	if ok {
		return success
	}
	return failure
}

// NewTransactionID returns TXN- followed by 8 upper-case hex characters.
func NewTransactionID() string {
	return "TXN-" + strings.ToUpper(uuid.NewString()[:8])
}

// maskAccount keeps the last four characters.
func maskAccount(account string) string {
	if len(account) <= 4 {
		return account
	}
	return strings.Repeat("*", len(account)-4) + account[len(account)-4:]
}

// maskEmail keeps the first two characters of the local part.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 2 {
		return email
	}
	return email[:2] + strings.Repeat("*", at-2) + email[at:]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func lastFour(cardNumber string) string {
	d := digitsOnly(cardNumber)
	if len(d) < 4 {
		return d
	}
	return d[len(d)-4:]
}

func detectCardType(cardNumber string) string {
	d := digitsOnly(cardNumber)
	if d == "" {
		return "Unknown"
	}
	switch d[0] {
	case '4':
		return "Visa"
	case '5', '2':
		return "Mastercard"
	case '3':
		return "American Express"
	case '6':
		return "Discover"
	default:
		return "Unknown"
	}
}

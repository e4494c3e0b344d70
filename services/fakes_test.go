package services_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront-service/models"
	"storefront-service/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// --- In-memory repositories ---

type memUsers struct {
	repository.UserRepository
	byID map[uuid.UUID]*models.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uuid.UUID]*models.User{}} }

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.FindByUsername(ctx, username)
	return err == nil, nil
}

func (m *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) Count(context.Context) (int64, error) { return int64(len(m.byID)), nil }

type memProducts struct {
	repository.ProductRepository
	byID map[uuid.UUID]*models.Product
}

func newMemProducts(ps ...*models.Product) *memProducts {
	m := &memProducts{byID: map[uuid.UUID]*models.Product{}}
	for _, p := range ps {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.byID[p.ID] = p
	return nil
}

func (m *memProducts) Update(_ context.Context, p *models.Product) error {
	m.byID[p.ID] = p
	return nil
}

func (m *memProducts) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := m.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memProducts) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return m.FindByID(ctx, id)
}

func (m *memProducts) List(_ context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	var all []models.Product
	for _, p := range m.byID {
		if !q.IncludeInactive && !p.Active {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := int64(len(all))
	start := q.Page * q.Size
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *memProducts) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	p, ok := m.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Active = active
	return nil
}

func (m *memProducts) UpdateStock(_ context.Context, id uuid.UUID, quantity int) error {
	p, ok := m.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StockQuantity = quantity
	return nil
}

func (m *memProducts) DecrementStock(_ context.Context, id uuid.UUID, quantity int) error {
	p, ok := m.byID[id]
	if !ok || p.StockQuantity < quantity {
		return gorm.ErrRecordNotFound
	}
	p.StockQuantity -= quantity
	return nil
}

func (m *memProducts) CountActive(context.Context) (int64, error) {
	var n int64
	for _, p := range m.byID {
		if p.Active {
			n++
		}
	}
	return n, nil
}

type memCarts struct {
	repository.CartRepository
	items    []*models.CartItem
	products *memProducts
}

func (m *memCarts) withProduct(it *models.CartItem) models.CartItem {
	cp := *it
	if p, ok := m.products.byID[it.ProductID]; ok {
		cp.Product = *p
	}
	return cp
}

func (m *memCarts) FindByUser(_ context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	for _, it := range m.items {
		if it.UserID == userID {
			out = append(out, m.withProduct(it))
		}
	}
	return out, nil
}

func (m *memCarts) FindByID(_ context.Context, id uuid.UUID) (*models.CartItem, error) {
	for _, it := range m.items {
		if it.ID == id {
			cp := m.withProduct(it)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCarts) FindByUserAndProduct(_ context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	for _, it := range m.items {
		if it.UserID == userID && it.ProductID == productID {
			cp := m.withProduct(it)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCarts) Create(_ context.Context, item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cp := *item
	m.items = append(m.items, &cp)
	return nil
}

func (m *memCarts) UpdateQuantity(_ context.Context, id uuid.UUID, quantity int) error {
	for _, it := range m.items {
		if it.ID == id {
			it.Quantity = quantity
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memCarts) Delete(_ context.Context, id uuid.UUID) error {
	for i, it := range m.items {
		if it.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memCarts) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	kept := m.items[:0]
	for _, it := range m.items {
		if it.UserID != userID {
			kept = append(kept, it)
		}
	}
	m.items = kept
	return nil
}

func (m *memCarts) CountQuantity(_ context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, it := range m.items {
		if it.UserID == userID {
			n += it.Quantity
		}
	}
	return n, nil
}

type memOrders struct {
	repository.OrderRepository
	byID map[uuid.UUID]*models.Order
}

func newMemOrders() *memOrders { return &memOrders{byID: map[uuid.UUID]*models.Order{}} }

func (m *memOrders) Create(_ context.Context, o *models.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	m.byID[o.ID] = o
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if o, ok := m.byID[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memOrders) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return m.FindByID(ctx, id)
}

func (m *memOrders) FindByUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

func (m *memOrders) List(_ context.Context, status models.OrderStatus, page, size int) ([]models.Order, int64, error) {
	var out []models.Order
	for _, o := range m.byID {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	total := int64(len(out))
	start := page * size
	if start > len(out) {
		start = len(out)
	}
	end := start + size
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (m *memOrders) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range m.byID {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id uuid.UUID, status models.OrderStatus) error {
	o, ok := m.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	return nil
}

func (m *memOrders) Count(context.Context) (int64, error) { return int64(len(m.byID)), nil }

func (m *memOrders) CountByStatus(_ context.Context, status models.OrderStatus) (int64, error) {
	var n int64
	for _, o := range m.byID {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memOrders) HasOrderWithProduct(_ context.Context, userID, productID uuid.UUID, status models.OrderStatus) (bool, error) {
	for _, o := range m.byID {
		if o.UserID == userID && o.Status == status && o.ContainsProduct(productID) {
			return true, nil
		}
	}
	return false, nil
}

type memPayments struct {
	repository.PaymentRepository
	byID map[uuid.UUID]*models.Payment
}

func newMemPayments() *memPayments { return &memPayments{byID: map[uuid.UUID]*models.Payment{}} }

func (m *memPayments) Create(_ context.Context, p *models.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPayments) Save(_ context.Context, p *models.Payment) error {
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPayments) FindByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	if p, ok := m.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memPayments) FindLatestByOrder(_ context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var latest *models.Payment
	for _, p := range m.byID {
		if p.OrderID == orderID && (latest == nil || p.CreatedAt.After(latest.CreatedAt)) {
			latest = p
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memPayments) FindByTransactionID(_ context.Context, txn string) (*models.Payment, error) {
	for _, p := range m.byID {
		if p.TransactionID == txn {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memPayments) FindByStatus(_ context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range m.byID {
		if status == "" || p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

type memReviews struct {
	repository.ReviewRepository
	byID map[uuid.UUID]*models.Review
}

func newMemReviews() *memReviews { return &memReviews{byID: map[uuid.UUID]*models.Review{}} }

func (m *memReviews) Create(_ context.Context, r *models.Review) error {
	for _, existing := range m.byID {
		if existing.ProductID == r.ProductID && existing.UserID == r.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	cp := *r
	m.byID[r.ID] = &cp
	return nil
}

func (m *memReviews) Update(_ context.Context, r *models.Review) error {
	stored, ok := m.byID[r.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Rating = r.Rating
	stored.ReviewText = r.ReviewText
	return nil
}

func (m *memReviews) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.byID, id)
	return nil
}

func (m *memReviews) FindByID(_ context.Context, id uuid.UUID) (*models.Review, error) {
	if r, ok := m.byID[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memReviews) FindByProductAndUser(_ context.Context, productID, userID uuid.UUID) (*models.Review, error) {
	for _, r := range m.byID {
		if r.ProductID == productID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memReviews) RatingCounts(_ context.Context, productID uuid.UUID) (map[int]int64, error) {
	counts := map[int]int64{}
	for _, r := range m.byID {
		if r.ProductID == productID {
			counts[r.Rating]++
		}
	}
	return counts, nil
}

func (m *memReviews) IncrementHelpful(_ context.Context, id uuid.UUID) (int, error) {
	r, ok := m.byID[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	r.HelpfulCount++
	return r.HelpfulCount, nil
}

// memStore bundles the fakes so a transaction sees the same data.
type memStore struct {
	users    *memUsers
	products *memProducts
	carts    *memCarts
	orders   *memOrders
	payments *memPayments
	reviews  *memReviews
}

func newMemStore(products ...*models.Product) *memStore {
	ps := newMemProducts(products...)
	return &memStore{
		users:    newMemUsers(),
		products: ps,
		carts:    &memCarts{products: ps},
		orders:   newMemOrders(),
		payments: newMemPayments(),
		reviews:  newMemReviews(),
	}
}

func (s *memStore) repos() repository.Repositories {
	return repository.Repositories{
		Users:    s.users,
		Products: s.products,
		Carts:    s.carts,
		Orders:   s.orders,
		Payments: s.payments,
		Reviews:  s.reviews,
	}
}

// WithTransaction does not roll back; tests assert on the error path only
// where nothing was written before the failure.
func (s *memStore) WithTransaction(_ context.Context, fn func(repository.Repositories) error) error {
	return fn(s.repos())
}

// --- Idempotency store ---

type memIdempotency struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMemIdempotency() *memIdempotency { return &memIdempotency{values: map[string]string{}} }

func (m *memIdempotency) Reserve(_ context.Context, key string, _ time.Duration) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, "", m.err
	}
	if v, ok := m.values[key]; ok {
		return false, v, nil
	}
	m.values[key] = ""
	return true, "", nil
}

func (m *memIdempotency) Complete(_ context.Context, key, orderID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = orderID
	return nil
}

func (m *memIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// --- Publisher and metrics ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, message []byte) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingMetrics() *countingMetrics { return &countingMetrics{counts: map[string]int{}} }

func (c *countingMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
	return nil
}

func (c *countingMetrics) RecordValue(_ context.Context, name string, _ float64, _ map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
	return nil
}

// fixedRandom returns the same values on every call.
type fixedRandom struct {
	f float64
	n int
}

func (r fixedRandom) Float64() float64 { return r.f }
func (r fixedRandom) IntN(int) int     { return r.n }

// --- Fixtures ---

func product(name, price string, stock int, active bool) *models.Product {
	return &models.Product{
		ID:            uuid.New(),
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		Category:      models.CategoryElectronics,
		Active:        active,
	}
}

package controllers

import (
	"context"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func appErr(args mock.Arguments, i int) *apperrors.Error {
	if e, ok := args.Get(i).(*apperrors.Error); ok {
		return e
	}
	return nil
}

// --- AuthService ---
type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, *apperrors.Error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*models.User)
	return u, appErr(args, 1)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*models.User, string, *apperrors.Error) {
	args := m.Called(ctx, username, password)
	u, _ := args.Get(0).(*models.User)
	return u, args.String(1), appErr(args, 2)
}

func (m *MockAuthService) GetUser(ctx context.Context, claims *services.SessionClaims) (*models.User, *apperrors.Error) {
	args := m.Called(ctx, claims)
	u, _ := args.Get(0).(*models.User)
	return u, appErr(args, 1)
}

// --- ProductService ---
type MockProductService struct{ mock.Mock }

func (m *MockProductService) ListProducts(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], *apperrors.Error) {
	args := m.Called(ctx, q)
	return args.Get(0).(models.Page[models.Product]), appErr(args, 1)
}

func (m *MockProductService) ListAllProducts(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], *apperrors.Error) {
	args := m.Called(ctx, q)
	return args.Get(0).(models.Page[models.Product]), appErr(args, 1)
}

func (m *MockProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, *apperrors.Error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, appErr(args, 1)
}

func (m *MockProductService) FindActive(ctx context.Context, category models.Category, search string) ([]models.Product, *apperrors.Error) {
	args := m.Called(ctx, category, search)
	p, _ := args.Get(0).([]models.Product)
	return p, appErr(args, 1)
}

func (m *MockProductService) InStock(ctx context.Context) ([]models.Product, *apperrors.Error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]models.Product)
	return p, appErr(args, 1)
}

func (m *MockProductService) CreateProduct(ctx context.Context, form *models.ProductForm) (*models.Product, *apperrors.Error) {
	args := m.Called(ctx, form)
	p, _ := args.Get(0).(*models.Product)
	return p, appErr(args, 1)
}

func (m *MockProductService) UpdateProduct(ctx context.Context, id uuid.UUID, form *models.ProductForm) (*models.Product, *apperrors.Error) {
	args := m.Called(ctx, id, form)
	p, _ := args.Get(0).(*models.Product)
	return p, appErr(args, 1)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, id uuid.UUID) *apperrors.Error {
	return appErr(m.Called(ctx, id), 0)
}

func (m *MockProductService) ToggleStatus(ctx context.Context, id uuid.UUID) (*models.Product, *apperrors.Error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, appErr(args, 1)
}

func (m *MockProductService) UpdateStock(ctx context.Context, id uuid.UUID, quantity int) *apperrors.Error {
	return appErr(m.Called(ctx, id, quantity), 0)
}

func (m *MockProductService) PresignImageUpload(ctx context.Context, filename, contentType string) (*services.ImageUpload, *apperrors.Error) {
	args := m.Called(ctx, filename, contentType)
	u, _ := args.Get(0).(*services.ImageUpload)
	return u, appErr(args, 1)
}

// --- CartService ---
type MockCartService struct{ mock.Mock }

func (m *MockCartService) GetCart(ctx context.Context, userID uuid.UUID) (*services.CartSummary, *apperrors.Error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*services.CartSummary)
	return s, appErr(args, 1)
}

func (m *MockCartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, *apperrors.Error) {
	args := m.Called(ctx, userID, productID, quantity)
	it, _ := args.Get(0).(*models.CartItem)
	return it, appErr(args, 1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) *apperrors.Error {
	return appErr(m.Called(ctx, userID, itemID, quantity), 0)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) *apperrors.Error {
	return appErr(m.Called(ctx, userID, itemID), 0)
}

func (m *MockCartService) ClearCart(ctx context.Context, userID uuid.UUID) *apperrors.Error {
	return appErr(m.Called(ctx, userID), 0)
}

func (m *MockCartService) CountItems(ctx context.Context, userID uuid.UUID) (int, *apperrors.Error) {
	args := m.Called(ctx, userID)
	return args.Int(0), appErr(args, 1)
}

// --- OrderService ---
type MockOrderService struct{ mock.Mock }

func (m *MockOrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req *models.CheckoutRequest) (*models.Order, *apperrors.Error) {
	args := m.Called(ctx, userID, req)
	o, _ := args.Get(0).(*models.Order)
	return o, appErr(args, 1)
}

func (m *MockOrderService) UserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, *apperrors.Error) {
	args := m.Called(ctx, userID)
	o, _ := args.Get(0).([]models.Order)
	return o, appErr(args, 1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, *apperrors.Error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*models.Order)
	return o, appErr(args, 1)
}

func (m *MockOrderService) GetOrderForUser(ctx context.Context, userID, id uuid.UUID, isAdmin bool) (*models.Order, *apperrors.Error) {
	args := m.Called(ctx, userID, id, isAdmin)
	o, _ := args.Get(0).(*models.Order)
	return o, appErr(args, 1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, status models.OrderStatus, page, size int) (models.Page[models.Order], *apperrors.Error) {
	args := m.Called(ctx, status, page, size)
	return args.Get(0).(models.Page[models.Order]), appErr(args, 1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, *apperrors.Error) {
	args := m.Called(ctx, id, status)
	o, _ := args.Get(0).(*models.Order)
	return o, appErr(args, 1)
}

// --- PaymentService ---
type MockPaymentService struct{ mock.Mock }

func (m *MockPaymentService) ProcessPayment(ctx context.Context, userID, orderID uuid.UUID, method models.PaymentMethod, details string) (*models.Payment, *apperrors.Error) {
	args := m.Called(ctx, userID, orderID, method, details)
	p, _ := args.Get(0).(*models.Payment)
	return p, appErr(args, 1)
}

func (m *MockPaymentService) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, *apperrors.Error) {
	args := m.Called(ctx, orderID)
	p, _ := args.Get(0).(*models.Payment)
	return p, appErr(args, 1)
}

func (m *MockPaymentService) GetPaymentByTransaction(ctx context.Context, transactionID string) (*models.Payment, *apperrors.Error) {
	args := m.Called(ctx, transactionID)
	p, _ := args.Get(0).(*models.Payment)
	return p, appErr(args, 1)
}

func (m *MockPaymentService) ListPayments(ctx context.Context, status models.PaymentStatus) ([]models.Payment, *apperrors.Error) {
	args := m.Called(ctx, status)
	p, _ := args.Get(0).([]models.Payment)
	return p, appErr(args, 1)
}

func (m *MockPaymentService) RefundPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, *apperrors.Error) {
	args := m.Called(ctx, paymentID)
	p, _ := args.Get(0).(*models.Payment)
	return p, appErr(args, 1)
}

// --- ReviewService ---
type MockReviewService struct{ mock.Mock }

func (m *MockReviewService) AddReview(ctx context.Context, productID, userID uuid.UUID, form *models.ReviewForm) (*models.Review, *apperrors.Error) {
	args := m.Called(ctx, productID, userID, form)
	r, _ := args.Get(0).(*models.Review)
	return r, appErr(args, 1)
}

func (m *MockReviewService) UpdateReview(ctx context.Context, reviewID, userID uuid.UUID, form *models.ReviewForm) (*models.Review, *apperrors.Error) {
	args := m.Called(ctx, reviewID, userID, form)
	r, _ := args.Get(0).(*models.Review)
	return r, appErr(args, 1)
}

func (m *MockReviewService) DeleteReview(ctx context.Context, reviewID, userID uuid.UUID, isAdmin bool) (*models.Review, *apperrors.Error) {
	args := m.Called(ctx, reviewID, userID, isAdmin)
	r, _ := args.Get(0).(*models.Review)
	return r, appErr(args, 1)
}

func (m *MockReviewService) GetReview(ctx context.Context, reviewID uuid.UUID) (*models.Review, *apperrors.Error) {
	args := m.Called(ctx, reviewID)
	r, _ := args.Get(0).(*models.Review)
	return r, appErr(args, 1)
}

func (m *MockReviewService) ProductReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, *apperrors.Error) {
	args := m.Called(ctx, productID)
	r, _ := args.Get(0).([]models.Review)
	return r, appErr(args, 1)
}

func (m *MockReviewService) UserReviews(ctx context.Context, userID uuid.UUID) ([]models.Review, *apperrors.Error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).([]models.Review)
	return r, appErr(args, 1)
}

func (m *MockReviewService) UserReviewForProduct(ctx context.Context, productID, userID uuid.UUID) (*models.Review, *apperrors.Error) {
	args := m.Called(ctx, productID, userID)
	r, _ := args.Get(0).(*models.Review)
	return r, appErr(args, 1)
}

func (m *MockReviewService) CanReview(ctx context.Context, productID, userID uuid.UUID) (bool, *apperrors.Error) {
	args := m.Called(ctx, productID, userID)
	return args.Bool(0), appErr(args, 1)
}

func (m *MockReviewService) Stats(ctx context.Context, productID uuid.UUID) (*models.ReviewStats, *apperrors.Error) {
	args := m.Called(ctx, productID)
	s, _ := args.Get(0).(*models.ReviewStats)
	return s, appErr(args, 1)
}

func (m *MockReviewService) MarkHelpful(ctx context.Context, reviewID uuid.UUID) (int, *apperrors.Error) {
	args := m.Called(ctx, reviewID)
	return args.Int(0), appErr(args, 1)
}

// --- AdminService ---
type MockAdminService struct{ mock.Mock }

func (m *MockAdminService) Dashboard(ctx context.Context) (*models.DashboardStats, *apperrors.Error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.DashboardStats)
	return s, appErr(args, 1)
}

package routes

import (
	"bytes"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-service/controllers"
	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const templatesGlob = "../templates/*.tmpl"

func init() {
	gin.SetMode(gin.TestMode)
}

var tokens = services.NewTokenService("routes-test-secret", time.Hour)

// newEngine wires every route with controllers whose services are unset; the
// tests below only hit handlers that never reach a service.
func newEngine(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()
	validator := controllers.NewRequestValidator()
	view := controllers.NewPageRenderer(nil, logger, false)

	h := Handlers{
		Auth:       controllers.NewAuthController(nil, time.Hour, validator, view, logger),
		Products:   controllers.NewProductController(nil, nil, view, logger),
		ProductAPI: controllers.NewProductAPIController(nil, nil, logger),
		Cart:       controllers.NewCartController(nil, view),
		Orders:     controllers.NewOrderController(nil, nil, nil, view),
		Payments:   controllers.NewPaymentController(nil, nil, view),
		Reviews:    controllers.NewReviewController(nil, nil, validator, view),
		Admin:      controllers.NewAdminController(nil, nil, nil, nil, validator, view, logger),
	}

	r := gin.New()
	r.Use(middleware.Authenticate(tokens))
	LoadTemplates(r, templatesGlob)
	RegisterRoutes(r, h, opts)
	return r
}

func sessionCookie(t *testing.T, role models.Role) *http.Cookie {
	t.Helper()
	token, err := tokens.GenerateSessionToken(&models.User{ID: uuid.New(), Username: "routes", Role: role})
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookie, Value: token}
}

func serve(r http.Handler, method, path string, cookie *http.Cookie, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublicPages(t *testing.T) {
	r := newEngine(t, Options{})

	w := serve(r, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/products", w.Header().Get("Location"))

	w = serve(r, http.MethodGet, "/login", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/login"`)

	w = serve(r, http.MethodGet, "/register", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="username"`)
}

func TestGuards(t *testing.T) {
	r := newEngine(t, Options{})
	user := sessionCookie(t, models.RoleUser)

	for _, path := range []string{"/cart", "/orders", "/orders/checkout", "/reviews/my-reviews", "/payment/process/" + uuid.NewString()} {
		w := serve(r, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}

	for _, path := range []string{"/admin", "/admin/products", "/admin/orders", "/admin/payments"} {
		w := serve(r, http.MethodGet, path, user, nil)
		assert.Equal(t, "/products?error=access_denied", w.Header().Get("Location"), path)
	}
}

func TestProductAPI_CORSAndErrors(t *testing.T) {
	r := newEngine(t, Options{AllowedOrigins: []string{"https://shop.example.com"}})

	w := serve(r, http.MethodGet, "/api/products/categories", nil, http.Header{"Origin": {"https://shop.example.com"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `["ELECTRONICS","CLOTHING","BOOKS","HOME","SPORTS"]`, w.Body.String())

	w = serve(r, http.MethodGet, "/api/products/search", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"keyword is required"}`, w.Body.String())

	w = serve(r, http.MethodGet, "/api/products/category/garden-gnomes", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	r := newEngine(t, Options{Limiter: limiter})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/products/categories", nil, nil).Code)
	}
	w := serve(r, http.MethodGet, "/api/products/categories", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// TestTemplatesRender executes every page against representative data so a
// renamed field or helper fails here rather than in a browser.
func TestTemplatesRender(t *testing.T) {
	tmpl, err := template.New("").Funcs(controllers.TemplateFuncs()).ParseGlob(templatesGlob)
	require.NoError(t, err)

	now := time.Now()
	user := &services.SessionClaims{UserID: uuid.New(), Username: "alice", Role: models.RoleAdmin}
	product := models.Product{
		ID: uuid.New(), Name: "Laptop", Description: "Fast", Price: decimal.RequireFromString("999.99"),
		StockQuantity: 3, Category: models.CategoryElectronics, Active: true, ImageURL: "https://cdn.example.com/l.png",
	}
	query := models.ProductQuery{Page: 1, Size: 12, SortBy: "name", SortDir: "asc", Search: "lap"}
	productPage := models.NewPage([]models.Product{product}, 1, 12, 30)
	cartItems := []models.CartItem{{ID: uuid.New(), ProductID: product.ID, Product: product, Quantity: 2}}
	order := models.Order{
		ID: uuid.New(), UserID: user.UserID, User: models.User{Username: "alice"},
		Items:       []models.OrderItem{{ProductID: product.ID, ProductName: "Laptop", Quantity: 2, Price: product.Price}},
		TotalAmount: product.Price.Mul(decimal.NewFromInt(2)), Status: models.OrderStatusPending,
		ShippingAddress: "1 Main St", OrderDate: now,
	}
	payment := models.Payment{
		ID: uuid.New(), OrderID: order.ID, Amount: order.TotalAmount, Method: models.PaymentMethodCreditCard,
		Status: models.PaymentStatusCompleted, TransactionID: "TXN-ABCDEF123456", CardLastFour: "1111",
		CardType: "Visa", GatewayResponse: "Card payment successful", ProcessedAt: &now,
	}
	review := models.Review{
		ID: uuid.New(), ProductID: product.ID, Product: product, User: models.User{FirstName: "Alice"},
		Rating: 4, ReviewText: "Great", VerifiedPurchase: true, CreatedAt: now,
	}
	stats := &models.ReviewStats{Total: 1, AverageRating: 4, Counts: [6]int64{0, 0, 0, 0, 1, 0}, Percentages: [6]float64{0, 0, 0, 0, 100, 0}}
	flash := &controllers.Flash{Kind: "success", Message: "Saved"}

	pages := map[string]gin.H{
		"login.tmpl":    {"Title": "Login", "Flash": flash},
		"register.tmpl": {"Title": "Register", "Form": &models.RegisterRequest{Username: "bob"}},
		"products.tmpl": {
			"Title": "Products", "User": user, "CartCount": 2, "Page": productPage, "Products": productPage.Items,
			"Categories": models.Categories(), "Query": query, "SearchKeyword": "lap",
		},
		"product-detail.tmpl": {
			"Title": "Laptop", "User": user, "Product": &product, "Reviews": []models.Review{review},
			"ReviewStats": stats, "CanReview": true, "HasReviewed": true, "UserReview": &review,
		},
		"cart.tmpl":          {"Title": "Cart", "User": user, "Items": cartItems, "Total": order.TotalAmount, "CartCount": 2},
		"checkout.tmpl":      {"Title": "Checkout", "User": user, "Items": cartItems, "Total": order.TotalAmount, "CheckoutToken": uuid.NewString()},
		"order-history.tmpl": {"Title": "My Orders", "User": user, "Orders": []models.Order{order}},
		"order-detail.tmpl":  {"Title": "Order Details", "User": user, "Order": &order, "Payment": &payment},
		"payment.tmpl":       {"Title": "Payment", "User": user, "Order": &order, "PaymentMethods": models.PaymentMethods()},
		"payment-status.tmpl": {"Title": "Payment Status", "Payment": &payment},
		"add-review.tmpl":     {"Title": "Write a Review", "User": user, "Product": &product, "CanReview": true},
		"edit-review.tmpl":    {"Title": "Edit Review", "User": user, "Review": &review, "Product": &review.Product},
		"my-reviews.tmpl":     {"Title": "My Reviews", "User": user, "Reviews": []models.Review{review}},
		"admin-dashboard.tmpl": {
			"Title": "Admin Dashboard", "User": user,
			"Stats": &models.DashboardStats{TotalProducts: 1, RecentOrders: []models.Order{order}},
		},
		"admin-products.tmpl": {"Title": "Manage Products", "User": user, "Page": productPage, "Products": productPage.Items, "Query": query},
		"admin-product-form.tmpl": {
			"Title": "Edit Product", "User": user, "Action": "/admin/products/edit/" + product.ID.String(),
			"Form": &models.ProductForm{Name: "Laptop", Price: "999.99", Category: "ELECTRONICS", Active: true}, "Categories": models.Categories(),
		},
		"admin-orders.tmpl": {
			"Title": "Manage Orders", "User": user, "Page": models.NewPage([]models.Order{order}, 0, 20, 1),
			"Orders": []models.Order{order}, "OrderStatuses": models.OrderStatuses(), "SelectedStatus": models.OrderStatusPending,
		},
		"admin-payments.tmpl": {
			"Title": "Payments", "User": user, "Payments": []models.Payment{payment},
			"PaymentStatuses": models.PaymentStatuses(), "SelectedStatus": models.PaymentStatusCompleted,
		},
	}

	for name, data := range pages {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tmpl.ExecuteTemplate(&buf, name, data))
			assert.Contains(t, buf.String(), "</html>")
		})
	}

	t.Run("payment-status not found", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, tmpl.ExecuteTemplate(&buf, "payment-status.tmpl", gin.H{"Title": "Payment Status", "Error": "Payment not found"}))
		assert.Contains(t, buf.String(), "Payment not found")
	})

	t.Run("products pager keeps the filters", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, tmpl.ExecuteTemplate(&buf, "products.tmpl", pages["products.tmpl"]))
		assert.Contains(t, buf.String(), "/products?page=2&size=12&sortBy=name&sortDir=asc&search=lap")
	})
}

package routes

import (
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/controllers"
	"storefront-service/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers bundles every controller the router needs.
type Handlers struct {
	Auth       *controllers.AuthController
	Products   *controllers.ProductController
	ProductAPI *controllers.ProductAPIController
	Cart       *controllers.CartController
	Orders     *controllers.OrderController
	Payments   *controllers.PaymentController
	Reviews    *controllers.ReviewController
	Admin      *controllers.AdminController
}

type Options struct {
	// AllowedOrigins for the product API; "*" allows any origin.
	AllowedOrigins []string
	// Limiter guards login, registration and the API. Nil disables it.
	Limiter *middleware.RateLimiter
}

// LoadTemplates parses the page templates with the shared FuncMap.
func LoadTemplates(r *gin.Engine, glob string) {
	r.SetFuncMap(controllers.TemplateFuncs())
	r.LoadHTMLGlob(glob)
}

// RegisterRoutes sets up page, API and admin routes. Authentication is
// resolved for every request by middleware.Authenticate, installed by the
// caller; this function only applies the guards.
func RegisterRoutes(r *gin.Engine, h Handlers, opts Options) {
	limit := func(c *gin.Context) { c.Next() }
	if opts.Limiter != nil {
		limit = middleware.RateLimitMiddleware(opts.Limiter)
	}

	// Public pages
	r.GET("/", h.Auth.Home)
	r.GET("/login", h.Auth.LoginPage)
	r.POST("/login", limit, h.Auth.Login)
	r.GET("/register", h.Auth.RegisterPage)
	r.POST("/register", limit, h.Auth.Register)
	r.POST("/logout", h.Auth.Logout)
	r.GET("/products", h.Products.List)
	r.GET("/products/:id", h.Products.Detail)
	r.GET("/payment/status/:transactionId", h.Payments.Status)

	// Read-only JSON catalog
	api := r.Group("/api/products")
	api.Use(corsMiddleware(opts.AllowedOrigins), limit, apperrors.ErrorMiddleware())
	api.GET("", h.ProductAPI.List)
	api.GET("/categories", h.ProductAPI.Categories)
	api.GET("/search", h.ProductAPI.Search)
	api.GET("/category/:category", h.ProductAPI.ByCategory)
	api.GET("/:id", h.ProductAPI.Get)

	// Signed-in users
	authed := r.Group("")
	authed.Use(middleware.RequireAuth())

	cart := authed.Group("/cart")
	cart.GET("", h.Cart.View)
	cart.POST("/add", h.Cart.Add)
	cart.POST("/update", h.Cart.Update)
	cart.POST("/remove", h.Cart.Remove)
	cart.POST("/clear", h.Cart.Clear)

	orders := authed.Group("/orders")
	orders.GET("", h.Orders.History)
	orders.GET("/checkout", h.Orders.CheckoutPage)
	orders.POST("/checkout", h.Orders.Checkout)
	orders.GET("/:id", h.Orders.Detail)

	payment := authed.Group("/payment")
	payment.GET("/process/:orderId", h.Payments.ProcessPage)
	payment.POST("/process/:orderId", h.Payments.Process)

	reviews := authed.Group("/reviews")
	reviews.GET("/add/:productId", h.Reviews.AddPage)
	reviews.POST("/add/:productId", h.Reviews.Add)
	reviews.GET("/edit/:id", h.Reviews.EditPage)
	reviews.POST("/edit/:id", h.Reviews.Edit)
	reviews.POST("/delete/:id", h.Reviews.Delete)
	reviews.GET("/my-reviews", h.Reviews.MyReviews)
	reviews.POST("/helpful/:id", h.Reviews.Helpful)

	// Admin-only routes
	admin := r.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.GET("", h.Admin.Dashboard)
	admin.GET("/products", h.Admin.Products)
	admin.GET("/products/add", h.Admin.AddProductPage)
	admin.POST("/products/add", h.Admin.AddProduct)
	admin.GET("/products/edit/:id", h.Admin.EditProductPage)
	admin.POST("/products/edit/:id", h.Admin.EditProduct)
	admin.POST("/products/toggle-status/:id", h.Admin.ToggleStatus)
	admin.POST("/products/update-stock/:id", h.Admin.UpdateStock)
	admin.POST("/products/delete/:id", h.Admin.DeleteProduct)
	admin.POST("/products/image-upload", h.Admin.ImageUploadURL)
	admin.GET("/orders", h.Admin.Orders)
	admin.POST("/orders/update-status/:id", h.Admin.UpdateOrderStatus)
	admin.GET("/payments", h.Admin.Payments)
	admin.POST("/payments/:id/refund", h.Admin.RefundPayment)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

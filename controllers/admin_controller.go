package controllers

import (
	"net/http"

	"storefront-service/common/logger"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController serves /admin. Routes are guarded by middleware.AdminOnly.
type AdminController struct {
	admin     services.AdminService
	products  services.ProductService
	orders    services.OrderService
	payments  services.PaymentService
	validator *RequestValidator
	view      *PageRenderer
	logger    *zap.Logger
}

func NewAdminController(
	admin services.AdminService,
	products services.ProductService,
	orders services.OrderService,
	payments services.PaymentService,
	validator *RequestValidator,
	view *PageRenderer,
	logger *zap.Logger,
) *AdminController {
	return &AdminController{
		admin:     admin,
		products:  products,
		orders:    orders,
		payments:  payments,
		validator: validator,
		view:      view,
		logger:    logger,
	}
}

// Dashboard handles GET /admin.
func (ac *AdminController) Dashboard(c *gin.Context) {
	stats, appErr := ac.admin.Dashboard(c.Request.Context())
	if appErr != nil {
		logger.FromContext(c, ac.logger).Error("Dashboard failed", zap.Error(appErr))
		c.String(appErr.Code, appErr.Message)
		return
	}
	ac.view.HTML(c, http.StatusOK, "admin-dashboard.tmpl", gin.H{"Title": "Admin Dashboard", "Stats": stats})
}

// Products handles GET /admin/products. Search covers inactive products too.
func (ac *AdminController) Products(c *gin.Context) {
	q := catalogQuery(c, services.DefaultAdminPageSize)
	q.Category = ""

	page, appErr := ac.products.ListAllProducts(c.Request.Context(), q)
	if appErr != nil {
		c.String(appErr.Code, appErr.Message)
		return
	}

	data := gin.H{
		"Title":    "Manage Products",
		"Page":     page,
		"Products": page.Items,
		"Query":    q,
	}
	if q.Search != "" {
		data["SearchKeyword"] = q.Search
	}
	ac.view.HTML(c, http.StatusOK, "admin-products.tmpl", data)
}

// AddProductPage handles GET /admin/products/add.
func (ac *AdminController) AddProductPage(c *gin.Context) {
	ac.view.HTML(c, http.StatusOK, "admin-product-form.tmpl", gin.H{
		"Title":      "Add Product",
		"Action":     "/admin/products/add",
		"Form":       &models.ProductForm{Active: true, Category: string(models.CategoryElectronics)},
		"Categories": models.Categories(),
	})
}

// AddProduct handles POST /admin/products/add.
func (ac *AdminController) AddProduct(c *gin.Context) {
	var form models.ProductForm
	if err := c.ShouldBind(&form); err != nil {
		ac.view.RedirectError(c, "/admin/products/add", "Please fix the errors in the form")
		return
	}
	if err := ac.validator.Struct(&form); err != nil {
		ac.view.RedirectError(c, "/admin/products/add", "Please fix the errors in the form: "+err.Error())
		return
	}

	product, appErr := ac.products.CreateProduct(c.Request.Context(), &form)
	if appErr != nil {
		ac.view.RedirectError(c, "/admin/products", "Error adding product: "+appErr.Message)
		return
	}
	logger.FromContext(c, ac.logger).Info("Product created", zap.String("product_id", product.ID.String()))
	ac.view.RedirectSuccess(c, "/admin/products", "Product added successfully!")
}

// EditProductPage handles GET /admin/products/edit/:id.
func (ac *AdminController) EditProductPage(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		c.Redirect(http.StatusFound, "/admin/products?error=product_not_found")
		return
	}
	product, appErr := ac.products.GetProduct(c.Request.Context(), id)
	if appErr != nil {
		c.Redirect(http.StatusFound, "/admin/products?error=product_not_found")
		return
	}

	ac.view.HTML(c, http.StatusOK, "admin-product-form.tmpl", gin.H{
		"Title":      "Edit Product",
		"Action":     "/admin/products/edit/" + id.String(),
		"Product":    product,
		"Form":       productForm(product),
		"Categories": models.Categories(),
	})
}

// EditProduct handles POST /admin/products/edit/:id.
func (ac *AdminController) EditProduct(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		c.Redirect(http.StatusFound, "/admin/products?error=product_not_found")
		return
	}
	back := "/admin/products/edit/" + id.String()

	var form models.ProductForm
	if err := c.ShouldBind(&form); err != nil {
		ac.view.RedirectError(c, back, "Please fix the errors in the form")
		return
	}
	if err := ac.validator.Struct(&form); err != nil {
		ac.view.RedirectError(c, back, "Please fix the errors in the form: "+err.Error())
		return
	}

	if _, appErr := ac.products.UpdateProduct(c.Request.Context(), id, &form); appErr != nil {
		ac.view.RedirectError(c, "/admin/products", "Error updating product: "+appErr.Message)
		return
	}
	ac.view.RedirectSuccess(c, "/admin/products", "Product updated successfully!")
}

// ToggleStatus handles POST /admin/products/toggle-status/:id.
func (ac *AdminController) ToggleStatus(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		ac.view.RedirectError(c, "/admin/products", "Product not found")
		return
	}

	product, appErr := ac.products.ToggleStatus(c.Request.Context(), id)
	if appErr != nil {
		ac.view.RedirectError(c, "/admin/products", "Error updating product status: "+appErr.Message)
		return
	}
	status := "deactivated"
	if product.Active {
		status = "activated"
	}
	ac.view.RedirectSuccess(c, "/admin/products", "Product "+status+" successfully!")
}

// UpdateStock handles POST /admin/products/update-stock/:id.
func (ac *AdminController) UpdateStock(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		ac.view.RedirectError(c, "/admin/products", "Product not found")
		return
	}
	quantity, ok := formInt(c, "stockQuantity", -1)
	if !ok {
		ac.view.RedirectError(c, "/admin/products", "Error updating stock: Stock quantity must be a number")
		return
	}

	if appErr := ac.products.UpdateStock(c.Request.Context(), id, quantity); appErr != nil {
		ac.view.RedirectError(c, "/admin/products", "Error updating stock: "+appErr.Message)
		return
	}
	ac.view.RedirectSuccess(c, "/admin/products", "Stock updated successfully!")
}

// DeleteProduct handles POST /admin/products/delete/:id. The product is
// deactivated rather than removed.
func (ac *AdminController) DeleteProduct(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		ac.view.RedirectError(c, "/admin/products", "Product not found")
		return
	}
	if appErr := ac.products.DeleteProduct(c.Request.Context(), id); appErr != nil {
		ac.view.RedirectError(c, "/admin/products", "Error deleting product: "+appErr.Message)
		return
	}
	ac.view.RedirectSuccess(c, "/admin/products", "Product deleted successfully!")
}

type imageUploadRequest struct {
	Filename    string `json:"filename" validate:"max=255"`
	ContentType string `json:"content_type" validate:"required"`
}

// ImageUploadURL handles POST /admin/products/image-upload and returns a
// presigned S3 PUT for the browser to upload the image directly.
func (ac *AdminController) ImageUploadURL(c *gin.Context) {
	var req imageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if err := ac.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upload, appErr := ac.products.PresignImageUpload(c.Request.Context(), req.Filename, req.ContentType)
	if appErr != nil {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}
	c.JSON(http.StatusOK, upload)
}

// Orders handles GET /admin/orders?status=.
func (ac *AdminController) Orders(c *gin.Context) {
	var status models.OrderStatus
	if st, ok := models.ParseOrderStatus(c.Query("status")); ok {
		status = st
	}

	page, appErr := ac.orders.ListOrders(c.Request.Context(), status, queryInt(c, "page", 0), queryInt(c, "size", services.DefaultAdminPageSize))
	if appErr != nil {
		c.String(appErr.Code, appErr.Message)
		return
	}

	ac.view.HTML(c, http.StatusOK, "admin-orders.tmpl", gin.H{
		"Title":          "Manage Orders",
		"Page":           page,
		"Orders":         page.Items,
		"OrderStatuses":  models.OrderStatuses(),
		"SelectedStatus": status,
	})
}

// UpdateOrderStatus handles POST /admin/orders/update-status/:id.
func (ac *AdminController) UpdateOrderStatus(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		ac.view.RedirectError(c, "/admin/orders", "Order not found")
		return
	}
	status, ok := models.ParseOrderStatus(c.PostForm("status"))
	if !ok {
		ac.view.RedirectError(c, "/admin/orders", "Error updating order status: unknown status")
		return
	}

	if _, appErr := ac.orders.UpdateStatus(c.Request.Context(), id, status); appErr != nil {
		ac.view.RedirectError(c, "/admin/orders", "Error updating order status: "+appErr.Message)
		return
	}
	ac.view.RedirectSuccess(c, "/admin/orders", "Order status updated successfully!")
}

// Payments handles GET /admin/payments?status=. Without a status it lists
// completed payments, the ones that can be refunded.
func (ac *AdminController) Payments(c *gin.Context) {
	status := models.PaymentStatusCompleted
	if st, ok := models.ParsePaymentStatus(c.Query("status")); ok {
		status = st
	}

	payments, appErr := ac.payments.ListPayments(c.Request.Context(), status)
	if appErr != nil {
		c.String(appErr.Code, appErr.Message)
		return
	}
	ac.view.HTML(c, http.StatusOK, "admin-payments.tmpl", gin.H{
		"Title":           "Payments",
		"Payments":        payments,
		"PaymentStatuses": models.PaymentStatuses(),
		"SelectedStatus":  status,
	})
}

// RefundPayment handles POST /admin/payments/:id/refund.
func (ac *AdminController) RefundPayment(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		ac.view.RedirectError(c, "/admin/payments", "Payment not found")
		return
	}

	payment, appErr := ac.payments.RefundPayment(c.Request.Context(), id)
	if appErr != nil {
		ac.view.RedirectError(c, "/admin/payments", appErr.Message)
		return
	}
	ac.view.RedirectSuccess(c, "/admin/payments?status="+string(models.PaymentStatusRefunded), "Payment "+payment.TransactionID+" refunded")
}

func productForm(p *models.Product) *models.ProductForm {
	return &models.ProductForm{
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.StringFixed(2),
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		Category:      string(p.Category),
		Active:        p.Active,
	}
}

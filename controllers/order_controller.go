package controllers

import (
	"net/http"

	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderController serves checkout and the order history pages.
type OrderController struct {
	orders   services.OrderService
	carts    services.CartService
	payments services.PaymentService
	view     *PageRenderer
}

func NewOrderController(orders services.OrderService, carts services.CartService, payments services.PaymentService, view *PageRenderer) *OrderController {
	return &OrderController{orders: orders, carts: carts, payments: payments, view: view}
}

// CheckoutPage handles GET /orders/checkout. Each render issues a fresh
// checkout token so a double submit of the same form places one order.
func (oc *OrderController) CheckoutPage(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	cart, appErr := oc.carts.GetCart(c.Request.Context(), userID)
	if appErr != nil {
		c.String(appErr.Code, appErr.Message)
		return
	}
	if len(cart.Items) == 0 {
		c.Redirect(http.StatusFound, "/cart")
		return
	}

	oc.view.HTML(c, http.StatusOK, "checkout.tmpl", gin.H{
		"Title":         "Checkout",
		"Items":         cart.Items,
		"Total":         cart.Total,
		"CartCount":     cart.Count,
		"CheckoutToken": uuid.NewString(),
	})
}

// Checkout handles POST /orders/checkout.
func (oc *OrderController) Checkout(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBind(&req); err != nil {
		oc.view.RedirectError(c, "/orders/checkout", "Invalid checkout form")
		return
	}

	order, appErr := oc.orders.PlaceOrder(c.Request.Context(), userID, &req)
	if appErr != nil {
		oc.view.RedirectError(c, "/orders/checkout", appErr.Message)
		return
	}

	// a replayed token may point at an order that is already paid
	if order.Status != models.OrderStatusPending {
		c.Redirect(http.StatusFound, "/orders/"+order.ID.String())
		return
	}
	oc.view.RedirectSuccess(c, "/payment/process/"+order.ID.String(), "Order created successfully! Please complete payment.")
}

// History handles GET /orders.
func (oc *OrderController) History(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	orders, appErr := oc.orders.UserOrders(c.Request.Context(), userID)
	if appErr != nil {
		c.String(appErr.Code, appErr.Message)
		return
	}
	oc.view.HTML(c, http.StatusOK, "order-history.tmpl", gin.H{"Title": "My Orders", "Orders": orders})
}

// Detail handles GET /orders/:id. Admins may view any order.
func (oc *OrderController) Detail(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		c.Redirect(http.StatusFound, "/orders")
		return
	}

	order, appErr := oc.orders.GetOrderForUser(c.Request.Context(), user.UserID, id, user.IsAdmin())
	if appErr != nil {
		c.Redirect(http.StatusFound, "/orders")
		return
	}

	data := gin.H{"Title": "Order Details", "Order": order}
	if payment, appErr := oc.payments.GetPaymentByOrder(c.Request.Context(), order.ID); appErr == nil {
		data["Payment"] = payment
	}
	oc.view.HTML(c, http.StatusOK, "order-detail.tmpl", data)
}

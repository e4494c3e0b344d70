package controllers

import (
	"net/http"
	"strings"

	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

// PaymentController serves the simulated payment pages.
type PaymentController struct {
	payments services.PaymentService
	orders   services.OrderService
	view     *PageRenderer
}

func NewPaymentController(payments services.PaymentService, orders services.OrderService, view *PageRenderer) *PaymentController {
	return &PaymentController{payments: payments, orders: orders, view: view}
}

// ProcessPage handles GET /payment/process/:orderId.
func (pc *PaymentController) ProcessPage(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	orderID, ok := ParseUUIDParam(c, "orderId")
	if !ok {
		c.Redirect(http.StatusFound, "/orders?error=order_not_found")
		return
	}

	order, appErr := pc.orders.GetOrder(c.Request.Context(), orderID)
	switch {
	case appErr != nil:
		c.Redirect(http.StatusFound, "/orders?error=order_not_found")
		return
	case order.UserID != userID:
		c.Redirect(http.StatusFound, "/orders?error=unauthorized")
		return
	case order.Status != models.OrderStatusPending:
		c.Redirect(http.StatusFound, "/orders?error=invalid_status")
		return
	}

	pc.view.HTML(c, http.StatusOK, "payment.tmpl", gin.H{
		"Title":          "Payment",
		"Order":          order,
		"PaymentMethods": models.PaymentMethods(),
	})
}

// Process handles POST /payment/process/:orderId. A declined charge returns
// to the payment page so the user can retry.
func (pc *PaymentController) Process(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	orderID, ok := ParseUUIDParam(c, "orderId")
	if !ok {
		c.Redirect(http.StatusFound, "/orders?error=order_not_found")
		return
	}
	back := "/payment/process/" + orderID.String()

	var req models.PaymentRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.PaymentDetails) == "" {
		pc.view.RedirectError(c, back, "Payment processing failed: payment details are required")
		return
	}
	method, ok := models.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		pc.view.RedirectError(c, back, "Payment processing failed: unsupported payment method")
		return
	}

	payment, appErr := pc.payments.ProcessPayment(c.Request.Context(), userID, orderID, method, strings.TrimSpace(req.PaymentDetails))
	if appErr != nil {
		if appErr.Code == http.StatusForbidden {
			pc.view.RedirectError(c, "/orders", appErr.Message)
			return
		}
		pc.view.RedirectError(c, back, "Payment processing failed: "+appErr.Message)
		return
	}

	if payment.IsSuccessful() {
		pc.view.RedirectSuccess(c, "/orders/"+orderID.String(), "Payment successful! Transaction ID: "+payment.TransactionID)
		return
	}
	pc.view.RedirectError(c, back, "Payment failed: "+payment.GatewayResponse)
}

// Status handles GET /payment/status/:transactionId. The page is public and
// shows only masked payment data.
func (pc *PaymentController) Status(c *gin.Context) {
	payment, appErr := pc.payments.GetPaymentByTransaction(c.Request.Context(), c.Param("transactionId"))
	if appErr != nil {
		pc.view.HTML(c, http.StatusNotFound, "payment-status.tmpl", gin.H{
			"Title": "Payment Status",
			"Error": "Payment not found",
		})
		return
	}
	pc.view.HTML(c, http.StatusOK, "payment-status.tmpl", gin.H{"Title": "Payment Status", "Payment": payment})
}

package controllers

import (
	"net/http"

	"storefront-service/middleware"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartController serves /cart. Every route requires a signed-in user.
type CartController struct {
	carts services.CartService
	view  *PageRenderer
}

func NewCartController(carts services.CartService, view *PageRenderer) *CartController {
	return &CartController{carts: carts, view: view}
}

// View handles GET /cart.
func (cc *CartController) View(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	cart, appErr := cc.carts.GetCart(c.Request.Context(), userID)
	if appErr != nil {
		c.String(appErr.Code, appErr.Message)
		return
	}

	cc.view.HTML(c, http.StatusOK, "cart.tmpl", gin.H{
		"Title":     "Shopping Cart",
		"Items":     cart.Items,
		"Total":     cart.Total,
		"CartCount": cart.Count,
	})
}

// Add handles POST /cart/add and returns to the product page.
func (cc *CartController) Add(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		cc.view.RedirectError(c, "/login", "Please log in to add items to cart")
		return
	}

	productID, err := uuid.Parse(c.PostForm("productId"))
	if err != nil {
		cc.view.RedirectError(c, "/products", "Product not found")
		return
	}
	back := "/products/" + productID.String()

	quantity, ok := formInt(c, "quantity", 1)
	if !ok {
		cc.view.RedirectError(c, back, "Quantity must be a number")
		return
	}

	if _, appErr := cc.carts.AddToCart(c.Request.Context(), userID, productID, quantity); appErr != nil {
		cc.view.RedirectError(c, back, appErr.Message)
		return
	}
	cc.view.RedirectSuccess(c, back, "Product added to cart successfully")
}

// Update handles POST /cart/update. A quantity of zero removes the line.
func (cc *CartController) Update(c *gin.Context) {
	userID, itemID, ok := cc.itemRequest(c)
	if !ok {
		return
	}
	quantity, ok := formInt(c, "quantity", -1)
	if !ok || quantity < 0 {
		cc.view.RedirectError(c, "/cart", "Failed to update cart")
		return
	}

	if appErr := cc.carts.UpdateQuantity(c.Request.Context(), userID, itemID, quantity); appErr != nil {
		cc.view.RedirectError(c, "/cart", appErr.Message)
		return
	}
	cc.view.RedirectSuccess(c, "/cart", "Cart updated successfully")
}

// Remove handles POST /cart/remove.
func (cc *CartController) Remove(c *gin.Context) {
	userID, itemID, ok := cc.itemRequest(c)
	if !ok {
		return
	}

	if appErr := cc.carts.RemoveItem(c.Request.Context(), userID, itemID); appErr != nil {
		cc.view.RedirectError(c, "/cart", appErr.Message)
		return
	}
	cc.view.RedirectSuccess(c, "/cart", "Item removed from cart")
}

// Clear handles POST /cart/clear.
func (cc *CartController) Clear(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	if appErr := cc.carts.ClearCart(c.Request.Context(), userID); appErr != nil {
		cc.view.RedirectError(c, "/cart", "Failed to clear cart")
		return
	}
	cc.view.RedirectSuccess(c, "/cart", "Cart cleared successfully")
}

func (cc *CartController) itemRequest(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err := uuid.Parse(c.PostForm("cartItemId"))
	if err != nil {
		cc.view.RedirectError(c, "/cart", "Cart item not found")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, itemID, true
}

package controllers

import (
	"net/http"
	"strconv"

	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	reviews   services.ReviewService
	products  services.ProductService
	validator *RequestValidator
	view      *PageRenderer
}

func NewReviewController(reviews services.ReviewService, products services.ProductService, validator *RequestValidator, view *PageRenderer) *ReviewController {
	return &ReviewController{reviews: reviews, products: products, validator: validator, view: view}
}

// AddPage handles GET /reviews/add/:productId.
func (rc *ReviewController) AddPage(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	productID, ok := ParseUUIDParam(c, "productId")
	if !ok {
		c.Redirect(http.StatusFound, "/products")
		return
	}
	ctx := c.Request.Context()

	product, appErr := rc.products.GetProduct(ctx, productID)
	if appErr != nil {
		c.Redirect(http.StatusFound, "/products")
		return
	}
	if existing, _ := rc.reviews.UserReviewForProduct(ctx, productID, userID); existing != nil {
		c.Redirect(http.StatusFound, "/products/"+productID.String()+"?error=already_reviewed")
		return
	}
	canReview, _ := rc.reviews.CanReview(ctx, productID, userID)

	rc.view.HTML(c, http.StatusOK, "add-review.tmpl", gin.H{
		"Title":     "Write a Review",
		"Product":   product,
		"CanReview": canReview,
	})
}

// Add handles POST /reviews/add/:productId.
func (rc *ReviewController) Add(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	productID, ok := ParseUUIDParam(c, "productId")
	if !ok {
		rc.view.RedirectError(c, "/products", "Product not found")
		return
	}
	back := "/reviews/add/" + productID.String()

	var form models.ReviewForm
	if err := c.ShouldBind(&form); err != nil || rc.validator.Struct(&form) != nil {
		rc.view.RedirectError(c, back, "Please fix the errors in your review")
		return
	}

	if _, appErr := rc.reviews.AddReview(c.Request.Context(), productID, userID, &form); appErr != nil {
		if appErr.Code == http.StatusNotFound {
			rc.view.RedirectError(c, "/products", appErr.Message)
			return
		}
		rc.view.RedirectError(c, back, appErr.Message)
		return
	}
	rc.view.RedirectSuccess(c, "/products/"+productID.String(), "Review added successfully!")
}

// EditPage handles GET /reviews/edit/:id. Only the author may edit.
func (rc *ReviewController) EditPage(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	reviewID, ok := ParseUUIDParam(c, "id")
	if !ok {
		c.Redirect(http.StatusFound, "/reviews/my-reviews?error=review_not_found")
		return
	}

	review, appErr := rc.reviews.GetReview(c.Request.Context(), reviewID)
	if appErr != nil || review.UserID != userID {
		c.Redirect(http.StatusFound, "/reviews/my-reviews?error=review_not_found")
		return
	}

	rc.view.HTML(c, http.StatusOK, "edit-review.tmpl", gin.H{
		"Title":   "Edit Review",
		"Review":  review,
		"Product": &review.Product,
	})
}

// Edit handles POST /reviews/edit/:id.
func (rc *ReviewController) Edit(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	reviewID, ok := ParseUUIDParam(c, "id")
	if !ok {
		c.Redirect(http.StatusFound, "/reviews/my-reviews?error=review_not_found")
		return
	}
	back := "/reviews/edit/" + reviewID.String()

	var form models.ReviewForm
	if err := c.ShouldBind(&form); err != nil {
		rc.view.RedirectError(c, back, "Please fix the errors in your review")
		return
	}
	if err := rc.validator.Struct(&form); err != nil {
		rc.view.RedirectError(c, back, err.Error())
		return
	}

	review, appErr := rc.reviews.UpdateReview(c.Request.Context(), reviewID, userID, &form)
	if appErr != nil {
		rc.view.RedirectError(c, back, appErr.Message)
		return
	}
	rc.view.RedirectSuccess(c, "/products/"+review.ProductID.String(), "Review updated successfully!")
}

// Delete handles POST /reviews/delete/:id. Admins may delete any review.
func (rc *ReviewController) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	reviewID, ok := ParseUUIDParam(c, "id")
	if !ok {
		rc.view.RedirectError(c, "/reviews/my-reviews", "Review not found")
		return
	}

	if _, appErr := rc.reviews.DeleteReview(c.Request.Context(), reviewID, user.UserID, user.IsAdmin()); appErr != nil {
		rc.view.RedirectError(c, "/reviews/my-reviews", appErr.Message)
		return
	}
	rc.view.RedirectSuccess(c, "/reviews/my-reviews", "Review deleted successfully!")
}

// MyReviews handles GET /reviews/my-reviews.
func (rc *ReviewController) MyReviews(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	reviews, appErr := rc.reviews.UserReviews(c.Request.Context(), userID)
	if appErr != nil {
		c.String(appErr.Code, appErr.Message)
		return
	}
	rc.view.HTML(c, http.StatusOK, "my-reviews.tmpl", gin.H{"Title": "My Reviews", "Reviews": reviews})
}

// Helpful handles POST /reviews/helpful/:id. The body is the new count as
// plain text, or "error".
func (rc *ReviewController) Helpful(c *gin.Context) {
	reviewID, ok := ParseUUIDParam(c, "id")
	if !ok {
		c.String(http.StatusOK, "error")
		return
	}
	count, appErr := rc.reviews.MarkHelpful(c.Request.Context(), reviewID)
	if appErr != nil {
		c.String(http.StatusOK, "error")
		return
	}
	c.String(http.StatusOK, strconv.Itoa(count))
}

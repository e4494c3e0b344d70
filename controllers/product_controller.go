package controllers

import (
	"net/http"
	"strings"

	apperrors "storefront-service/common/errors"
	"storefront-service/common/logger"
	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProductController serves the catalog pages.
type ProductController struct {
	products services.ProductService
	reviews  services.ReviewService
	view     *PageRenderer
	logger   *zap.Logger
}

func NewProductController(products services.ProductService, reviews services.ReviewService, view *PageRenderer, logger *zap.Logger) *ProductController {
	return &ProductController{products: products, reviews: reviews, view: view, logger: logger}
}

// catalogQuery reads paging, sorting and filters from the query string.
// Unknown categories are ignored.
func catalogQuery(c *gin.Context, defaultSize int) models.ProductQuery {
	q := models.ProductQuery{
		Page:    queryInt(c, "page", 0),
		Size:    queryInt(c, "size", defaultSize),
		SortBy:  c.DefaultQuery("sortBy", "name"),
		SortDir: c.DefaultQuery("sortDir", "asc"),
		Search:  strings.TrimSpace(c.Query("search")),
	}
	if cat, ok := models.ParseCategory(c.Query("category")); ok {
		q.Category = cat
	}
	return services.NormalizeQuery(q, defaultSize)
}

// List handles GET /products.
func (pc *ProductController) List(c *gin.Context) {
	q := catalogQuery(c, services.DefaultCatalogPageSize)

	page, appErr := pc.products.ListProducts(c.Request.Context(), q)
	if appErr != nil {
		logger.FromContext(c, pc.logger).Error("Failed to list products", zap.Error(appErr))
		c.String(appErr.Code, appErr.Message)
		return
	}

	data := gin.H{
		"Title":      "Products",
		"Page":       page,
		"Products":   page.Items,
		"Categories": models.Categories(),
		"Query":      q,
	}
	if q.Search != "" {
		data["SearchKeyword"] = q.Search
	} else if q.Category != "" {
		data["SelectedCategory"] = q.Category
	}
	if _, ok := c.GetQuery("logout"); ok {
		data["Flash"] = &Flash{Kind: "success", Message: "You have been logged out"}
	}
	pc.view.HTML(c, http.StatusOK, "products.tmpl", data)
}

// Detail handles GET /products/:id. Inactive products are still shown so
// links from old orders keep working; the page marks them unavailable.
func (pc *ProductController) Detail(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		c.Redirect(http.StatusFound, "/products")
		return
	}
	ctx := c.Request.Context()

	product, appErr := pc.products.GetProduct(ctx, id)
	if appErr != nil {
		c.Redirect(http.StatusFound, "/products")
		return
	}

	data := gin.H{"Title": product.Name, "Product": product}
	var (
		reviews    []models.Review
		stats      *models.ReviewStats
		canReview  bool
		userReview *models.Review
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var appErr *apperrors.Error
		reviews, appErr = pc.reviews.ProductReviews(gctx, id)
		return apperrors.AsError(appErr)
	})
	g.Go(func() error {
		var appErr *apperrors.Error
		stats, appErr = pc.reviews.Stats(gctx, id)
		return apperrors.AsError(appErr)
	})
	if user := middleware.CurrentUser(c); user != nil {
		g.Go(func() error {
			var appErr *apperrors.Error
			canReview, appErr = pc.reviews.CanReview(gctx, id, user.UserID)
			return apperrors.AsError(appErr)
		})
		g.Go(func() error {
			var appErr *apperrors.Error
			userReview, appErr = pc.reviews.UserReviewForProduct(gctx, id, user.UserID)
			return apperrors.AsError(appErr)
		})
	}
	if err := g.Wait(); err != nil {
		logger.FromContext(c, pc.logger).Error("Failed to load product page", zap.String("product_id", id.String()), zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load product")
		return
	}

	data["Reviews"] = reviews
	data["ReviewStats"] = stats
	data["CanReview"] = canReview
	data["HasReviewed"] = userReview != nil
	data["UserReview"] = userReview
	pc.view.HTML(c, http.StatusOK, "product-detail.tmpl", data)
}

package controllers

import (
	"net/http"
	"strings"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProductAPIController is the read-only JSON catalog under /api/products.
// Errors are attached with c.Error and rendered by apperrors.ErrorMiddleware.
type ProductAPIController struct {
	products services.ProductService
	cache    *CatalogCache
	logger   *zap.Logger
}

func NewProductAPIController(products services.ProductService, cache *CatalogCache, logger *zap.Logger) *ProductAPIController {
	return &ProductAPIController{products: products, cache: cache, logger: logger}
}

// List handles GET /api/products?category=&search=. Search wins over category.
func (pc *ProductAPIController) List(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	var category models.Category
	if raw := c.Query("category"); raw != "" && search == "" {
		cat, ok := models.ParseCategory(raw)
		if !ok {
			_ = c.Error(apperrors.BadRequest("Unknown category: " + raw))
			return
		}
		category = cat
	}

	key := "list:c=" + string(category) + ":s=" + strings.ToLower(search)
	pc.cachedList(c, key, category, search)
}

// Get handles GET /api/products/:id.
func (pc *ProductAPIController) Get(c *gin.Context) {
	id, ok := ParseUUIDParam(c, "id")
	if !ok {
		_ = c.Error(apperrors.NotFound("Product not found"))
		return
	}

	key := "id:" + id.String()
	var cached models.Product
	hit, version := pc.cache.Lookup(c.Request.Context(), key, &cached)
	if hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	product, appErr := pc.products.GetProduct(c.Request.Context(), id)
	if appErr != nil {
		_ = c.Error(appErr)
		return
	}
	pc.cache.StoreAsync(version, key, product)
	c.JSON(http.StatusOK, product)
}

// Categories handles GET /api/products/categories.
func (pc *ProductAPIController) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, models.Categories())
}

// Search handles GET /api/products/search?keyword=.
func (pc *ProductAPIController) Search(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("keyword"))
	if keyword == "" {
		_ = c.Error(apperrors.BadRequest("keyword is required"))
		return
	}
	pc.cachedList(c, "search:"+strings.ToLower(keyword), "", keyword)
}

// ByCategory handles GET /api/products/category/:category.
func (pc *ProductAPIController) ByCategory(c *gin.Context) {
	raw := c.Param("category")
	category, ok := models.ParseCategory(raw)
	if !ok {
		_ = c.Error(apperrors.BadRequest("Unknown category: " + raw))
		return
	}
	pc.cachedList(c, "list:c="+string(category)+":s=", category, "")
}

func (pc *ProductAPIController) cachedList(c *gin.Context, key string, category models.Category, search string) {
	ctx := c.Request.Context()

	var cached []models.Product
	hit, version := pc.cache.Lookup(ctx, key, &cached)
	if hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	products, appErr := pc.products.FindActive(ctx, category, search)
	if appErr != nil {
		_ = c.Error(appErr)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	pc.cache.StoreAsync(version, key, products)
	c.JSON(http.StatusOK, products)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultCatalogPageSize = 12
	DefaultAdminPageSize   = 10
	MaxPageSize            = 100

	imageUploadExpiry = 15 * time.Minute
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImagePresigner is implemented by *aws.ImageStore.
type ImagePresigner interface {
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, map[string]string, error)
	PublicURL(key string) string
}

// CatalogInvalidator is told whenever a product changes so cached API
// responses can be dropped.
type CatalogInvalidator interface {
	InvalidateCatalog(ctx context.Context)
}

// ImageUpload describes a presigned browser upload.
type ImageUpload struct {
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Key       string            `json:"key"`
	PublicURL string            `json:"public_url"`
	ExpiresIn int               `json:"expires_in"`
}

type ProductService interface {
	// ListProducts returns one page of active products.
	ListProducts(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], *apperrors.Error)
	// ListAllProducts is the admin listing, inactive products included.
	ListAllProducts(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], *apperrors.Error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, *apperrors.Error)
	FindActive(ctx context.Context, category models.Category, search string) ([]models.Product, *apperrors.Error)
	InStock(ctx context.Context) ([]models.Product, *apperrors.Error)
	CreateProduct(ctx context.Context, form *models.ProductForm) (*models.Product, *apperrors.Error)
	UpdateProduct(ctx context.Context, id uuid.UUID, form *models.ProductForm) (*models.Product, *apperrors.Error)
	DeleteProduct(ctx context.Context, id uuid.UUID) *apperrors.Error
	ToggleStatus(ctx context.Context, id uuid.UUID) (*models.Product, *apperrors.Error)
	UpdateStock(ctx context.Context, id uuid.UUID, quantity int) *apperrors.Error
	PresignImageUpload(ctx context.Context, filename, contentType string) (*ImageUpload, *apperrors.Error)
}

type productServiceImpl struct {
	products    repository.ProductRepository
	images      ImagePresigner
	invalidator CatalogInvalidator
	logger      *zap.Logger
}

// NewProductService creates a ProductService. images and invalidator may be
// nil when S3 or Redis are not configured.
func NewProductService(products repository.ProductRepository, images ImagePresigner, invalidator CatalogInvalidator, logger *zap.Logger) ProductService {
	return &productServiceImpl{products: products, images: images, invalidator: invalidator, logger: logger}
}

// NormalizeQuery clamps paging values and validates sorting.
func NormalizeQuery(q models.ProductQuery, defaultSize int) models.ProductQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = defaultSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	if !repository.IsSortable(q.SortBy) {
		q.SortBy = "name"
	}
	if !strings.EqualFold(q.SortDir, "desc") {
		q.SortDir = "asc"
	} else {
		q.SortDir = "desc"
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func (s *productServiceImpl) ListProducts(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], *apperrors.Error) {
	q = NormalizeQuery(q, DefaultCatalogPageSize)
	q.IncludeInactive = false
	return s.list(ctx, q)
}

func (s *productServiceImpl) ListAllProducts(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], *apperrors.Error) {
	q = NormalizeQuery(q, DefaultAdminPageSize)
	q.IncludeInactive = true
	return s.list(ctx, q)
}

func (s *productServiceImpl) list(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], *apperrors.Error) {
	items, total, err := s.products.List(ctx, q)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return models.Page[models.Product]{}, apperrors.Internal("Failed to load products", err)
	}
	return models.NewPage(items, q.Page, q.Size, total), nil
}

func (s *productServiceImpl) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, *apperrors.Error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, apperrors.Internal("Failed to load product", err)
	}
	return p, nil
}

func (s *productServiceImpl) FindActive(ctx context.Context, category models.Category, search string) ([]models.Product, *apperrors.Error) {
	items, err := s.products.FindActive(ctx, category, strings.TrimSpace(search))
	if err != nil {
		s.logger.Error("Failed to query products", zap.Error(err))
		return nil, apperrors.Internal("Failed to load products", err)
	}
	return items, nil
}

func (s *productServiceImpl) InStock(ctx context.Context) ([]models.Product, *apperrors.Error) {
	items, err := s.products.FindInStock(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load products", err)
	}
	return items, nil
}

// parseForm validates the admin form beyond its struct tags and copies it
// onto p.
func parseForm(form *models.ProductForm, p *models.Product) *apperrors.Error {
	price, err := decimal.NewFromString(strings.TrimSpace(form.Price))
	if err != nil {
		return apperrors.BadRequest("Price must be a number")
	}
	if !price.IsPositive() {
		return apperrors.BadRequest("Price must be greater than 0")
	}
	if form.StockQuantity < 0 {
		return apperrors.BadRequest("Stock quantity cannot be negative")
	}
	category, ok := models.ParseCategory(form.Category)
	if !ok {
		return apperrors.BadRequest(fmt.Sprintf("Unknown category: %s", form.Category))
	}
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return apperrors.BadRequest("Product name is required")
	}

	p.Name = name
	p.Description = strings.TrimSpace(form.Description)
	p.Price = price.Round(2)
	p.StockQuantity = form.StockQuantity
	p.ImageURL = strings.TrimSpace(form.ImageURL)
	p.Category = category
	p.Active = form.Active
	return nil
}

func (s *productServiceImpl) CreateProduct(ctx context.Context, form *models.ProductForm) (*models.Product, *apperrors.Error) {
	p := &models.Product{}
	if appErr := parseForm(form, p); appErr != nil {
		return nil, appErr
	}
	if err := s.products.Create(ctx, p); err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, apperrors.Internal("Failed to create product", err)
	}
	s.invalidate(ctx)
	s.logger.Info("Product created", zap.String("product_id", p.ID.String()), zap.String("name", p.Name))
	return p, nil
}

func (s *productServiceImpl) UpdateProduct(ctx context.Context, id uuid.UUID, form *models.ProductForm) (*models.Product, *apperrors.Error) {
	p, appErr := s.GetProduct(ctx, id)
	if appErr != nil {
		return nil, appErr
	}
	if appErr := parseForm(form, p); appErr != nil {
		return nil, appErr
	}
	if err := s.products.Update(ctx, p); err != nil {
		s.logger.Error("Failed to update product", zap.String("product_id", id.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to update product", err)
	}
	s.invalidate(ctx)
	return p, nil
}

// DeleteProduct is a soft delete: the product is deactivated so existing
// orders keep their reference.
func (s *productServiceImpl) DeleteProduct(ctx context.Context, id uuid.UUID) *apperrors.Error {
	if err := s.products.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Product not found")
		}
		return apperrors.Internal("Failed to delete product", err)
	}
	s.invalidate(ctx)
	s.logger.Info("Product deactivated", zap.String("product_id", id.String()))
	return nil
}

func (s *productServiceImpl) ToggleStatus(ctx context.Context, id uuid.UUID) (*models.Product, *apperrors.Error) {
	p, appErr := s.GetProduct(ctx, id)
	if appErr != nil {
		return nil, appErr
	}
	p.Active = !p.Active
	if err := s.products.SetActive(ctx, id, p.Active); err != nil {
		return nil, apperrors.Internal("Failed to update product status", err)
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *productServiceImpl) UpdateStock(ctx context.Context, id uuid.UUID, quantity int) *apperrors.Error {
	if quantity < 0 {
		return apperrors.BadRequest("Stock quantity cannot be negative")
	}
	if err := s.products.UpdateStock(ctx, id, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Product not found")
		}
		return apperrors.Internal("Failed to update stock", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *productServiceImpl) PresignImageUpload(ctx context.Context, filename, contentType string) (*ImageUpload, *apperrors.Error) {
	if s.images == nil {
		return nil, apperrors.New(http.StatusServiceUnavailable, "Image uploads are not configured", nil)
	}
	ext, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, apperrors.BadRequest("Unsupported image type")
	}
	key := fmt.Sprintf("products/%s%s", uuid.NewString(), ext)
	s.logger.Debug("Presigning product image", zap.String("filename", path.Base(filename)), zap.String("key", key))
	url, headers, err := s.images.PresignPut(ctx, key, contentType, imageUploadExpiry)
	if err != nil {
		s.logger.Error("Failed to presign image upload", zap.Error(err))
		return nil, apperrors.Internal("Failed to generate upload URL", err)
	}
	return &ImageUpload{
		UploadURL: url,
		Method:    "PUT",
		Headers:   headers,
		Key:       key,
		PublicURL: s.images.PublicURL(key),
		ExpiresIn: int(imageUploadExpiry.Seconds()),
	}, nil
}

func (s *productServiceImpl) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.InvalidateCatalog(ctx)
	}
}

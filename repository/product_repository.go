package repository

import (
	"context"
	"strings"

	"storefront-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortColumns maps the sortBy values accepted from the query string to columns.
var sortColumns = map[string]string{
	"name":          "name",
	"price":         "price",
	"createdAt":     "created_at",
	"stockQuantity": "stock_quantity",
	"category":      "category",
}

// SortColumn resolves sortBy to a column, falling back to name.
func SortColumn(sortBy string) string {
	if col, ok := sortColumns[sortBy]; ok {
		return col
	}
	return "name"
}

func IsSortable(sortBy string) bool {
	_, ok := sortColumns[sortBy]
	return ok
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error)
	FindActive(ctx context.Context, category models.Category, search string) ([]models.Product, error)
	FindInStock(ctx context.Context) ([]models.Product, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	CountActive(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

// Create inserts product. The column default would turn Active=false into
// true, so an inactive product is flipped back after the insert.
func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	active := product.Active
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return err
	}
	if !active {
		product.Active = false
		return r.SetActive(ctx, product.ID, false)
	}
	return nil
}

func (r *GormProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Model(product).
		Select("name", "description", "price", "stock_quantity", "image_url", "category", "active").
		Updates(product).Error
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns one page of products. Search wins over category; inactive
// products are only included when q.IncludeInactive is set.
func (r *GormProductRepository) List(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	base := r.filtered(r.db.WithContext(ctx).Model(&models.Product{}), q.Category, q.Search, !q.IncludeInactive)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := base.
		Order(clause.OrderByColumn{Column: clause.Column{Name: SortColumn(q.SortBy)}, Desc: strings.EqualFold(q.SortDir, "desc")}).
		Order("id").
		Offset(q.Page * q.Size).
		Limit(q.Size).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *GormProductRepository) FindActive(ctx context.Context, category models.Category, search string) ([]models.Product, error) {
	var products []models.Product
	err := r.filtered(r.db.WithContext(ctx), category, search, true).
		Order("name").
		Find(&products).Error
	return products, err
}

func (r *GormProductRepository) FindInStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("active = ? AND stock_quantity > 0", true).
		Order("name").
		Find(&products).Error
	return products, err
}

func (r *GormProductRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.updateColumn(ctx, id, "active", active)
}

func (r *GormProductRepository) UpdateStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.updateColumn(ctx, id, "stock_quantity", quantity)
}

// DecrementStock fails with gorm.ErrRecordNotFound if the row is missing or
// holds fewer than quantity units.
func (r *GormProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormProductRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}

func (r *GormProductRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormProductRepository) filtered(db *gorm.DB, category models.Category, search string, activeOnly bool) *gorm.DB {
	if activeOnly {
		db = db.Where("active = ?", true)
	}
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		return db.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if category != "" {
		db = db.Where("category = ?", category)
	}
	return db
}

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryElectronics Category = "ELECTRONICS"
	CategoryClothing    Category = "CLOTHING"
	CategoryBooks       Category = "BOOKS"
	CategoryHome        Category = "HOME"
	CategorySports      Category = "SPORTS"
)

var categoryNames = map[Category]string{
	CategoryElectronics: "Electronics",
	CategoryClothing:    "Clothing",
	CategoryBooks:       "Books",
	CategoryHome:        "Home & Garden",
	CategorySports:      "Sports",
}

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryElectronics, CategoryClothing, CategoryBooks, CategoryHome, CategorySports}
}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := categoryNames[c]
	return c, ok
}

func (c Category) DisplayName() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return string(c)
}

type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string          `gorm:"size:100;not null;index" json:"name"`
	Description   string          `gorm:"size:1000" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	ImageURL      string          `gorm:"size:500" json:"image_url"`
	Category      Category        `gorm:"type:varchar(20);not null;index" json:"category"`
	Active        bool            `gorm:"not null;default:true;index" json:"active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}

// IsAvailable reports whether quantity units can be sold right now.
func (p *Product) IsAvailable(quantity int) bool {
	return p.Active && p.StockQuantity >= quantity
}

// ProductForm is the admin add/edit form.
type ProductForm struct {
	Name          string `form:"name" validate:"required,max=100"`
	Description   string `form:"description" validate:"max=1000"`
	Price         string `form:"price" validate:"required"`
	StockQuantity int    `form:"stockQuantity" validate:"gte=0"`
	ImageURL      string `form:"imageUrl" validate:"omitempty,max=500"`
	Category      string `form:"category" validate:"required"`
	Active        bool   `form:"active"`
}

// ProductQuery describes a catalog page request. Page is zero based.
type ProductQuery struct {
	Page     int
	Size     int
	SortBy   string
	SortDir  string
	Search   string
	Category Category
	// IncludeInactive is only honoured for admin listings.
	IncludeInactive bool
}

// Page is one page of results.
type Page[T any] struct {
	Items      []T
	Page       int
	Size       int
	Total      int64
	TotalPages int
}

// NewPage computes the page count for total items at the given size.
func NewPage[T any](items []T, page, size int, total int64) Page[T] {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{Items: items, Page: page, Size: size, Total: total, TotalPages: pages}
}

func (p Page[T]) HasNext() bool     { return p.Page+1 < p.TotalPages }
func (p Page[T]) HasPrevious() bool { return p.Page > 0 }

// Window returns the page numbers shown in the pager: two either side of the
// current page, clamped to the valid range.
func (p Page[T]) Window() []int {
	start := p.Page - 2
	if start < 0 {
		start = 0
	}
	end := p.Page + 2
	if end > p.TotalPages-1 {
		end = p.TotalPages - 1
	}
	var pages []int
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

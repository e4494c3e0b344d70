package services

import (
	"context"
	"errors"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CartSummary is the cart page model.
type CartSummary struct {
	Items []models.CartItem
	Total decimal.Decimal
	Count int
}

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartSummary, *apperrors.Error)
	AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, *apperrors.Error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) *apperrors.Error
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) *apperrors.Error
	ClearCart(ctx context.Context, userID uuid.UUID) *apperrors.Error
	CountItems(ctx context.Context, userID uuid.UUID) (int, *apperrors.Error)
}

type cartServiceImpl struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *zap.Logger) CartService {
	return &cartServiceImpl{carts: carts, products: products, logger: logger}
}

// CartTotal sums the line subtotals at current product prices.
func CartTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].Subtotal())
	}
	return total
}

func (s *cartServiceImpl) GetCart(ctx context.Context, userID uuid.UUID) (*CartSummary, *apperrors.Error) {
	items, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	return &CartSummary{Items: items, Total: CartTotal(items), Count: count}, nil
}

// AddToCart adds quantity units of a product, merging with an existing line.
// Stock is checked against the merged quantity.
func (s *cartServiceImpl) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, *apperrors.Error) {
	if quantity < 1 {
		return nil, apperrors.BadRequest("Quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, apperrors.Internal("Failed to load product", err)
	}

	existing, err := s.carts.FindByUserAndProduct(ctx, userID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal("Failed to load cart", err)
	}

	wanted := quantity
	if existing != nil {
		wanted += existing.Quantity
	}
	if appErr := checkAvailable(product, wanted); appErr != nil {
		return nil, appErr
	}

	if existing != nil {
		if err := s.carts.UpdateQuantity(ctx, existing.ID, wanted); err != nil {
			return nil, apperrors.Internal("Failed to update cart", err)
		}
		existing.Quantity = wanted
		existing.Product = *product
		return existing, nil
	}

	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := s.carts.Create(ctx, item); err != nil {
		s.logger.Error("Failed to add cart item", zap.Error(err))
		return nil, apperrors.Internal("Failed to add to cart", err)
	}
	item.Product = *product
	return item, nil
}

func checkAvailable(p *models.Product, quantity int) *apperrors.Error {
	if !p.Active {
		return apperrors.BadRequest("Product is not available")
	}
	if p.StockQuantity < quantity {
		return apperrors.BadRequest("Insufficient stock")
	}
	return nil
}

// ownedItem loads a cart line and checks it belongs to userID.
func (s *cartServiceImpl) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, *apperrors.Error) {
	item, err := s.carts.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Cart item not found")
		}
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	if item.UserID != userID {
		return nil, apperrors.Forbidden("Unauthorized access to cart item")
	}
	return item, nil
}

// UpdateQuantity sets the line quantity. Zero or less removes the line.
func (s *cartServiceImpl) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) *apperrors.Error {
	item, appErr := s.ownedItem(ctx, userID, itemID)
	if appErr != nil {
		return appErr
	}
	if quantity <= 0 {
		if err := s.carts.Delete(ctx, item.ID); err != nil {
			return apperrors.Internal("Failed to update cart", err)
		}
		return nil
	}

	product, err := s.products.FindByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Product not found")
		}
		return apperrors.Internal("Failed to load product", err)
	}
	if appErr := checkAvailable(product, quantity); appErr != nil {
		return appErr
	}
	if err := s.carts.UpdateQuantity(ctx, item.ID, quantity); err != nil {
		return apperrors.Internal("Failed to update cart", err)
	}
	return nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) *apperrors.Error {
	item, appErr := s.ownedItem(ctx, userID, itemID)
	if appErr != nil {
		return appErr
	}
	if err := s.carts.Delete(ctx, item.ID); err != nil {
		return apperrors.Internal("Failed to remove item", err)
	}
	return nil
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, userID uuid.UUID) *apperrors.Error {
	if err := s.carts.DeleteByUser(ctx, userID); err != nil {
		return apperrors.Internal("Failed to clear cart", err)
	}
	return nil
}

// CountItems is the total quantity across all lines, shown in the navbar.
func (s *cartServiceImpl) CountItems(ctx context.Context, userID uuid.UUID) (int, *apperrors.Error) {
	n, err := s.carts.CountQuantity(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal("Failed to count cart items", err)
	}
	return n, nil
}

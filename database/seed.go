package database

import (
	"context"
	"fmt"

	"storefront-service/models"
	"storefront-service/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type seedProduct struct {
	name, description, price string
	stock                    int
	category                 models.Category
	image                    string
}

var seedProducts = []seedProduct{
	{"Gaming Laptop", "High-performance gaming laptop with RTX 4060", "1299.99", 10, models.CategoryElectronics, "/static/images/laptop.jpg"},
	{"Smartphone Pro", "Latest smartphone with advanced camera", "899.99", 25, models.CategoryElectronics, "/static/images/smartphone.jpg"},
	{"Wireless Headphones", "Noise-cancelling wireless headphones", "199.99", 50, models.CategoryElectronics, "/static/images/headphones.jpg"},
	{"Cotton T-Shirt", "Comfortable cotton t-shirt available in multiple colors", "29.99", 100, models.CategoryClothing, "/static/images/tshirt.jpg"},
	{"Classic Jeans", "Durable denim jeans with modern fit", "79.99", 75, models.CategoryClothing, "/static/images/jeans.jpg"},
	{"Go Programming Guide", "Comprehensive guide to Go programming", "49.99", 30, models.CategoryBooks, "/static/images/go-book.jpg"},
	{"Web Development Handbook", "Modern web development techniques and best practices", "39.99", 40, models.CategoryBooks, "/static/images/web-book.jpg"},
	{"Coffee Maker", "Automatic coffee maker with programmable timer", "89.99", 20, models.CategoryHome, "/static/images/coffee-maker.jpg"},
	{"LED Desk Lamp", "Adjustable LED desk lamp with touch controls", "45.99", 35, models.CategoryHome, "/static/images/desk-lamp.jpg"},
	{"Professional Basketball", "Official size basketball for indoor/outdoor use", "24.99", 60, models.CategorySports, "/static/images/basketball.jpg"},
}

type seedUser struct {
	username, email, first, last string
	role                         models.Role
}

var seedUsers = []seedUser{
	{"admin", "admin@example.com", "Admin", "User", models.RoleAdmin},
	{"testuser", "test@example.com", "Test", "User", models.RoleUser},
}

// seedPassword is the password of the demo accounts.
const seedPassword = "password"

// Seed loads the demo catalog when the product table is empty and creates the
// demo accounts that do not exist yet. It is safe to run on every start.
func Seed(ctx context.Context, repos repository.Repositories, logger *zap.Logger) error {
	count, err := repos.Products.Count(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count == 0 {
		for _, sp := range seedProducts {
			p := &models.Product{
				Name:          sp.name,
				Description:   sp.description,
				Price:         decimal.RequireFromString(sp.price),
				StockQuantity: sp.stock,
				Category:      sp.category,
				ImageURL:      sp.image,
				Active:        true,
			}
			if err := repos.Products.Create(ctx, p); err != nil {
				return fmt.Errorf("seed product %q: %w", sp.name, err)
			}
		}
		logger.Info("Seeded product catalog", zap.Int("products", len(seedProducts)))
	}

	for _, su := range seedUsers {
		exists, err := repos.Users.ExistsByUsername(ctx, su.username)
		if err != nil {
			return fmt.Errorf("check user %q: %w", su.username, err)
		}
		if exists {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u := &models.User{
			Username:  su.username,
			Email:     su.email,
			Password:  string(hash),
			FirstName: su.first,
			LastName:  su.last,
			Role:      su.role,
		}
		if err := repos.Users.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %q: %w", su.username, err)
		}
		logger.Info("Seeded user", zap.String("username", su.username), zap.String("role", string(su.role)))
	}
	return nil
}

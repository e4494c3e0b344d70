package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_product_user" json:"product_id"`
	Product          Product   `gorm:"foreignKey:ProductID" json:"-"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_product_user;index" json:"user_id"`
	User             User      `gorm:"foreignKey:UserID" json:"-"`
	Rating           int       `gorm:"not null" json:"rating"`
	ReviewText       string    `gorm:"size:1000" json:"review_text"`
	VerifiedPurchase bool      `gorm:"not null;default:false" json:"verified_purchase"`
	HelpfulCount     int       `gorm:"not null;default:0" json:"helpful_count"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Stars returns a slice of length Rating for template iteration.
func (r *Review) Stars() []int {
	return make([]int, r.Rating)
}

type ReviewForm struct {
	Rating     int    `form:"rating" validate:"required,min=1,max=5"`
	ReviewText string `form:"reviewText" validate:"max=1000"`
}

// ReviewStats summarises the ratings of one product. Counts and Percentages
// are indexed by star value, index 0 is unused.
type ReviewStats struct {
	Total         int64
	AverageRating float64
	Counts        [6]int64
	Percentages   [6]float64
}

// RatingCount pairs a star value with its count, highest first.
type RatingCount struct {
	Stars      int
	Count      int64
	Percentage float64
}

func (s ReviewStats) Breakdown() []RatingCount {
	out := make([]RatingCount, 0, 5)
	for star := 5; star >= 1; star-- {
		out = append(out, RatingCount{Stars: star, Count: s.Counts[star], Percentage: s.Percentages[star]})
	}
	return out
}

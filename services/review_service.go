package services

import (
	"context"
	"errors"
	"math"
	"strings"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	aws_pkg "storefront-service/pkg/aws"
	"storefront-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReviewService interface {
	AddReview(ctx context.Context, productID, userID uuid.UUID, form *models.ReviewForm) (*models.Review, *apperrors.Error)
	UpdateReview(ctx context.Context, reviewID, userID uuid.UUID, form *models.ReviewForm) (*models.Review, *apperrors.Error)
	// DeleteReview removes a review owned by userID; admins may delete any.
	DeleteReview(ctx context.Context, reviewID, userID uuid.UUID, isAdmin bool) (*models.Review, *apperrors.Error)
	GetReview(ctx context.Context, reviewID uuid.UUID) (*models.Review, *apperrors.Error)
	ProductReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, *apperrors.Error)
	UserReviews(ctx context.Context, userID uuid.UUID) ([]models.Review, *apperrors.Error)
	// UserReviewForProduct returns nil when the user has not reviewed it.
	UserReviewForProduct(ctx context.Context, productID, userID uuid.UUID) (*models.Review, *apperrors.Error)
	CanReview(ctx context.Context, productID, userID uuid.UUID) (bool, *apperrors.Error)
	Stats(ctx context.Context, productID uuid.UUID) (*models.ReviewStats, *apperrors.Error)
	MarkHelpful(ctx context.Context, reviewID uuid.UUID) (int, *apperrors.Error)
}

type reviewServiceImpl struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	events   *EventEmitter
	metrics  MetricsRecorder
	logger   *zap.Logger
}

func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	events *EventEmitter,
	metrics MetricsRecorder,
	logger *zap.Logger,
) ReviewService {
	return &reviewServiceImpl{reviews: reviews, products: products, orders: orders, events: events, metrics: metrics, logger: logger}
}

func validateReview(form *models.ReviewForm) *apperrors.Error {
	if form.Rating < 1 || form.Rating > 5 {
		return apperrors.BadRequest("Rating must be between 1 and 5")
	}
	if len(form.ReviewText) > 1000 {
		return apperrors.BadRequest("Review text must be at most 1000 characters")
	}
	return nil
}

func (s *reviewServiceImpl) AddReview(ctx context.Context, productID, userID uuid.UUID, form *models.ReviewForm) (*models.Review, *apperrors.Error) {
	if appErr := validateReview(form); appErr != nil {
		return nil, appErr
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, apperrors.Internal("Failed to load product", err)
	}

	existing, appErr := s.UserReviewForProduct(ctx, productID, userID)
	if appErr != nil {
		return nil, appErr
	}
	if existing != nil {
		return nil, apperrors.Conflict("You have already reviewed this product")
	}

	verified, appErr := s.CanReview(ctx, productID, userID)
	if appErr != nil {
		return nil, appErr
	}

	review := &models.Review{
		ProductID:        productID,
		UserID:           userID,
		Rating:           form.Rating,
		ReviewText:       strings.TrimSpace(form.ReviewText),
		VerifiedPurchase: verified,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("You have already reviewed this product")
		}
		s.logger.Error("Failed to create review", zap.Error(err))
		return nil, apperrors.Internal("Failed to save review", err)
	}

	s.logger.Info("Review added",
		zap.String("review_id", review.ID.String()),
		zap.String("product_id", productID.String()),
		zap.Int("rating", review.Rating),
	)
	recordCount(ctx, s.metrics, aws_pkg.MetricReviewsCreated, nil)
	s.events.Emit(ctx, models.EventReviewAdded, productID.String(), models.ReviewEvent{
		ReviewID:         review.ID.String(),
		ProductID:        productID.String(),
		UserID:           userID.String(),
		Rating:           review.Rating,
		VerifiedPurchase: review.VerifiedPurchase,
	})
	return review, nil
}

// ownedReview loads a review and checks that userID wrote it.
func (s *reviewServiceImpl) ownedReview(ctx context.Context, reviewID, userID uuid.UUID, allowAdmin bool) (*models.Review, *apperrors.Error) {
	review, appErr := s.GetReview(ctx, reviewID)
	if appErr != nil {
		return nil, appErr
	}
	if review.UserID != userID && !allowAdmin {
		return nil, apperrors.Forbidden("You can only modify your own reviews")
	}
	return review, nil
}

func (s *reviewServiceImpl) UpdateReview(ctx context.Context, reviewID, userID uuid.UUID, form *models.ReviewForm) (*models.Review, *apperrors.Error) {
	if appErr := validateReview(form); appErr != nil {
		return nil, appErr
	}
	review, appErr := s.ownedReview(ctx, reviewID, userID, false)
	if appErr != nil {
		return nil, appErr
	}
	review.Rating = form.Rating
	review.ReviewText = strings.TrimSpace(form.ReviewText)
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, apperrors.Internal("Failed to update review", err)
	}
	return review, nil
}

func (s *reviewServiceImpl) DeleteReview(ctx context.Context, reviewID, userID uuid.UUID, isAdmin bool) (*models.Review, *apperrors.Error) {
	review, appErr := s.ownedReview(ctx, reviewID, userID, isAdmin)
	if appErr != nil {
		return nil, appErr
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		return nil, apperrors.Internal("Failed to delete review", err)
	}
	s.logger.Info("Review deleted", zap.String("review_id", review.ID.String()), zap.Bool("by_admin", review.UserID != userID))
	return review, nil
}

func (s *reviewServiceImpl) GetReview(ctx context.Context, reviewID uuid.UUID) (*models.Review, *apperrors.Error) {
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Review not found")
		}
		return nil, apperrors.Internal("Failed to load review", err)
	}
	return review, nil
}

func (s *reviewServiceImpl) ProductReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, *apperrors.Error) {
	reviews, err := s.reviews.FindByProduct(ctx, productID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load reviews", err)
	}
	return reviews, nil
}

func (s *reviewServiceImpl) UserReviews(ctx context.Context, userID uuid.UUID) ([]models.Review, *apperrors.Error) {
	reviews, err := s.reviews.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load reviews", err)
	}
	return reviews, nil
}

func (s *reviewServiceImpl) UserReviewForProduct(ctx context.Context, productID, userID uuid.UUID) (*models.Review, *apperrors.Error) {
	review, err := s.reviews.FindByProductAndUser(ctx, productID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("Failed to load review", err)
	}
	return review, nil
}

// CanReview reports a verified purchase: a CONFIRMED order of the user that
// contains the product.
func (s *reviewServiceImpl) CanReview(ctx context.Context, productID, userID uuid.UUID) (bool, *apperrors.Error) {
	ok, err := s.orders.HasOrderWithProduct(ctx, userID, productID, models.OrderStatusConfirmed)
	if err != nil {
		return false, apperrors.Internal("Failed to check purchase history", err)
	}
	return ok, nil
}

func (s *reviewServiceImpl) Stats(ctx context.Context, productID uuid.UUID) (*models.ReviewStats, *apperrors.Error) {
	counts, err := s.reviews.RatingCounts(ctx, productID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load review statistics", err)
	}
	stats := ComputeReviewStats(counts)
	return &stats, nil
}

// ComputeReviewStats derives totals, the average rounded to one decimal and
// per-star percentages from rating counts.
func ComputeReviewStats(counts map[int]int64) models.ReviewStats {
	var stats models.ReviewStats
	var sum int64
	for star := 1; star <= 5; star++ {
		n := counts[star]
		stats.Counts[star] = n
		stats.Total += n
		sum += int64(star) * n
	}
	if stats.Total == 0 {
		return stats
	}
	stats.AverageRating = roundTo1(float64(sum) / float64(stats.Total))
	for star := 1; star <= 5; star++ {
		stats.Percentages[star] = roundTo1(float64(stats.Counts[star]) * 100 / float64(stats.Total))
	}
	return stats
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

func (s *reviewServiceImpl) MarkHelpful(ctx context.Context, reviewID uuid.UUID) (int, *apperrors.Error) {
	n, err := s.reviews.IncrementHelpful(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.NotFound("Review not found")
		}
		return 0, apperrors.Internal("Failed to update review", err)
	}
	return n, nil
}

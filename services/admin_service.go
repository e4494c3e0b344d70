package services

import (
	"context"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const recentOrdersLimit = 5

type AdminService interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, *apperrors.Error)
}

type adminServiceImpl struct {
	repos  repository.Repositories
	logger *zap.Logger
}

func NewAdminService(repos repository.Repositories, logger *zap.Logger) AdminService {
	return &adminServiceImpl{repos: repos, logger: logger}
}

// Dashboard loads the counters and recent orders concurrently.
func (s *adminServiceImpl) Dashboard(ctx context.Context) (*models.DashboardStats, *apperrors.Error) {
	var stats models.DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalProducts, err = s.repos.Products.CountActive(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.repos.Users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalOrders, err = s.repos.Orders.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingOrders, err = s.repos.Orders.CountByStatus(gctx, models.OrderStatusPending)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentOrders, err = s.repos.Orders.Recent(gctx, recentOrdersLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load dashboard", zap.Error(err))
		return nil, apperrors.Internal("Failed to load dashboard", err)
	}
	return &stats, nil
}

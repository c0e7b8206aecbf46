package scheduler

import (
	"context"
	"time"

	"github.com/dkang/foodlane-backend/internal/app/service"
	"github.com/dkang/foodlane-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// PopularFoodsScheduler keeps the top-foods cache warm in the
// background so the read path rarely hits the store.
type PopularFoodsScheduler struct {
	cron         *cron.Cron
	popularFoods service.PopularFoodsService
	schedule     string
}

func NewPopularFoodsScheduler(popularFoods service.PopularFoodsService, schedule string) *PopularFoodsScheduler {
	return &PopularFoodsScheduler{
		cron:         cron.New(),
		popularFoods: popularFoods,
		schedule:     schedule,
	}
}

// Start registers the refresh job and runs one refresh immediately so
// the cache is warm before the first request.
func (s *PopularFoodsScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.refresh)
	if err != nil {
		logger.Error("Failed to add cron job for top-foods refresh", err)
		return err
	}

	go s.refresh()

	s.cron.Start()
	logger.Info("Popular foods scheduler started successfully", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

func (s *PopularFoodsScheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.popularFoods.Refresh(ctx); err != nil {
		logger.Error("Failed to refresh top-foods cache", err)
		return
	}

	logger.Debug("Scheduled top-foods refresh completed", nil)
}

// Stop halts the scheduler.
func (s *PopularFoodsScheduler) Stop() {
	logger.Info("Stopping popular foods scheduler...", nil)
	s.cron.Stop()
	logger.Info("Popular foods scheduler stopped", nil)
}

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/todoauth/internal/todo/metrics"
	"github.com/aussiebroadwan/todoauth/internal/todo/store"
)

// HousekeepingService periodically evicts expired refresh registry entries
// so the registry stays bounded.
type HousekeepingService struct {
	Registry store.RefreshRegistry
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(registry store.RefreshRegistry, m *metrics.Metrics, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Registry: registry,
		Metrics:  m,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep runs one eviction pass and returns how many entries were removed.
func (s *HousekeepingService) Sweep(ctx context.Context) int {
	removed, err := s.Registry.DeleteExpired(ctx)
	if err != nil {
		s.Logger.Error("failed to delete expired refresh handles", "error", err)
	}
	s.Metrics.Swept(removed)

	s.Logger.Debug("housekeeping sweep completed",
		"removed", removed,
		"remaining", s.Registry.Len(),
	)
	return removed
}

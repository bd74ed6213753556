// Package jobs holds background tasks run on a gocron scheduler.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"billdesk/internal/domain"
	"billdesk/internal/metrics"
	"billdesk/internal/repository"
	logx "billdesk/pkg/logger"
)

// InventoryReporter publishes denomination counts as gauges and warns about empty slots.
type InventoryReporter struct {
	denoms  repository.DenominationRepository
	timeout time.Duration
}

func NewInventoryReporter(denoms repository.DenominationRepository) *InventoryReporter {
	return &InventoryReporter{denoms: denoms, timeout: 10 * time.Second}
}

// Run takes one snapshot of the drawer and returns the empty denominations.
func (r *InventoryReporter) Run(ctx context.Context) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	list, err := r.denoms.ListDesc(ctx)
	if err != nil {
		return nil, err
	}
	metrics.SetInventory(list)
	return emptyValues(list), nil
}

func emptyValues(list []domain.Denomination) []int64 {
	var out []int64
	for _, d := range list {
		if d.Count == 0 {
			out = append(out, d.Value)
		}
	}
	return out
}

// Start schedules Run every interval and returns the running scheduler; callers Stop it.
func (r *InventoryReporter) Start(interval time.Duration) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(interval).Do(func() {
		empty, err := r.Run(context.Background())
		if err != nil {
			logx.Error().Err(err).Msg("inventory report failed")
			return
		}
		if len(empty) > 0 {
			logx.Warn().Ints64("values", empty).Msg("denominations out of stock")
		}
	})
	if err != nil {
		return nil, err
	}
	s.StartAsync()
	return s, nil
}

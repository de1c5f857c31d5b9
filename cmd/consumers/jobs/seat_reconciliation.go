package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tourdesk/internal/metrics"
	"tourdesk/internal/models"

	"github.com/google/uuid"
)

const DefaultReconcileInterval = 5 * time.Minute

type DriftFinder interface {
	FindSeatDrift(ctx context.Context) ([]models.SeatDrift, error)
}

type SlotReconciler interface {
	ReconcileSlot(ctx context.Context, slotID uuid.UUID, fix bool) (*models.SeatDrift, error)
}

// SeatReconciliationJob compares each slot's reserved seats with the seats
// held by its reservations. With fix set it rewrites the stored count.
type SeatReconciliationJob struct {
	finder     DriftFinder
	reconciler SlotReconciler
	interval   time.Duration
	fix        bool

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func NewSeatReconciliationJob(finder DriftFinder, reconciler SlotReconciler, interval time.Duration, fix bool) *SeatReconciliationJob {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &SeatReconciliationJob{
		finder:     finder,
		reconciler: reconciler,
		interval:   interval,
		fix:        fix,
		done:       make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval until Stop or ctx ends
func (j *SeatReconciliationJob) Start(ctx context.Context) {
	slog.Info("Starting seat reconciliation job", "interval", j.interval.String(), "fix", j.fix)

	j.ticker = time.NewTicker(j.interval)

	go func() {
		j.RunOnce(ctx)
		for {
			select {
			case <-j.ticker.C:
				j.RunOnce(ctx)
			case <-ctx.Done():
				return
			case <-j.done:
				slog.Info("Seat reconciliation job stopped")
				return
			}
		}
	}()
}

func (j *SeatReconciliationJob) Stop() {
	j.stopOnce.Do(func() {
		if j.ticker != nil {
			j.ticker.Stop()
		}
		close(j.done)
	})
}

// RunOnce checks every slot and returns how many drifted
func (j *SeatReconciliationJob) RunOnce(ctx context.Context) int {
	drifts, err := j.finder.FindSeatDrift(ctx)
	if err != nil {
		slog.Error("Failed to scan for seat drift", "error", err)
		return 0
	}
	if len(drifts) == 0 {
		slog.Debug("No seat drift found")
		return 0
	}

	slog.Warn("Found slots with seat drift", "count", len(drifts))

	found := 0
	for _, d := range drifts {
		// Re-check under the slot lock; the scan above is not transactional
		drift, err := j.reconciler.ReconcileSlot(ctx, d.SlotID, j.fix)
		if err != nil {
			metrics.SeatDrift.WithLabelValues("failed").Inc()
			slog.Error("Failed to reconcile slot",
				"error", err, "slot_id", d.SlotID, "stored", d.Stored, "actual", d.Actual)
			continue
		}
		if drift == nil {
			continue
		}

		found++
		action := "reported"
		if j.fix {
			action = "fixed"
		}
		metrics.SeatDrift.WithLabelValues(action).Inc()
		slog.Warn("Seat drift "+action,
			"slot_id", drift.SlotID,
			"organization_id", drift.OrganizationID,
			"stored", drift.Stored,
			"actual", drift.Actual,
			"total_seats", drift.TotalSeats)
	}
	return found
}

package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/utils/logging"
)

// Reclassifier re-derives stored ratings from the active scoring ranges
type Reclassifier interface {
	ReclassifyAll(ctx context.Context) (int, error)
}

// ReclassifyWorker periodically re-derives the stored ratings of assessed
// risks, catching range edits made outside this process.
//
// Assumes a single server instance; concurrent instances re-derive the same
// risks with the same result.
type ReclassifyWorker struct {
	scoring  Reclassifier
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewReclassifyWorker creates a worker running every interval
func NewReclassifyWorker(scoring Reclassifier, interval time.Duration) *ReclassifyWorker {
	return &ReclassifyWorker{
		scoring:  scoring,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background loop. The first pass runs immediately in the
// background and does not block server startup.
func (w *ReclassifyWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("reclassify interval must be positive", goerr.V("interval", w.interval))
	}

	logging.Default().Info("Reclassify worker starting", "interval", w.interval.String())
	go w.run(ctx)
	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *ReclassifyWorker) Stop() {
	logging.Default().Info("Reclassify worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Reclassify worker stopped")
}

func (w *ReclassifyWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.reclassify(ctx); err != nil {
		logging.Default().Error("Initial reclassify failed (will retry next interval)", "error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.reclassify(ctx); err != nil {
				logging.Default().Error("Reclassify failed (will retry next interval)", "error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Reclassify worker context cancelled")
			return
		}
	}
}

func (w *ReclassifyWorker) reclassify(ctx context.Context) error {
	startTime := time.Now()

	n, err := w.scoring.ReclassifyAll(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to re-derive stored ratings")
	}

	logging.Default().Info("Reclassify completed",
		"updated", n,
		"duration", time.Since(startTime).String())
	return nil
}

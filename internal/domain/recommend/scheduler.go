// internal/domain/recommend/scheduler.go
package recommend

import (
	"context"
	"time"
)

// RunScheduler rebuilds the model on startup and then on a fixed
// interval until the context is cancelled.
func (e *Engine) RunScheduler(ctx context.Context) {
	interval := e.config.Recommend.Interval
	e.logger.WithField("interval", interval.String()).Info("Recommendation scheduler started")

	if err := e.ComputeSimilarity(ctx); err != nil && ctx.Err() == nil {
		e.logger.WithError(err).Error("initial recommendation rebuild failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Recommendation scheduler stopped")
			return
		case <-ticker.C:
			if err := e.ComputeSimilarity(ctx); err != nil && ctx.Err() == nil {
				e.logger.WithError(err).Error("recommendation rebuild failed")
			}
		}
	}
}

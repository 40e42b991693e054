package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Purger is satisfied by *store.Readings
type Purger interface {
	PurgeReadings(ctx context.Context, before time.Time) (int64, error)
}

// ReadingRetention periodically deletes readings older than keep. It
// blocks until ctx is cancelled.
func ReadingRetention(ctx context.Context, every, keep time.Duration, p Purger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	zap.L().Debug("Reading retention attached", zap.Duration("tick_every", every), zap.Duration("keep", keep))

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			PurgeOnce(ctx, now.Add(-keep), p)
		}
	}
}

// PurgeOnce runs a single retention pass and logs the outcome
func PurgeOnce(ctx context.Context, before time.Time, p Purger) int64 {
	n, err := p.PurgeReadings(ctx, before)
	if err != nil {
		zap.L().Error("Failed to purge old readings", zap.Error(err))
		return 0
	}

	if n > 0 {
		zap.L().Info("Purged old readings", zap.Int64("count", n), zap.Time("before", before))
	}

	return n
}

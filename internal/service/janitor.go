package service

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/timevault-dev/timevault/internal/logger"
)

// MediaJanitor retries media deletions that failed after a committed
// capsule delete. The record deletion stays authoritative; this loop only
// chases the orphaned binaries.
type MediaJanitor struct {
	media MediaStorage
	queue CleanupQueue
}

func NewMediaJanitor(media MediaStorage, queue CleanupQueue) *MediaJanitor {
	return &MediaJanitor{media: media, queue: queue}
}

// StartBackgroundRetry runs RunOnce on a ticker until ctx is cancelled.
func (j *MediaJanitor) StartBackgroundRetry(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started media cleanup retry loop", "interval", interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deleted, requeued, err := j.RunOnce(ctx)
				if err != nil {
					logger.Log.Error("media cleanup cycle failed", "error", err)
				} else if deleted+requeued > 0 {
					logger.Log.Info("media cleanup cycle done", "deleted", deleted, "requeued", requeued)
				}
			case <-ctx.Done():
				logger.Log.Info("media cleanup retry loop shutting down")
				return
			}
		}
	}()
}

// RunOnce drains the queue. Entries that fail again are requeued and the
// cycle stops so a persistently failing backend doesn't spin hot.
func (j *MediaJanitor) RunOnce(ctx context.Context) (deleted, requeued int, err error) {
	for {
		ref, err := j.queue.Dequeue(ctx)
		if err != nil {
			return deleted, requeued, err
		}
		if ref == nil {
			return deleted, requeued, nil
		}

		if err := j.media.Delete(ctx, ref.CapsuleId, ref.Name); err != nil && !goerrors.Is(err, ErrMediaNotFound) {
			if qErr := j.queue.Enqueue(ctx, *ref); qErr != nil {
				logger.Log.Error("lost media cleanup entry",
					"capsuleId", ref.CapsuleId, "image", ref.Name, "error", qErr)
			}
			requeued++
			return deleted, requeued, nil
		}
		deleted++
	}
}

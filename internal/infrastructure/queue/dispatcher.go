package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/rewarddesk/coupon-service/internal/api/metrics"
	"github.com/rewarddesk/coupon-service/internal/core/domain"
	"github.com/rewarddesk/coupon-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ActivityDispatcher appends audit records off the claim path. Records are
// routed to a fixed set of workers by consistent hashing on the identity,
// guaranteeing per-identity ordering of the audit trail.
type ActivityDispatcher struct {
	workers []chan domain.ActivityRecord
	repo    ports.ActivityRepository
	log     zerolog.Logger
}

// NewActivityDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewActivityDispatcher(numWorkers int, repo ports.ActivityRepository, log zerolog.Logger) *ActivityDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &ActivityDispatcher{
		workers: make([]chan domain.ActivityRecord, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ActivityRecord, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *ActivityDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record enqueues one audit entry, stamped now. Satisfies the redemption
// service's ActivityRecorder. The call is non-blocking up to channelBuffer
// capacity.
func (d *ActivityDispatcher) Record(identity, handle, action string) {
	idx := d.shardIndex(identity)
	d.workers[idx] <- domain.ActivityRecord{
		Identity:  identity,
		Handle:    handle,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
	metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps an identity deterministically to a worker index.
func (d *ActivityDispatcher) shardIndex(identity string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identity))
	return int(h.Sum32()) % len(d.workers)
}

func (d *ActivityDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ActivityRecord) {
	for {
		select {
		case <-ctx.Done():
			return
		case record, ok := <-ch:
			if !ok {
				return
			}
			if err := d.repo.Insert(ctx, &record); err != nil {
				// Audit append failures are logged, never escalated: losing an
				// audit row must not fail a claim that already completed.
				d.log.Error().Err(err).
					Str("identity", record.Identity).
					Str("action", record.Action).
					Int("worker_id", id).
					Msg("activity append failed")
			}
			metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}

// Package ingest batches activity records on their way to storage so that
// request handlers never wait on the database.
package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"example.com/campaignai/internal/domain"
	"example.com/campaignai/internal/idempotency"
)

// BatchWriter persists a batch and reports how many rows were inserted.
type BatchWriter interface {
	InsertBatch(ctx context.Context, items []domain.Activity) (int64, error)
}

type Ingestor struct {
	queue        chan domain.Activity
	writer       BatchWriter
	batchMaxSize int
	batchMaxWait time.Duration
	log          *zap.Logger
	done         chan struct{}
	startOnce    sync.Once
}

func NewIngestor(writer BatchWriter, queueMaxSize, batchMaxSize int, batchMaxWait time.Duration, log *zap.Logger) *Ingestor {
	if batchMaxSize <= 0 {
		batchMaxSize = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{
		queue:        make(chan domain.Activity, queueMaxSize),
		writer:       writer,
		batchMaxSize: batchMaxSize,
		batchMaxWait: batchMaxWait,
		log:          log.Named("ingest"),
		done:         make(chan struct{}),
	}
}

// Start launches the flush loop. It runs until ctx is done, flushing what is
// buffered on the way out. Done is closed once the loop has exited.
func (ig *Ingestor) Start(ctx context.Context) {
	ig.startOnce.Do(func() { go ig.run(ctx) })
}

// Done is closed after the flush loop returns.
func (ig *Ingestor) Done() <-chan struct{} { return ig.done }

func (ig *Ingestor) run(ctx context.Context) {
	defer close(ig.done)

	batch := make([]domain.Activity, 0, ig.batchMaxSize)
	t := time.NewTimer(ig.batchMaxWait)
	defer t.Stop()

	resetTimer := func() {
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		t.Reset(ig.batchMaxWait)
	}

	flush := func(wctx context.Context) {
		if len(batch) == 0 {
			resetTimer()
			return
		}
		affected, err := ig.writer.InsertBatch(wctx, batch)
		if err != nil {
			ig.log.Error("batch insert failed", zap.Error(err), zap.Int("dropped", len(batch)))
		} else {
			ig.log.Debug("batch insert ok", zap.Int64("inserted", affected), zap.Int("size", len(batch)))
		}
		batch = batch[:0]
		resetTimer()
	}

	for {
		select {
		case <-ctx.Done():
			// Drain what is already queued, then write it with a short grace period.
		drain:
			for {
				select {
				case a := <-ig.queue:
					batch = append(batch, a)
				default:
					break drain
				}
			}
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			flush(fctx)
			cancel()
			return
		case a := <-ig.queue:
			batch = append(batch, a)
			if len(batch) >= ig.batchMaxSize {
				flush(ctx)
			}
		case <-t.C:
			flush(ctx)
		}
	}
}

// Enqueue stamps a with its idempotency key and queues it. It never blocks;
// false means a was dropped because the queue is full or the flush loop has
// already exited.
func (ig *Ingestor) Enqueue(a domain.Activity) bool {
	select {
	case <-ig.done:
		ig.log.Warn("ingestor stopped, activity dropped", zap.String("event_name", a.EventName))
		return false
	default:
	}
	idempotency.Stamp(&a)
	select {
	case ig.queue <- a:
		return true
	default:
		ig.log.Warn("queue full, activity dropped", zap.String("event_name", a.EventName))
		return false
	}
}

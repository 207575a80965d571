// Package ingest feeds message embeddings into the vector index in the
// background. A bounded queue and a small worker pool keep ingestion from
// starving interactive requests; a weighted semaphore caps concurrent
// outbound embedding calls.
package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/mnemos/store"
)

const (
	queueCapacity    = 100
	workerCount      = 4
	embedConcurrency = 5

	backfillBatchSize = 200
)

var (
	ingestedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnemos_embedding_ingested_total",
		Help: "Number of messages successfully embedded.",
	})
	failedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnemos_embedding_failed_total",
		Help: "Number of messages whose embedding failed.",
	})
	droppedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mnemos_embedding_dropped_total",
		Help: "Number of enqueue attempts rejected by a full queue.",
	})
)

// Embedder is the outbound embedding capability. *embedding.Provider is the
// production implementation.
type Embedder interface {
	Model() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Pipeline ingests message embeddings asynchronously.
type Pipeline struct {
	store    *store.Store
	embedder Embedder

	queue chan string
	sem   *semaphore.Weighted
	wg    sync.WaitGroup

	cancel context.CancelFunc
}

// NewPipeline creates an ingest pipeline. The embedder must be non-nil;
// callers skip construction entirely when embeddings are disabled.
func NewPipeline(st *store.Store, embedder Embedder) *Pipeline {
	return &Pipeline{
		store:    st,
		embedder: embedder,
		queue:    make(chan string, queueCapacity),
		sem:      semaphore.NewWeighted(embedConcurrency),
	}
}

// Start launches the worker pool. Workers run until Stop is called or the
// parent context is canceled.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	slog.Info("embedding ingest pipeline started", "workers", workerCount, "queue_capacity", queueCapacity)
}

// Stop cancels the workers and waits for in-flight work to finish.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Enqueue schedules a message for embedding. Returns false when the queue is
// full; the message stays unembedded until the next backfill pass.
func (p *Pipeline) Enqueue(messageID string) bool {
	select {
	case p.queue <- messageID:
		return true
	default:
		droppedCounter.Inc()
		slog.Warn("embedding queue full, dropping message", "message", messageID)
		return false
	}
}

// Backfill enqueues stored messages that have no embedding yet. Used at
// startup and as a safety net for dropped enqueues.
func (p *Pipeline) Backfill(ctx context.Context) (int, error) {
	messages, err := p.store.FindMessagesWithoutEmbedding(ctx, &store.FindMessagesWithoutEmbedding{
		Model: p.embedder.Model(),
		Limit: backfillBatchSize,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to find messages without embedding")
	}

	enqueued := 0
	for _, message := range messages {
		if !p.Enqueue(message.ID) {
			break
		}
		enqueued++
	}
	return enqueued, nil
}

func (p *Pipeline) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case messageID := <-p.queue:
			if err := p.process(ctx, messageID); err != nil {
				failedCounter.Inc()
				slog.Warn("failed to embed message", "message", messageID, "err", err)
				continue
			}
			ingestedCounter.Inc()
		}
	}
}

func (p *Pipeline) process(ctx context.Context, messageID string) error {
	message, err := p.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if message.Content == "" {
		return nil
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	vector, err := p.embedder.Embed(ctx, message.Content)
	p.sem.Release(1)
	if err != nil {
		return errors.Wrap(err, "embedding call failed")
	}

	_, err = p.store.UpsertMessageEmbedding(ctx, &store.MessageEmbedding{
		MessageID: message.ID,
		Model:     p.embedder.Model(),
		Embedding: vector,
	})
	return err
}

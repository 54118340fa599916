package service

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"example.com/backstage/services/farm/internal/metrics"
	"example.com/backstage/services/farm/internal/models"
	"example.com/backstage/services/farm/internal/search"
)

// ReadingIndexer mirrors persisted readings into Elasticsearch from a
// buffered worker pool. Indexing is best effort: the database row is the
// source of truth, and a full queue drops the job rather than blocking
// ingestion.
type ReadingIndexer struct {
	search *search.ElasticClient
	log    *logrus.Logger
	queue  chan *models.Reading
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

// NewReadingIndexer creates the indexer and starts its workers
func NewReadingIndexer(search *search.ElasticClient, log *logrus.Logger, workers, queueSize int) *ReadingIndexer {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	ctx, cancel := context.WithCancel(context.Background())
	ri := &ReadingIndexer{
		search: search,
		log:    log,
		queue:  make(chan *models.Reading, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < workers; i++ {
		ri.wg.Add(1)
		go ri.worker()
	}
	go ri.monitorQueueDepth()

	return ri
}

// Enqueue schedules a reading for indexing. A full queue drops the job with
// a warning; the reading stays queryable from the database.
func (ri *ReadingIndexer) Enqueue(reading *models.Reading) {
	if ri.search == nil || !ri.search.Enabled() {
		return
	}

	ri.mu.Lock()
	defer ri.mu.Unlock()
	if ri.stopped {
		return
	}

	select {
	case ri.queue <- reading:
	default:
		ri.log.WithField("reading_id", reading.ID).Warn("Indexer queue full, dropping reading")
		metrics.GetMetricsCollector().RecordIndexing(false, true)
	}
}

// worker drains the queue until it is closed
func (ri *ReadingIndexer) worker() {
	defer ri.wg.Done()
	for reading := range ri.queue {
		ri.index(reading)
	}
}

// index writes one reading document, retrying transient failures with
// exponential backoff
func (ri *ReadingIndexer) index(reading *models.Reading) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		ctx, cancel := context.WithTimeout(ri.ctx, 5*time.Second)
		defer cancel()
		return ri.search.IndexReading(ctx, reading)
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ri.ctx)); err != nil {
		ri.log.WithError(err).WithField("reading_id", reading.ID).Warn("Failed to index reading")
		metrics.GetMetricsCollector().RecordIndexing(false, false)
		metrics.GetMetricsCollector().RecordError(metrics.ErrorTypeSearch)
		return
	}
	metrics.GetMetricsCollector().RecordIndexing(true, false)
}

// monitorQueueDepth exports the queue depth gauge while the indexer runs
func (ri *ReadingIndexer) monitorQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ri.ctx.Done():
			return
		case <-ticker.C:
			metrics.GetMetricsCollector().SetIndexerQueueDepth(len(ri.queue))
		}
	}
}

// Stop flushes the queue and stops the workers. Safe to call more than once.
func (ri *ReadingIndexer) Stop() {
	ri.mu.Lock()
	if ri.stopped {
		ri.mu.Unlock()
		return
	}
	ri.stopped = true
	ri.mu.Unlock()

	close(ri.queue)
	ri.wg.Wait()
	ri.cancel()
	ri.log.Info("Reading indexer stopped")
}

package enrich

import (
	"context"
	"log/slog"

	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/pipeline"
	"github.com/vinolog/vinolog/storage"
)

// defaultScanBatch bounds how many wines one sweep queues.
const defaultScanBatch = 50

// Scanner sweeps the catalog for wines with missing metadata and queues
// them for enrichment. Safe to run repeatedly: enqueues are idempotent per
// wine while a job is live.
type Scanner struct {
	catalog   storage.Catalog
	queue     storage.EnrichmentQueue
	batchSize int
	logger    *slog.Logger
}

// NewScanner creates a catalog scanner. batchSize <= 0 uses the default.
func NewScanner(catalog storage.Catalog, queue storage.EnrichmentQueue, batchSize int) (*Scanner, error) {
	if catalog == nil {
		return nil, pipeline.ErrCatalogRequired
	}
	if queue == nil {
		return nil, pipeline.ErrEnrichmentQueueRequired
	}
	if batchSize <= 0 {
		batchSize = defaultScanBatch
	}
	return &Scanner{
		catalog:   catalog,
		queue:     queue,
		batchSize: batchSize,
		logger:    slog.Default().With("component", "enrich_scanner"),
	}, nil
}

// ScanOnce queues up to one batch of wines needing enrichment, returning
// how many new jobs were created.
func (s *Scanner) ScanOnce(ctx context.Context) (int, error) {
	wines, err := s.catalog.ListWinesMissingMetadata(ctx, s.batchSize)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, wine := range wines {
		producer, err := s.catalog.GetProducer(ctx, wine.ProducerId)
		if err != nil {
			s.logger.Warn("skipping wine with missing producer", "wine_id", wine.Id, "err", err)
			continue
		}

		key := core.IdempotencyKey(0, producer.Name, wine.Name, 0, "enrichment")
		_, created, err := s.queue.EnqueueEnrichment(ctx, &core.EnrichmentJob{
			WineId:         wine.Id,
			IdempotencyKey: key,
		})
		if err != nil {
			s.logger.Error("error queueing enrichment", "wine_id", wine.Id, "err", err)
			continue
		}
		if created {
			queued++
		}
	}

	if queued > 0 {
		s.logger.Info("queued wines for enrichment", "count", queued)
	}
	return queued, nil
}

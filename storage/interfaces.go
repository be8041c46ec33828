package storage

import (
	"context"
	"time"

	"github.com/vinolog/vinolog/core"
)

// ScanQueue manages the lifecycle of label scan jobs.
// Implementations must be thread-safe and support concurrent access.
type ScanQueue interface {
	// EnqueueScan adds a scan job to the queue. If the job carries an
	// idempotency key that matches a live (non-terminal) job, the existing
	// job is returned and created is false. Generates the ID, sets
	// CreatedAt and the pending status.
	EnqueueScan(ctx context.Context, job *core.ScanJob) (result *core.ScanJob, created bool, err error)

	// ClaimScans atomically claims up to limit pending jobs, oldest first,
	// moving them to processing. Two concurrent callers never receive the
	// same job; a caller that loses the race receives an empty batch.
	ClaimScans(ctx context.Context, limit int) ([]*core.ScanJob, error)

	// CompleteScan moves a processing job to completed and records the
	// resolved data. Returns ErrNotFound if the job doesn't exist.
	CompleteScan(ctx context.Context, id core.ID, data core.ProcessedData) error

	// MarkScanRetry increments the job's retry count and either re-queues
	// it (requeued true) or, when the count exceeds maxRetries, moves it
	// to failed. The cause is kept on the job either way.
	MarkScanRetry(ctx context.Context, id core.ID, cause string, maxRetries int) (requeued bool, err error)

	// MarkScanFailed moves a processing job straight to failed, bypassing
	// the retry budget. Used for permanent errors.
	MarkScanFailed(ctx context.Context, id core.ID, cause string) error

	// GetScan retrieves a single scan job by ID.
	// Returns ErrNotFound if the job doesn't exist.
	GetScan(ctx context.Context, id core.ID) (*core.ScanJob, error)

	// CountScansByStatus returns the number of jobs in each status.
	CountScansByStatus(ctx context.Context) (map[core.JobStatus]int, error)

	// ReclaimStuck re-queues processing jobs older than the given age.
	// Covers workers that died mid-job. Returns the number re-queued.
	ReclaimStuck(ctx context.Context, olderThan time.Duration) (int, error)

	// Close releases queue resources.
	Close() error
}

// EmbeddingQueue manages embedding generation jobs, fed by completed scans.
type EmbeddingQueue interface {
	// EnqueueEmbedding adds an embedding job to the queue.
	EnqueueEmbedding(ctx context.Context, job *core.EmbeddingJob) (*core.EmbeddingJob, error)

	// ClaimEmbeddings atomically claims up to limit pending jobs, oldest
	// first. Claim exclusivity matches ScanQueue.ClaimScans.
	ClaimEmbeddings(ctx context.Context, limit int) ([]*core.EmbeddingJob, error)

	// CompleteEmbedding moves a processing job to completed.
	CompleteEmbedding(ctx context.Context, id core.ID) error

	// MarkEmbeddingRetry increments the retry count and re-queues or fails
	// the job, mirroring ScanQueue.MarkScanRetry.
	MarkEmbeddingRetry(ctx context.Context, id core.ID, cause string, maxRetries int) (requeued bool, err error)

	// MarkEmbeddingFailed moves a processing job straight to failed.
	MarkEmbeddingFailed(ctx context.Context, id core.ID, cause string) error

	// GetEmbeddingJob retrieves a single embedding job by ID.
	GetEmbeddingJob(ctx context.Context, id core.ID) (*core.EmbeddingJob, error)

	// Close releases queue resources.
	Close() error
}

// EnrichmentQueue manages metadata backfill jobs for resolved wines.
type EnrichmentQueue interface {
	// EnqueueEnrichment adds an enrichment job. Jobs are deduplicated by
	// idempotency key against live jobs, like ScanQueue.EnqueueScan.
	EnqueueEnrichment(ctx context.Context, job *core.EnrichmentJob) (result *core.EnrichmentJob, created bool, err error)

	// ClaimEnrichments atomically claims up to limit pending jobs,
	// highest priority first, then oldest first.
	ClaimEnrichments(ctx context.Context, limit int) ([]*core.EnrichmentJob, error)

	// CompleteEnrichment moves a processing job to completed.
	CompleteEnrichment(ctx context.Context, id core.ID) error

	// MarkEnrichmentRetry increments the retry count and re-queues or
	// fails the job.
	MarkEnrichmentRetry(ctx context.Context, id core.ID, cause string, maxRetries int) (requeued bool, err error)

	// MarkEnrichmentFailed moves a processing job straight to failed.
	MarkEnrichmentFailed(ctx context.Context, id core.ID, cause string) error

	// Close releases queue resources.
	Close() error
}

// Catalog stores the resolved wine entities: producers, wines, vintages and
// varietals. Name matching is case-insensitive substring containment in both
// directions, so "Villa Oliveira" matches an existing "Villa Oliveira Lda".
type Catalog interface {
	// FindProducerMatching returns the first producer whose name matches.
	// Returns ErrNotFound when no producer matches.
	FindProducerMatching(ctx context.Context, name string) (*core.Producer, error)

	// UpsertProducer finds a matching producer or atomically creates one.
	// created reports whether a new row was written. The region is only
	// stored on creation; an existing producer's region is never changed.
	UpsertProducer(ctx context.Context, name, region string) (producer *core.Producer, created bool, err error)

	// GetProducer retrieves a producer by ID.
	// Returns ErrNotFound if it doesn't exist.
	GetProducer(ctx context.Context, id core.ID) (*core.Producer, error)

	// FindWineMatching returns the first wine under the producer whose
	// name matches. Returns ErrNotFound when no wine matches.
	FindWineMatching(ctx context.Context, producerID core.ID, name string) (*core.Wine, error)

	// CreateWine adds a new wine row under its producer.
	CreateWine(ctx context.Context, wine *core.Wine) (*core.Wine, error)

	// GetWine retrieves a wine by ID.
	// Returns ErrNotFound if it doesn't exist.
	GetWine(ctx context.Context, id core.ID) (*core.Wine, error)

	// UpdateWineMetadata merges enrichment metadata into a wine. Only
	// fields that are currently empty are written; populated fields are
	// never overwritten. Returns the wine as stored afterwards.
	UpdateWineMetadata(ctx context.Context, id core.ID, wineType, color, style string, foodPairings []string) (*core.Wine, error)

	// ListWinesMissingMetadata returns up to limit wines with at least one
	// empty enrichment field, oldest first.
	ListWinesMissingMetadata(ctx context.Context, limit int) ([]*core.Wine, error)

	// GetOrCreateVintage returns the (wine, year) vintage, creating it if
	// absent. Year 0 marks a non-vintage bottle and always creates a
	// fresh row. created reports whether a new row was written.
	GetOrCreateVintage(ctx context.Context, wineID core.ID, year int) (vintage *core.Vintage, created bool, err error)

	// GetVintage retrieves a vintage by ID.
	// Returns ErrNotFound if it doesn't exist.
	GetVintage(ctx context.Context, id core.ID) (*core.Vintage, error)

	// AddVarietals records grape varieties for a vintage, skipping names
	// already present (case-insensitive). Returns the rows written.
	AddVarietals(ctx context.Context, vintageID core.ID, names ...string) ([]*core.Varietal, error)

	// ListVarietals returns the varietals recorded for a vintage.
	ListVarietals(ctx context.Context, vintageID core.ID) ([]*core.Varietal, error)

	// Close releases catalog resources.
	Close() error
}

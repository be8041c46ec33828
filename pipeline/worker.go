// Copyright 2025 Vinolog Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/vinolog/vinolog/ai"
	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/resolve"
	"github.com/vinolog/vinolog/storage"
)

// Worker drains the scan queue: it claims pending scan jobs, runs label
// extraction and entity resolution on each, and feeds the embedding and
// enrichment queues with follow-up work.
type Worker struct {
	scans       storage.ScanQueue
	embeddings  storage.EmbeddingQueue
	enrichments storage.EnrichmentQueue
	resolver    *resolve.Resolver
	extractor   ai.LabelExtractor
	pool        *ants.Pool
	config      Config
	logger      *slog.Logger
}

// Config tunes the worker loop.
type Config struct {
	// BatchSize is how many jobs one poll claims. Default 8.
	BatchSize int
	// PollInterval is the queue polling period. Default 2s.
	PollInterval time.Duration
	// MaxRetries is the per-job retry budget. Default 3.
	MaxRetries int
	// PoolSize is the number of concurrent job processors.
	// Default is runtime.NumCPU() / 2, with a minimum of 1.
	PoolSize int
	// ReclaimAfter re-queues processing jobs stuck longer than this.
	// Zero disables reclaiming. Default off.
	ReclaimAfter time.Duration
}

// DefaultConfig returns the worker defaults.
func DefaultConfig() Config {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	return Config{
		BatchSize:    8,
		PollInterval: 2 * time.Second,
		MaxRetries:   3,
		PoolSize:     poolSize,
	}
}

// Option configures a Worker.
type Option func(*Worker) error

// WithConfig replaces the worker defaults wholesale. Zero fields fall back
// to their defaults.
func WithConfig(config Config) Option {
	return func(w *Worker) error {
		defaults := DefaultConfig()
		if config.BatchSize <= 0 {
			config.BatchSize = defaults.BatchSize
		}
		if config.PollInterval <= 0 {
			config.PollInterval = defaults.PollInterval
		}
		if config.MaxRetries <= 0 {
			config.MaxRetries = defaults.MaxRetries
		}
		if config.PoolSize <= 0 {
			config.PoolSize = defaults.PoolSize
		}
		w.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWorker creates a scan worker.
func NewWorker(
	scans storage.ScanQueue,
	embeddings storage.EmbeddingQueue,
	enrichments storage.EnrichmentQueue,
	resolver *resolve.Resolver,
	extractor ai.LabelExtractor,
	opts ...Option,
) (*Worker, error) {
	if scans == nil {
		return nil, ErrScanQueueRequired
	}
	if embeddings == nil {
		return nil, ErrEmbeddingQueueRequired
	}
	if enrichments == nil {
		return nil, ErrEnrichmentQueueRequired
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if extractor == nil {
		return nil, ErrProviderRequired
	}

	w := &Worker{
		scans:       scans,
		embeddings:  embeddings,
		enrichments: enrichments,
		resolver:    resolver,
		extractor:   extractor,
		config:      DefaultConfig(),
		logger:      slog.Default().With("component", "scan_worker"),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(w.config.PoolSize)
	if err != nil {
		return nil, err
	}
	w.pool = pool
	return w, nil
}

// Run polls the queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.logger.Info("scan worker started",
		"batch_size", w.config.BatchSize,
		"poll_interval", w.config.PollInterval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("scan worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if w.config.ReclaimAfter > 0 {
				if _, err := w.scans.ReclaimStuck(ctx, w.config.ReclaimAfter); err != nil {
					w.logger.Error("error reclaiming stuck jobs", "err", err)
				}
			}
			if _, err := w.ProcessOnce(ctx); err != nil {
				w.logger.Error("error processing batch", "err", err)
			}
		}
	}
}

// ProcessOnce claims one batch and processes it, returning how many jobs
// were claimed. It waits for the batch to finish, so a caller driving the
// worker manually sees all effects before the next call.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	jobs, err := w.scans.ClaimScans(ctx, w.config.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	var wg sync.WaitGroup
	for _, job := range jobs {
		job := job
		wg.Add(1)
		err := w.pool.Submit(func() {
			defer wg.Done()
			w.processJob(ctx, job)
		})
		if err != nil {
			wg.Done()
			w.logger.Error("error submitting job", "job_id", job.Id, "err", err)
			if _, rerr := w.scans.MarkScanRetry(ctx, job.Id, err.Error(), w.config.MaxRetries); rerr != nil {
				w.logger.Error("error re-queueing job", "job_id", job.Id, "err", rerr)
			}
		}
	}
	wg.Wait()
	return len(jobs), nil
}

func (w *Worker) processJob(ctx context.Context, job *core.ScanJob) {
	logger := w.logger.With("job_id", job.Id)

	label, err := w.extractor.ExtractLabel(ctx, job.ImageURL, job.OCRText)
	if err != nil {
		w.settleFailure(ctx, job, err)
		return
	}

	resolution, err := w.resolver.Resolve(ctx, label)
	if err != nil {
		w.settleFailure(ctx, job, err)
		return
	}

	if resolution.DegradedToText {
		logger.Warn("resolved without identity index")
	}

	w.enqueueFollowUps(ctx, job, label, resolution)

	data := core.ProcessedData{
		ProducerId:   resolution.Producer.Id,
		WineId:       resolution.Wine.Id,
		VintageId:    resolution.Vintage.Id,
		ProducerName: resolution.Producer.Name,
		WineName:     resolution.Wine.Name,
		Year:         label.Year,
		Region:       label.Region,
		Country:      label.Country,
		Varietal:     label.Varietal,
		Confidence:   label.Confidence,
	}
	if err := w.scans.CompleteScan(ctx, job.Id, data); err != nil {
		logger.Error("error completing scan", "err", err)
		return
	}

	logger.Info("scan resolved",
		"producer", resolution.Producer.Name,
		"wine", resolution.Wine.Name,
		"year", label.Year,
		"wine_created", resolution.WineCreated,
		"merged", resolution.MergedByIdentity)
}

// maxCauseLen bounds stored error messages.
const maxCauseLen = 500

// settleFailure routes a processing error to retry, fail, or skip.
func (w *Worker) settleFailure(ctx context.Context, job *core.ScanJob, cause error) {
	logger := w.logger.With("job_id", job.Id)
	message := truncateCause(cause.Error(), maxCauseLen)

	switch Classify(cause) {
	case OutcomeSkip:
		logger.Info("skipping scan, resource vanished", "err", cause)
		if err := w.scans.MarkScanFailed(ctx, job.Id, message); err != nil {
			logger.Error("error failing scan", "err", err)
		}
	case OutcomeFail:
		logger.Warn("scan failed permanently", "err", cause)
		if err := w.scans.MarkScanFailed(ctx, job.Id, message); err != nil {
			logger.Error("error failing scan", "err", err)
		}
	default:
		requeued, err := w.scans.MarkScanRetry(ctx, job.Id, message, w.config.MaxRetries)
		if err != nil {
			logger.Error("error re-queueing scan", "err", err)
			return
		}
		if requeued {
			logger.Warn("scan re-queued", "err", cause)
		} else {
			logger.Warn("scan failed, retries exhausted", "err", cause)
		}
	}
}

// enqueueFollowUps feeds the embedding and enrichment queues. Failures here
// are logged, not fatal: the scan itself succeeded and embeddings can be
// rebuilt later.
func (w *Worker) enqueueFollowUps(ctx context.Context, job *core.ScanJob, label *ai.ExtractedLabel, resolution *resolve.Resolution) {
	logger := w.logger.With("job_id", job.Id)

	var varietals []string
	if label.Varietal != "" {
		varietals = []string{label.Varietal}
	}
	text, completeness := core.ComposeIdentity(label.WineryName, label.WineName, label.Region, label.Country, varietals)

	_, err := w.embeddings.EnqueueEmbedding(ctx, &core.EmbeddingJob{
		Kind:         core.EmbeddingKindIdentity,
		WineId:       resolution.Wine.Id,
		VintageId:    resolution.Vintage.Id,
		InputText:    text,
		Completeness: completeness,
	})
	if err != nil {
		logger.Error("error enqueueing identity embedding", "err", err)
	}

	_, err = w.embeddings.EnqueueEmbedding(ctx, &core.EmbeddingJob{
		Kind:          core.EmbeddingKindVisual,
		WineId:        resolution.Wine.Id,
		VintageId:     resolution.Vintage.Id,
		ScanId:        job.Id,
		InputImageURL: job.ImageURL,
	})
	if err != nil {
		logger.Error("error enqueueing visual embedding", "err", err)
	}

	if resolution.Wine.NeedsEnrichment() {
		key := core.IdempotencyKey(job.UserId, resolution.Producer.Name, resolution.Wine.Name, label.Year, "enrichment")
		_, _, err := w.enrichments.EnqueueEnrichment(ctx, &core.EnrichmentJob{
			WineId:         resolution.Wine.Id,
			VintageId:      resolution.Vintage.Id,
			UserId:         job.UserId,
			IdempotencyKey: key,
		})
		if err != nil {
			logger.Error("error enqueueing enrichment", "err", err)
		}
	}
}

// Release shuts down the worker pool.
// The worker should not be used after calling Release.
func (w *Worker) Release() {
	if w.pool != nil {
		w.pool.Release()
	}
}

// truncateCause keeps stored error messages short.
func truncateCause(cause string, max int) string {
	if len(cause) <= max {
		return cause
	}
	return strings.TrimSpace(cause[:max]) + "..."
}

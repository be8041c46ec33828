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

// Package enrich backfills wine metadata. The Scanner finds catalog wines
// with empty metadata fields and queues them; the Worker asks the language
// model for type, color, style, pairings and varietals, then merges the
// answer into fields that are still empty. Populated fields never change.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vinolog/vinolog/ai"
	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/pipeline"
	"github.com/vinolog/vinolog/storage"
)

// Config tunes the enrichment worker loop.
type Config struct {
	// BatchSize is how many jobs one poll claims. Default 4.
	BatchSize int
	// PollInterval is the queue polling period. Default 5s.
	PollInterval time.Duration
	// MaxRetries is the per-job retry budget. Default 3.
	MaxRetries int
}

// DefaultConfig returns the enrichment worker defaults. Enrichment is
// background work, so it polls slower and claims less than scan processing.
func DefaultConfig() Config {
	return Config{
		BatchSize:    4,
		PollInterval: 5 * time.Second,
		MaxRetries:   3,
	}
}

// Worker drains the enrichment queue.
type Worker struct {
	queue    storage.EnrichmentQueue
	catalog  storage.Catalog
	enricher ai.Enricher
	config   Config
	logger   *slog.Logger
}

// NewWorker creates an enrichment worker. Zero config fields fall back to
// their defaults.
func NewWorker(queue storage.EnrichmentQueue, catalog storage.Catalog, enricher ai.Enricher, config Config) (*Worker, error) {
	if queue == nil {
		return nil, pipeline.ErrEnrichmentQueueRequired
	}
	if catalog == nil {
		return nil, pipeline.ErrCatalogRequired
	}
	if enricher == nil {
		return nil, pipeline.ErrProviderRequired
	}

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

	return &Worker{
		queue:    queue,
		catalog:  catalog,
		enricher: enricher,
		config:   config,
		logger:   slog.Default().With("component", "enrich_worker"),
	}, nil
}

// Run polls the queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.logger.Info("enrichment worker started", "batch_size", w.config.BatchSize)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("enrichment worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil {
				w.logger.Error("error processing batch", "err", err)
			}
		}
	}
}

// ProcessOnce claims one batch and processes it serially, returning how
// many jobs were claimed.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	jobs, err := w.queue.ClaimEnrichments(ctx, w.config.BatchSize)
	if err != nil {
		return 0, err
	}

	for _, job := range jobs {
		w.processJob(ctx, job)
	}
	return len(jobs), nil
}

func (w *Worker) processJob(ctx context.Context, job *core.EnrichmentJob) {
	logger := w.logger.With("job_id", job.Id, "wine_id", job.WineId)

	err := w.enrichWine(ctx, job)
	if err == nil {
		if cerr := w.queue.CompleteEnrichment(ctx, job.Id); cerr != nil {
			logger.Error("error completing enrichment job", "err", cerr)
		}
		return
	}

	switch pipeline.Classify(err) {
	case pipeline.OutcomeSkip:
		logger.Info("skipping enrichment, wine vanished", "err", err)
		if ferr := w.queue.MarkEnrichmentFailed(ctx, job.Id, err.Error()); ferr != nil {
			logger.Error("error failing enrichment job", "err", ferr)
		}
	case pipeline.OutcomeFail:
		logger.Warn("enrichment failed permanently", "err", err)
		if ferr := w.queue.MarkEnrichmentFailed(ctx, job.Id, err.Error()); ferr != nil {
			logger.Error("error failing enrichment job", "err", ferr)
		}
	default:
		requeued, rerr := w.queue.MarkEnrichmentRetry(ctx, job.Id, err.Error(), w.config.MaxRetries)
		if rerr != nil {
			logger.Error("error re-queueing enrichment job", "err", rerr)
			return
		}
		if requeued {
			logger.Warn("enrichment re-queued", "err", err)
		} else {
			logger.Warn("enrichment failed, retries exhausted", "err", err)
		}
	}
}

func (w *Worker) enrichWine(ctx context.Context, job *core.EnrichmentJob) error {
	wine, err := w.catalog.GetWine(ctx, job.WineId)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("wine %d: %w", job.WineId, core.ErrResourceVanished)
	}
	if err != nil {
		return err
	}

	producer, err := w.catalog.GetProducer(ctx, wine.ProducerId)
	if err != nil {
		return err
	}

	year := 0
	if job.VintageId != 0 {
		vintage, verr := w.catalog.GetVintage(ctx, job.VintageId)
		if verr == nil {
			year = vintage.Year
		}
	}

	enrichment, err := w.enricher.EnrichWine(ctx, producer.Name, wine.Name, year)
	if err != nil {
		return err
	}

	if _, err := w.catalog.UpdateWineMetadata(ctx, wine.Id,
		enrichment.Type, enrichment.Color, enrichment.Style, enrichment.FoodPairings); err != nil {
		return err
	}

	if job.VintageId != 0 && len(enrichment.Varietals) > 0 {
		if _, err := w.catalog.AddVarietals(ctx, job.VintageId, enrichment.Varietals...); err != nil {
			return err
		}
	}

	w.logger.Info("wine enriched", "wine_id", wine.Id, "wine", wine.Name)
	return nil
}

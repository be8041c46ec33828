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

package vinolog

import (
	"log/slog"

	"github.com/vinolog/vinolog/ai"
	"github.com/vinolog/vinolog/ai/openai"
	"github.com/vinolog/vinolog/enrich"
	"github.com/vinolog/vinolog/match"
	"github.com/vinolog/vinolog/pipeline"
	"github.com/vinolog/vinolog/recommend"
	"github.com/vinolog/vinolog/resolve"
	"github.com/vinolog/vinolog/storage"
	"github.com/vinolog/vinolog/storage/badger"
	"github.com/vinolog/vinolog/vecindex"
)

// Database bundles the storage, vector indexes and AI provider behind one
// handle, and builds the workers that run on top of them.
type Database struct {
	stores     *badger.Stores
	identity   vecindex.IdentityIndex
	visual     vecindex.VisualIndex
	provider   ai.Provider
	aiConfig   *ai.Config
	thresholds match.Thresholds
	logger     *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig   *ai.Config
	provider   ai.Provider
	thresholds match.Thresholds
	inMemory   bool
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, skipping construction from
// the AI config. Used by tests and embedded setups.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithThresholds overrides the matching thresholds.
func WithThresholds(thresholds match.Thresholds) DatabaseOption {
	return func(o *databaseOptions) {
		o.thresholds = thresholds
	}
}

// WithInMemory opens ephemeral storage, ignoring the file path.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens the database at filePath and wires every component.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig:   ai.DefaultConfig(),
		thresholds: match.DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(options)
	}

	stores, err := badger.OpenStores(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			stores.Close()
			return nil, err
		}
	}

	return &Database{
		stores:     stores,
		identity:   vecindex.NewBadgerIdentityIndex(stores.Backend),
		visual:     vecindex.NewBadgerVisualIndex(stores.Backend),
		provider:   provider,
		aiConfig:   options.aiConfig,
		thresholds: options.thresholds,
		logger:     slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.identity.Close(); err != nil {
		db.logger.Error("error closing identity index", "err", err)
	}
	if err := db.visual.Close(); err != nil {
		db.logger.Error("error closing visual index", "err", err)
	}
	return db.stores.Close()
}

func (db *Database) ScanQueue() storage.ScanQueue {
	return db.stores.Scans
}

func (db *Database) EmbeddingQueue() storage.EmbeddingQueue {
	return db.stores.Embeddings
}

func (db *Database) EnrichmentQueue() storage.EnrichmentQueue {
	return db.stores.Enrichments
}

func (db *Database) Catalog() storage.Catalog {
	return db.stores.Catalog
}

func (db *Database) IdentityIndex() vecindex.IdentityIndex {
	return db.identity
}

func (db *Database) VisualIndex() vecindex.VisualIndex {
	return db.visual
}

func (db *Database) Provider() ai.Provider {
	return db.provider
}

// NewResolver builds an entity resolver over the catalog and identity
// index.
func (db *Database) NewResolver() *resolve.Resolver {
	return resolve.NewResolver(db.stores.Catalog, db.identity, db.provider.Embedder(), db.thresholds)
}

// NewScanWorker builds the scan queue worker.
func (db *Database) NewScanWorker(opts ...pipeline.Option) (*pipeline.Worker, error) {
	return pipeline.NewWorker(
		db.stores.Scans,
		db.stores.Embeddings,
		db.stores.Enrichments,
		db.NewResolver(),
		db.provider.LabelExtractor(),
		opts...,
	)
}

// NewEmbeddingWorker builds the embedding queue worker.
func (db *Database) NewEmbeddingWorker(config pipeline.Config) (*pipeline.EmbeddingWorker, error) {
	return pipeline.NewEmbeddingWorker(
		db.stores.Embeddings,
		db.stores.Catalog,
		db.provider.Embedder(),
		db.provider.ImageEmbedder(),
		db.identity,
		db.visual,
		db.aiConfig.EmbeddingModel, "1",
		config,
	)
}

// NewEnrichmentWorker builds the enrichment queue worker.
func (db *Database) NewEnrichmentWorker(config enrich.Config) (*enrich.Worker, error) {
	return enrich.NewWorker(db.stores.Enrichments, db.stores.Catalog, db.provider.Enricher(), config)
}

// NewEnrichmentScanner builds the catalog sweep that queues bare wines.
func (db *Database) NewEnrichmentScanner(batchSize int) (*enrich.Scanner, error) {
	return enrich.NewScanner(db.stores.Catalog, db.stores.Enrichments, batchSize)
}

// NewRecommendationService builds the visual similarity service.
func (db *Database) NewRecommendationService() *recommend.Service {
	return recommend.NewService(db.visual, db.thresholds)
}

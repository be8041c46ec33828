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


package openai

import (
	"log/slog"

	"github.com/vinolog/vinolog/ai"
	"github.com/vinolog/vinolog/ai/imagemb"
)

// Provider implements ai.Provider using OpenAI-compatible services for chat
// and text embeddings, and the imagemb HTTP service for image embeddings.
type Provider struct {
	config        *ai.Config
	embedder      *Embedder
	imageEmbedder *imagemb.Client
	extractor     *LabelExtractor
	enricher      *Enricher
	logger        *slog.Logger
}

// NewProvider creates a new AI provider. The config is validated and
// normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	extractor, err := newLabelExtractor(config)
	if err != nil {
		return nil, err
	}

	enricher, err := newEnricher(config)
	if err != nil {
		return nil, err
	}

	imageEmbedder := imagemb.NewClient(config.ImageEmbeddingHost, config.ImageEmbeddingModel)

	return &Provider{
		config:        config,
		embedder:      embedder,
		imageEmbedder: imageEmbedder,
		extractor:     extractor,
		enricher:      enricher,
		logger:        slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// ImageEmbedder returns the label-photograph embedding service.
func (p *Provider) ImageEmbedder() ai.ImageEmbedder {
	return p.imageEmbedder
}

// LabelExtractor returns the label extraction service.
func (p *Provider) LabelExtractor() ai.LabelExtractor {
	return p.extractor
}

// Enricher returns the wine enrichment service.
func (p *Provider) Enricher() ai.Enricher {
	return p.enricher
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}

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


package mock

import "github.com/vinolog/vinolog/ai"

// Provider is a test double for ai.Provider.
// It aggregates mock service instances.
type Provider struct {
	embedder      *Embedder
	imageEmbedder *ImageEmbedder
	extractor     *LabelExtractor
	enricher      *Enricher
}

// NewProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use the Get* methods to access concrete types for test assertions.
func NewProvider() ai.Provider {
	return &Provider{
		embedder:      NewEmbedder(),
		imageEmbedder: NewImageEmbedder(),
		extractor:     NewLabelExtractor(),
		enricher:      NewEnricher(),
	}
}

// Embedder returns the mock text embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// ImageEmbedder returns the mock image embedder.
func (p *Provider) ImageEmbedder() ai.ImageEmbedder {
	return p.imageEmbedder
}

// LabelExtractor returns the mock label extractor.
func (p *Provider) LabelExtractor() ai.LabelExtractor {
	return p.extractor
}

// Enricher returns the mock enricher.
func (p *Provider) Enricher() ai.Enricher {
	return p.enricher
}

// Close is a no-op for mock provider.
func (p *Provider) Close() error {
	return nil
}

// GetEmbedder returns the underlying mock embedder for test assertions.
func (p *Provider) GetEmbedder() *Embedder {
	return p.embedder
}

// GetImageEmbedder returns the underlying mock image embedder for test
// assertions.
func (p *Provider) GetImageEmbedder() *ImageEmbedder {
	return p.imageEmbedder
}

// GetLabelExtractor returns the underlying mock label extractor for test
// assertions.
func (p *Provider) GetLabelExtractor() *LabelExtractor {
	return p.extractor
}

// GetEnricher returns the underlying mock enricher for test assertions.
func (p *Provider) GetEnricher() *Enricher {
	return p.enricher
}

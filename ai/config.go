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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// ExtractionHost is the base URL for the vision/extraction service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	ExtractionHost string

	// EmbeddingHost is the base URL for the text embedding service API.
	EmbeddingHost string

	// ImageEmbeddingHost is the base URL for the image embedding service.
	// This is a plain HTTP service, not an OpenAI-compatible one, so no /v1
	// suffix is added.
	ImageEmbeddingHost string

	// EnrichmentHost is the base URL for the enrichment/chat service API.
	EnrichmentHost string

	// ExtractionModel is the vision model used to read labels.
	// Example: "llava:13b", "gpt-4o-mini"
	ExtractionModel string

	// EmbeddingModel is the model used for identity text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// ImageEmbeddingModel is the model used for label-photograph embeddings.
	ImageEmbeddingModel string

	// EnrichmentModel is the chat model used for wine metadata lookups.
	EnrichmentModel string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the extraction, embedding and enrichment hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.ExtractionHost = host
		c.EmbeddingHost = host
		c.EnrichmentHost = host
	}
}

// WithExtractionHost sets the vision/extraction service host URL.
func WithExtractionHost(host string) ConfigOption {
	return func(c *Config) {
		c.ExtractionHost = host
	}
}

// WithEmbeddingHost sets the text embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithImageEmbeddingHost sets the image embedding service host URL.
func WithImageEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.ImageEmbeddingHost = host
	}
}

// WithEnrichmentHost sets the enrichment service host URL.
func WithEnrichmentHost(host string) ConfigOption {
	return func(c *Config) {
		c.EnrichmentHost = host
	}
}

// WithExtractionModel sets the vision model identifier.
func WithExtractionModel(model string) ConfigOption {
	return func(c *Config) {
		c.ExtractionModel = model
	}
}

// WithEmbeddingModel sets the text embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithImageEmbeddingModel sets the image embedding model identifier.
func WithImageEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.ImageEmbeddingModel = model
	}
}

// WithEnrichmentModel sets the enrichment model identifier.
func WithEnrichmentModel(model string) ConfigOption {
	return func(c *Config) {
		c.EnrichmentModel = model
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		ExtractionHost:      defaultHost,
		EmbeddingHost:       defaultHost,
		ImageEmbeddingHost:  "http://localhost:9200",
		EnrichmentHost:      defaultHost,
		ExtractionModel:     "llava:13b",
		EmbeddingModel:      "all-minilm",
		ImageEmbeddingModel: "clip-vit-large",
		EnrichmentModel:     "qwen2.5:3b",
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithExtractionModel("gpt-4o-mini"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form. The /v1 suffix
// required by OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc) is added to
// the chat and embedding hosts when missing. The image embedding host is left
// untouched.
func (c *Config) Normalize() {
	c.ExtractionHost = normalizeHost(c.ExtractionHost)
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.EnrichmentHost = normalizeHost(c.EnrichmentHost)
	c.ImageEmbeddingHost = strings.TrimSuffix(c.ImageEmbeddingHost, "/")
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.ExtractionHost == "" {
		return errors.New("ai config: ExtractionHost is required")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.ImageEmbeddingHost == "" {
		return errors.New("ai config: ImageEmbeddingHost is required")
	}
	if c.EnrichmentHost == "" {
		return errors.New("ai config: EnrichmentHost is required")
	}
	if c.ExtractionModel == "" {
		return errors.New("ai config: ExtractionModel is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ImageEmbeddingModel == "" {
		return errors.New("ai config: ImageEmbeddingModel is required")
	}
	if c.EnrichmentModel == "" {
		return errors.New("ai config: EnrichmentModel is required")
	}
	return nil
}

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


// Package ai provides abstractions for the AI services used in Vinolog.
//
// This package defines interfaces for label extraction, text and image
// embeddings, and wine enrichment. The pipeline and business logic depend on
// these abstractions rather than on concrete implementations.
//
// # Design Principles
//
// The package is designed around four service interfaces:
//
//   - LabelExtractor: Reads wine label photographs into structured fields
//   - Embedder: Generates identity text embeddings
//   - ImageEmbedder: Generates label-photograph embeddings
//   - Enricher: Looks up descriptive wine metadata
//
// plus Provider, which aggregates them for convenient initialization.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/imagemb: HTTP client for the image embedding service
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// interface types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.Provider
//
// Test utility constructors (mock.NewEmbedder, mock.NewLabelExtractor, ...)
// return concrete types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, the *Func fields, Reset).
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	label, err := provider.LabelExtractor().ExtractLabel(ctx, imageURL, "")
//	vector, err := provider.Embedder().EmbedText(ctx, identityText)
package ai

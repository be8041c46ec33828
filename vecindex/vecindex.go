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

// Package vecindex stores and queries wine embeddings. Two indexes exist:
// the identity index holds one text embedding per wine for entity matching,
// and the visual index holds label image embeddings keyed by scan or wine.
//
// Queries rank by cosine similarity over unit vectors. Callers that can
// work without vector search should treat ErrIndexUnavailable as a signal
// to degrade, not as a failure.
package vecindex

import (
	"context"
	"errors"

	"github.com/vinolog/vinolog/core"
)

// ErrIndexUnavailable signals that vector search cannot be served right
// now. Callers fall back to text-only matching.
var ErrIndexUnavailable = errors.New("vector index unavailable")

// IdentityMatch is one identity index query result.
type IdentityMatch struct {
	WineId       core.ID
	Similarity   float32
	Completeness float32
}

// VisualMatch is one visual index query result.
type VisualMatch struct {
	Key        string
	Similarity float32
	Meta       core.VisualMeta
}

// IdentityIndex stores one identity embedding per wine.
type IdentityIndex interface {
	// Put writes the wine's identity embedding, replacing any previous one.
	Put(ctx context.Context, emb *core.IdentityEmbedding) error

	// Query returns up to limit wines ranked by similarity to the vector.
	Query(ctx context.Context, vector []float32, limit int) ([]IdentityMatch, error)

	// Get retrieves a wine's stored embedding.
	// Returns storage.ErrNotFound when the wine has none.
	Get(ctx context.Context, wineID core.ID) (*core.IdentityEmbedding, error)

	// Delete removes a wine's embedding. Missing entries are not an error.
	Delete(ctx context.Context, wineID core.ID) error

	// Close releases index resources.
	Close() error
}

// VisualIndex stores label image embeddings keyed by scan or wine.
type VisualIndex interface {
	// Put writes an embedding under its key, replacing any previous one.
	Put(ctx context.Context, emb *core.VisualEmbedding) error

	// Query returns up to limit entries ranked by similarity to the vector.
	Query(ctx context.Context, vector []float32, limit int) ([]VisualMatch, error)

	// Get retrieves the embedding stored under a key.
	// Returns storage.ErrNotFound when the key has none.
	Get(ctx context.Context, key string) (*core.VisualEmbedding, error)

	// Delete removes the entry under a key. Missing entries are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases index resources.
	Close() error
}

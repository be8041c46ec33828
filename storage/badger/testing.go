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

package badger

import (
	"fmt"
)

// Stores bundles the repositories sharing one backend.
type Stores struct {
	Backend     *Backend
	Scans       *ScanQueueRepository
	Embeddings  *EmbeddingQueueRepository
	Enrichments *EnrichmentQueueRepository
	Catalog     *CatalogRepository
}

// Close releases all repositories and then the backend.
func (s *Stores) Close() error {
	var firstErr error
	closers := []func() error{
		s.Scans.Close,
		s.Embeddings.Close,
		s.Enrichments.Close,
		s.Catalog.Close,
		s.Backend.Close,
	}
	for _, close := range closers {
		if err := close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenStores opens a backend at the given path and builds every repository
// on it. Pass inMemory true for ephemeral storage.
func OpenStores(filePath string, inMemory bool) (*Stores, error) {
	backend, err := OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}

	stores := &Stores{Backend: backend}
	if stores.Scans, err = NewScanQueueRepository(backend); err != nil {
		backend.Close()
		return nil, fmt.Errorf("creating scan queue: %w", err)
	}
	if stores.Embeddings, err = NewEmbeddingQueueRepository(backend); err != nil {
		backend.Close()
		return nil, fmt.Errorf("creating embedding queue: %w", err)
	}
	if stores.Enrichments, err = NewEnrichmentQueueRepository(backend); err != nil {
		backend.Close()
		return nil, fmt.Errorf("creating enrichment queue: %w", err)
	}
	if stores.Catalog, err = NewCatalogRepository(backend); err != nil {
		backend.Close()
		return nil, fmt.Errorf("creating catalog: %w", err)
	}
	return stores, nil
}

// NewMemoryStores creates in-memory repositories for testing.
func NewMemoryStores() (*Stores, error) {
	return OpenStores("", true)
}

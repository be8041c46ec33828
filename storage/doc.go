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


// Package storage provides the storage abstraction layer for vinolog.
//
// This package defines the queue and catalog interfaces that decouple storage
// implementation from business logic, so different backends can be used
// interchangeably.
//
// # Architecture
//
// The storage layer splits into two halves:
//
//   - Queues: ScanQueue, EmbeddingQueue and EnrichmentQueue move jobs through
//     the pending -> processing -> {completed | failed} lifecycle with
//     at-most-once claims
//   - Catalog: producers, wines, vintages and varietals, the entities scan
//     jobs resolve into
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return interface types to
// enforce abstraction:
//
//	queue, err := badger.NewScanQueue(backend)  // returns storage.ScanQueue
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	queue, err := badger.NewScanQueue(backend)
//
// Use in tests with in-memory storage:
//
//	stores, err := badger.NewMemoryStores()
//	defer stores.Close()
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access from
// multiple goroutines. Claim operations additionally guarantee that two
// concurrent claimers never receive the same job.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
package storage

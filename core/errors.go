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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidScanJob indicates a ScanJob failed validation.
	ErrInvalidScanJob = errors.New("invalid scan job")

	// ErrEmptyImageURL indicates the ImageURL field is empty.
	ErrEmptyImageURL = errors.New("image URL cannot be empty")

	// ErrInvalidStatus indicates an invalid JobStatus value.
	ErrInvalidStatus = errors.New("invalid job status")

	// ErrInvalidTransition indicates a status change that violates the
	// pending -> processing -> {completed | pending | failed} lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidEmbeddingKind indicates an invalid EmbeddingKind value.
	ErrInvalidEmbeddingKind = errors.New("invalid embedding kind")

	// ErrEmptyProducerName indicates the producer Name field is empty.
	ErrEmptyProducerName = errors.New("producer name cannot be empty")

	// ErrEmptyWineName indicates the wine Name field is empty.
	ErrEmptyWineName = errors.New("wine name cannot be empty")
)

// Failure taxonomy for pipeline jobs. Workers classify every provider and
// storage failure into exactly one of these, which determines whether the
// job is retried, failed permanently, or skipped.
var (
	// ErrTransient marks provider failures (network, rate limit, 5xx)
	// that are safe to retry. Counts against the retry budget.
	ErrTransient = errors.New("transient provider error")

	// ErrMalformedResponse marks non-JSON or schema-violating model
	// output. Retryable; counts against the retry budget.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrValidation marks permanently invalid input. Never retried.
	ErrValidation = errors.New("validation error")

	// ErrResourceVanished marks a referenced row that no longer exists at
	// write time. Logged and skipped without consuming retry budget.
	ErrResourceVanished = errors.New("resource vanished")
)

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

import "fmt"

// ValidateScanJob validates a ScanJob according to domain rules.
//
// Validation rules:
//   - ImageURL must not be empty (a permanent ErrValidation failure)
//   - Status must be a valid JobStatus
//
// NOT validated (populated by workers):
//   - Processed, ErrorMessage, ProcessedAt
//   - ID (0 is valid from database sequences)
func ValidateScanJob(job *ScanJob) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidScanJob)
	}

	if job.ImageURL == "" {
		return fmt.Errorf("%w: %w: %w", ErrValidation, ErrInvalidScanJob, ErrEmptyImageURL)
	}

	if err := ValidateStatus(job.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScanJob, err)
	}

	return nil
}

// ValidateStatus validates that a JobStatus has a valid value.
func ValidateStatus(status JobStatus) error {
	switch status {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
}

// ValidateTransition checks that a status change follows the monotone
// lifecycle: pending -> processing -> {completed | pending (retry) | failed}.
// Terminal states admit no further transitions.
func ValidateTransition(from, to JobStatus) error {
	if err := ValidateStatus(from); err != nil {
		return err
	}
	if err := ValidateStatus(to); err != nil {
		return err
	}

	ok := false
	switch from {
	case JobStatusPending:
		ok = to == JobStatusProcessing
	case JobStatusProcessing:
		ok = to == JobStatusCompleted || to == JobStatusPending || to == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		ok = false
	}

	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ValidateEmbeddingKind validates that an EmbeddingKind has a valid value.
func ValidateEmbeddingKind(kind EmbeddingKind) error {
	if kind != EmbeddingKindIdentity && kind != EmbeddingKindVisual {
		return fmt.Errorf("%w: value %d", ErrInvalidEmbeddingKind, kind)
	}
	return nil
}

// ValidateEmbeddingJob validates an EmbeddingJob according to domain rules.
// Identity jobs require InputText; visual jobs require InputImageURL.
func ValidateEmbeddingJob(job *EmbeddingJob) error {
	if job == nil {
		return fmt.Errorf("%w: embedding job is nil", ErrValidation)
	}
	if err := ValidateEmbeddingKind(job.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	switch job.Kind {
	case EmbeddingKindIdentity:
		if job.InputText == "" {
			return fmt.Errorf("%w: identity embedding job requires input text", ErrValidation)
		}
	case EmbeddingKindVisual:
		if job.InputImageURL == "" {
			return fmt.Errorf("%w: visual embedding job requires an image URL", ErrValidation)
		}
	}
	return nil
}

package pipeline

import (
	"errors"

	"github.com/vinolog/vinolog/core"
)

var (
	// ErrScanQueueRequired is returned when a scan queue is not provided.
	ErrScanQueueRequired = errors.New("scan queue required")

	// ErrEmbeddingQueueRequired is returned when an embedding queue is not provided.
	ErrEmbeddingQueueRequired = errors.New("embedding queue required")

	// ErrEnrichmentQueueRequired is returned when an enrichment queue is not provided.
	ErrEnrichmentQueueRequired = errors.New("enrichment queue required")

	// ErrCatalogRequired is returned when a catalog is not provided.
	ErrCatalogRequired = errors.New("catalog required")

	// ErrResolverRequired is returned when a resolver is not provided.
	ErrResolverRequired = errors.New("resolver required")

	// ErrProviderRequired is returned when an AI provider is not provided.
	ErrProviderRequired = errors.New("AI provider required")
)

// Outcome tells the worker what to do with a failed job.
type Outcome int

const (
	// OutcomeRetry re-queues the job against its retry budget.
	OutcomeRetry Outcome = iota
	// OutcomeFail fails the job immediately.
	OutcomeFail
	// OutcomeSkip fails the job without charging the retry budget: the
	// work can never succeed but nothing is wrong with the pipeline.
	OutcomeSkip
)

// Classify maps a processing error to its outcome. Unknown errors count as
// transient since model hosts drop connections routinely.
func Classify(err error) Outcome {
	switch {
	case errors.Is(err, core.ErrResourceVanished):
		return OutcomeSkip
	case errors.Is(err, core.ErrValidation):
		return OutcomeFail
	case errors.Is(err, core.ErrMalformedResponse):
		return OutcomeRetry
	case errors.Is(err, core.ErrTransient):
		return OutcomeRetry
	default:
		return OutcomeRetry
	}
}

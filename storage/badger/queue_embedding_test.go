package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/vinolog/vinolog/core"
)

func TestEnqueueEmbeddingValidates(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	// Identity jobs carry text, visual jobs carry an image URL.
	_, err := stores.Embeddings.EnqueueEmbedding(ctx, &core.EmbeddingJob{
		Kind:   core.EmbeddingKindIdentity,
		WineId: 9,
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation for identity job without text, got %v", err)
	}

	_, err = stores.Embeddings.EnqueueEmbedding(ctx, &core.EmbeddingJob{
		Kind:   core.EmbeddingKindVisual,
		ScanId: 3,
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation for visual job without image, got %v", err)
	}
}

func TestEmbeddingLifecycle(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	job, err := stores.Embeddings.EnqueueEmbedding(ctx, &core.EmbeddingJob{
		Kind:      core.EmbeddingKindIdentity,
		WineId:    9,
		InputText: "Villa Oliveira | Reserva | Dão,Portugal | Touriga Nacional",
	})
	if err != nil {
		t.Fatalf("EnqueueEmbedding failed: %v", err)
	}
	if job.Status != core.JobStatusPending {
		t.Fatalf("Expected pending status, got %v", job.Status)
	}

	claimed, err := stores.Embeddings.ClaimEmbeddings(ctx, 5)
	if err != nil {
		t.Fatalf("ClaimEmbeddings failed: %v", err)
	}
	if len(claimed) != 1 || claimed[0].Id != job.Id {
		t.Fatalf("Expected to claim job %d, got %v", job.Id, claimed)
	}

	if err := stores.Embeddings.CompleteEmbedding(ctx, job.Id); err != nil {
		t.Fatalf("CompleteEmbedding failed: %v", err)
	}

	stored, err := stores.Embeddings.GetEmbeddingJob(ctx, job.Id)
	if err != nil {
		t.Fatalf("GetEmbeddingJob failed: %v", err)
	}
	if stored.Status != core.JobStatusCompleted {
		t.Errorf("Expected completed status, got %v", stored.Status)
	}
}

func TestEmbeddingRetryExhaustsBudget(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	job, err := stores.Embeddings.EnqueueEmbedding(ctx, &core.EmbeddingJob{
		Kind:          core.EmbeddingKindVisual,
		ScanId:        3,
		InputImageURL: "https://img.example/label-3.jpg",
	})
	if err != nil {
		t.Fatalf("EnqueueEmbedding failed: %v", err)
	}

	const maxRetries = 2
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if _, err := stores.Embeddings.ClaimEmbeddings(ctx, 1); err != nil {
			t.Fatalf("ClaimEmbeddings failed: %v", err)
		}
		requeued, err := stores.Embeddings.MarkEmbeddingRetry(ctx, job.Id, "embedding host down", maxRetries)
		if err != nil {
			t.Fatalf("MarkEmbeddingRetry failed: %v", err)
		}
		wantRequeue := attempt < maxRetries
		if requeued != wantRequeue {
			t.Fatalf("Attempt %d: requeued = %v, want %v", attempt, requeued, wantRequeue)
		}
	}

	stored, err := stores.Embeddings.GetEmbeddingJob(ctx, job.Id)
	if err != nil {
		t.Fatalf("GetEmbeddingJob failed: %v", err)
	}
	if stored.Status != core.JobStatusFailed {
		t.Errorf("Expected failed status, got %v", stored.Status)
	}
	if stored.RetryCount != maxRetries {
		t.Errorf("Expected retry count %d, got %d", maxRetries, stored.RetryCount)
	}
}

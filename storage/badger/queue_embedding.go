package badger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/storage"
)

// EmbeddingQueueRepository implements storage.EmbeddingQueue using BadgerDB.
type EmbeddingQueueRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
	logger  *slog.Logger
}

var _ storage.EmbeddingQueue = (*EmbeddingQueueRepository)(nil)

// NewEmbeddingQueueRepository creates an embedding queue backed by the
// given backend.
func NewEmbeddingQueueRepository(backend *Backend) (*EmbeddingQueueRepository, error) {
	seq, err := backend.GetSequence(embSequenceName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	return &EmbeddingQueueRepository{
		backend: backend,
		idSeq:   seq,
		logger:  slog.Default().With("component", "embedding_queue"),
	}, nil
}

func (r *EmbeddingQueueRepository) EnqueueEmbedding(ctx context.Context, job *core.EmbeddingJob) (*core.EmbeddingJob, error) {
	if err := core.ValidateEmbeddingJob(job); err != nil {
		return nil, err
	}

	var result *core.EmbeddingJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := nextID(r.idSeq)
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}

		stored := *job
		stored.Id = id
		stored.Status = core.JobStatusPending
		stored.RetryCount = 0
		stored.ErrorMessage = ""
		stored.CreatedAt = time.Now().UTC()

		if err := tx.Set(makeRecordKey(embJobPrefix, id), storage.MarshalEmbeddingJob(&stored)); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		if err := tx.Set(makeStatusKey(embStatusPrefix, core.JobStatusPending, id), nil); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}

		if err := tx.Commit(); err != nil {
			return err
		}
		result = &stored
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *EmbeddingQueueRepository) ClaimEmbeddings(ctx context.Context, limit int) ([]*core.EmbeddingJob, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var claimed []*core.EmbeddingJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := collectStatusIDs(tx, embStatusPrefix, core.JobStatusPending, limit)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, id := range ids {
			job, err := getEmbeddingJob(tx, id)
			if err != nil {
				return err
			}
			job.Status = core.JobStatusProcessing

			if err := tx.Set(makeRecordKey(embJobPrefix, id), storage.MarshalEmbeddingJob(job)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			if err := tx.Delete(makeStatusKey(embStatusPrefix, core.JobStatusPending, id)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			claimKey := makeStatusKey(embStatusPrefix, core.JobStatusProcessing, id)
			if err := tx.Set(claimKey, marshalClaimTime(now)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			claimed = append(claimed, job)
		}

		return tx.Commit()
	}, true)

	if err == badger.ErrConflict {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *EmbeddingQueueRepository) CompleteEmbedding(ctx context.Context, id core.ID) error {
	return r.transition(id, core.JobStatusCompleted, func(job *core.EmbeddingJob) {
		job.ErrorMessage = ""
	})
}

func (r *EmbeddingQueueRepository) MarkEmbeddingRetry(ctx context.Context, id core.ID, cause string, maxRetries int) (bool, error) {
	requeued := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		job, err := getEmbeddingJob(tx, id)
		if err != nil {
			return err
		}

		next := core.JobStatusPending
		if job.RetryCount >= maxRetries {
			next = core.JobStatusFailed
		}
		if err := core.ValidateTransition(job.Status, next); err != nil {
			return err
		}

		prev := job.Status
		if next == core.JobStatusPending {
			job.RetryCount++
			requeued = true
		}
		job.Status = next
		job.ErrorMessage = cause

		if err := tx.Set(makeRecordKey(embJobPrefix, id), storage.MarshalEmbeddingJob(job)); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		if err := moveStatusKey(tx, embStatusPrefix, prev, next, id); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return false, err
	}
	return requeued, nil
}

func (r *EmbeddingQueueRepository) MarkEmbeddingFailed(ctx context.Context, id core.ID, cause string) error {
	return r.transition(id, core.JobStatusFailed, func(job *core.EmbeddingJob) {
		job.ErrorMessage = cause
	})
}

func (r *EmbeddingQueueRepository) transition(id core.ID, target core.JobStatus, mutate func(*core.EmbeddingJob)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		job, err := getEmbeddingJob(tx, id)
		if err != nil {
			return err
		}
		if err := core.ValidateTransition(job.Status, target); err != nil {
			return err
		}

		prev := job.Status
		job.Status = target
		mutate(job)

		if err := tx.Set(makeRecordKey(embJobPrefix, id), storage.MarshalEmbeddingJob(job)); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		if err := moveStatusKey(tx, embStatusPrefix, prev, target, id); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (r *EmbeddingQueueRepository) GetEmbeddingJob(ctx context.Context, id core.ID) (*core.EmbeddingJob, error) {
	var job *core.EmbeddingJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var gerr error
		job, gerr = getEmbeddingJob(tx, id)
		return gerr
	}, false)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *EmbeddingQueueRepository) Close() error {
	if r.idSeq != nil {
		return r.idSeq.Release()
	}
	return nil
}

func getEmbeddingJob(tx *badger.Txn, id core.ID) (*core.EmbeddingJob, error) {
	item, err := tx.Get(makeRecordKey(embJobPrefix, id))
	if err == badger.ErrKeyNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}

	var job *core.EmbeddingJob
	err = item.Value(func(val []byte) error {
		var uerr error
		job, uerr = storage.UnmarshalEmbeddingJob(val)
		return uerr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
	}
	return job, nil
}

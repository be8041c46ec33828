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

// EnrichmentQueueRepository implements storage.EnrichmentQueue using
// BadgerDB. Pending index keys embed the inverted priority byte, so claims
// drain high-priority jobs before older low-priority ones.
type EnrichmentQueueRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
	logger  *slog.Logger
}

var _ storage.EnrichmentQueue = (*EnrichmentQueueRepository)(nil)

// NewEnrichmentQueueRepository creates an enrichment queue backed by the
// given backend.
func NewEnrichmentQueueRepository(backend *Backend) (*EnrichmentQueueRepository, error) {
	seq, err := backend.GetSequence(enrichSequenceName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	return &EnrichmentQueueRepository{
		backend: backend,
		idSeq:   seq,
		logger:  slog.Default().With("component", "enrichment_queue"),
	}, nil
}

func (r *EnrichmentQueueRepository) EnqueueEnrichment(ctx context.Context, job *core.EnrichmentJob) (*core.EnrichmentJob, bool, error) {
	if job == nil {
		return nil, false, storage.ErrInvalidQuery
	}
	if job.WineId == 0 {
		return nil, false, fmt.Errorf("%w: wine id required", core.ErrValidation)
	}

	var (
		result  *core.EnrichmentJob
		created bool
	)

	for attempt := 0; attempt < enqueueMaxAttempts; attempt++ {
		result, created = nil, false
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			if job.IdempotencyKey != "" {
				existing, err := r.findLiveByIdemKey(tx, job.IdempotencyKey)
				if err != nil {
					return err
				}
				if existing != nil {
					result = existing
					return nil
				}
			}

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

			if err := tx.Set(makeRecordKey(enrichJobPrefix, id), storage.MarshalEnrichmentJob(&stored)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			pendingKey := makeEnrichStatusKey(core.JobStatusPending, stored.Priority, id)
			if err := tx.Set(pendingKey, nil); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			if stored.IdempotencyKey != "" {
				idemKey := makeStringKey(enrichIdemPrefix, stored.IdempotencyKey)
				if err := tx.Set(idemKey, storage.MarshalID(id)); err != nil {
					return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
				}
			}

			if err := tx.Commit(); err != nil {
				return err
			}
			result = &stored
			created = true
			return nil
		}, true)

		if err == badger.ErrConflict {
			r.logger.Debug("enqueue conflict, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return result, created, nil
	}

	return nil, false, fmt.Errorf("%w: enqueue conflict persisted", storage.ErrTransactionFailed)
}

func (r *EnrichmentQueueRepository) findLiveByIdemKey(tx *badger.Txn, idemKey string) (*core.EnrichmentJob, error) {
	item, err := tx.Get(makeStringKey(enrichIdemPrefix, idemKey))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}

	var id core.ID
	err = item.Value(func(val []byte) error {
		var uerr error
		id, uerr = storage.UnmarshalID(val)
		return uerr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
	}

	job, err := getEnrichmentJob(tx, id)
	if err == storage.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, nil
	}
	return job, nil
}

func (r *EnrichmentQueueRepository) ClaimEnrichments(ctx context.Context, limit int) ([]*core.EnrichmentJob, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var claimed []*core.EnrichmentJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := r.collectPendingIDs(tx, limit)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, id := range ids {
			job, err := getEnrichmentJob(tx, id)
			if err != nil {
				return err
			}

			pendingKey := makeEnrichStatusKey(core.JobStatusPending, job.Priority, id)
			job.Status = core.JobStatusProcessing

			if err := tx.Set(makeRecordKey(enrichJobPrefix, id), storage.MarshalEnrichmentJob(job)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			if err := tx.Delete(pendingKey); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			claimKey := makeEnrichStatusKey(core.JobStatusProcessing, job.Priority, id)
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

// collectPendingIDs walks the pending index in key order, which is inverted
// priority first and then insertion order.
func (r *EnrichmentQueueRepository) collectPendingIDs(tx *badger.Txn, limit int) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialEnrichStatusKey(core.JobStatusPending)
	opts.PrefetchValues = false

	it := tx.NewIterator(opts)
	defer it.Close()

	var ids []core.ID
	for it.Rewind(); it.Valid() && len(ids) < limit; it.Next() {
		id, err := idFromIndexKey(it.Item().Key())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *EnrichmentQueueRepository) CompleteEnrichment(ctx context.Context, id core.ID) error {
	return r.transition(id, core.JobStatusCompleted, func(job *core.EnrichmentJob) {
		job.ErrorMessage = ""
	})
}

func (r *EnrichmentQueueRepository) MarkEnrichmentRetry(ctx context.Context, id core.ID, cause string, maxRetries int) (bool, error) {
	requeued := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		job, err := getEnrichmentJob(tx, id)
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

		if err := tx.Set(makeRecordKey(enrichJobPrefix, id), storage.MarshalEnrichmentJob(job)); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		if err := moveEnrichStatusKey(tx, prev, next, job.Priority, id); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return false, err
	}
	return requeued, nil
}

func (r *EnrichmentQueueRepository) MarkEnrichmentFailed(ctx context.Context, id core.ID, cause string) error {
	return r.transition(id, core.JobStatusFailed, func(job *core.EnrichmentJob) {
		job.ErrorMessage = cause
	})
}

func (r *EnrichmentQueueRepository) transition(id core.ID, target core.JobStatus, mutate func(*core.EnrichmentJob)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		job, err := getEnrichmentJob(tx, id)
		if err != nil {
			return err
		}
		if err := core.ValidateTransition(job.Status, target); err != nil {
			return err
		}

		prev := job.Status
		job.Status = target
		mutate(job)

		if err := tx.Set(makeRecordKey(enrichJobPrefix, id), storage.MarshalEnrichmentJob(job)); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		if err := moveEnrichStatusKey(tx, prev, target, job.Priority, id); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func moveEnrichStatusKey(tx *badger.Txn, prev, next core.JobStatus, priority int, id core.ID) error {
	if err := tx.Delete(makeEnrichStatusKey(prev, priority, id)); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	if err := tx.Set(makeEnrichStatusKey(next, priority, id), nil); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	return nil
}

func (r *EnrichmentQueueRepository) Close() error {
	if r.idSeq != nil {
		return r.idSeq.Release()
	}
	return nil
}

func getEnrichmentJob(tx *badger.Txn, id core.ID) (*core.EnrichmentJob, error) {
	item, err := tx.Get(makeRecordKey(enrichJobPrefix, id))
	if err == badger.ErrKeyNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}

	var job *core.EnrichmentJob
	err = item.Value(func(val []byte) error {
		var uerr error
		job, uerr = storage.UnmarshalEnrichmentJob(val)
		return uerr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
	}
	return job, nil
}

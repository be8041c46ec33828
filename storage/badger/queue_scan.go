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

// enqueueMaxAttempts bounds the conflict-retry loop on idempotent enqueues.
const enqueueMaxAttempts = 3

// ScanQueueRepository implements storage.ScanQueue using BadgerDB.
type ScanQueueRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
	logger  *slog.Logger
}

var _ storage.ScanQueue = (*ScanQueueRepository)(nil)

// NewScanQueueRepository creates a scan queue backed by the given backend.
func NewScanQueueRepository(backend *Backend) (*ScanQueueRepository, error) {
	seq, err := backend.GetSequence(scanSequenceName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	return &ScanQueueRepository{
		backend: backend,
		idSeq:   seq,
		logger:  slog.Default().With("component", "scan_queue"),
	}, nil
}

func (r *ScanQueueRepository) EnqueueScan(ctx context.Context, job *core.ScanJob) (*core.ScanJob, bool, error) {
	if err := core.ValidateScanJob(job); err != nil {
		return nil, false, err
	}

	var (
		result  *core.ScanJob
		created bool
	)

	// Idempotent creates race under SSI. The loser re-reads the key index
	// and finds the winner's job on the next attempt.
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
			stored.ProcessedAt = time.Time{}

			if err := tx.Set(makeRecordKey(scanJobPrefix, id), storage.MarshalScanJob(&stored)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			if err := tx.Set(makeStatusKey(scanStatusPrefix, core.JobStatusPending, id), nil); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			if stored.IdempotencyKey != "" {
				idemKey := makeStringKey(scanIdemPrefix, stored.IdempotencyKey)
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

// findLiveByIdemKey resolves an idempotency key to its job, returning nil
// when the key is unused or points at a terminal job.
func (r *ScanQueueRepository) findLiveByIdemKey(tx *badger.Txn, idemKey string) (*core.ScanJob, error) {
	item, err := tx.Get(makeStringKey(scanIdemPrefix, idemKey))
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

	job, err := getScanJob(tx, id)
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

func (r *ScanQueueRepository) ClaimScans(ctx context.Context, limit int) ([]*core.ScanJob, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var claimed []*core.ScanJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := collectStatusIDs(tx, scanStatusPrefix, core.JobStatusPending, limit)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, id := range ids {
			job, err := getScanJob(tx, id)
			if err != nil {
				return err
			}
			job.Status = core.JobStatusProcessing

			if err := tx.Set(makeRecordKey(scanJobPrefix, id), storage.MarshalScanJob(job)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			if err := tx.Delete(makeStatusKey(scanStatusPrefix, core.JobStatusPending, id)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			claimKey := makeStatusKey(scanStatusPrefix, core.JobStatusProcessing, id)
			if err := tx.Set(claimKey, marshalClaimTime(now)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			claimed = append(claimed, job)
		}

		return tx.Commit()
	}, true)

	if err == badger.ErrConflict {
		// Another worker claimed this batch first.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *ScanQueueRepository) CompleteScan(ctx context.Context, id core.ID, data core.ProcessedData) error {
	return r.transition(id, core.JobStatusCompleted, func(job *core.ScanJob) {
		job.Processed = data
		job.ErrorMessage = ""
		job.ProcessedAt = time.Now().UTC()
	})
}

func (r *ScanQueueRepository) MarkScanRetry(ctx context.Context, id core.ID, cause string, maxRetries int) (bool, error) {
	requeued := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		job, err := getScanJob(tx, id)
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
		} else {
			job.ProcessedAt = time.Now().UTC()
		}
		job.Status = next
		job.ErrorMessage = cause

		if err := tx.Set(makeRecordKey(scanJobPrefix, id), storage.MarshalScanJob(job)); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		if err := moveStatusKey(tx, scanStatusPrefix, prev, next, id); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return false, err
	}
	return requeued, nil
}

func (r *ScanQueueRepository) MarkScanFailed(ctx context.Context, id core.ID, cause string) error {
	return r.transition(id, core.JobStatusFailed, func(job *core.ScanJob) {
		job.ErrorMessage = cause
		job.ProcessedAt = time.Now().UTC()
	})
}

// transition moves a job to the target status after validating the edge,
// applying mutate to the loaded job first.
func (r *ScanQueueRepository) transition(id core.ID, target core.JobStatus, mutate func(*core.ScanJob)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		job, err := getScanJob(tx, id)
		if err != nil {
			return err
		}
		if err := core.ValidateTransition(job.Status, target); err != nil {
			return err
		}

		prev := job.Status
		job.Status = target
		mutate(job)

		if err := tx.Set(makeRecordKey(scanJobPrefix, id), storage.MarshalScanJob(job)); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		if err := moveStatusKey(tx, scanStatusPrefix, prev, target, id); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (r *ScanQueueRepository) GetScan(ctx context.Context, id core.ID) (*core.ScanJob, error) {
	var job *core.ScanJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var gerr error
		job, gerr = getScanJob(tx, id)
		return gerr
	}, false)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *ScanQueueRepository) CountScansByStatus(ctx context.Context) (map[core.JobStatus]int, error) {
	counts := make(map[core.JobStatus]int)
	statuses := []core.JobStatus{
		core.JobStatusPending,
		core.JobStatusProcessing,
		core.JobStatusCompleted,
		core.JobStatusFailed,
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, status := range statuses {
			n, err := countKeys(tx, makePartialStatusKey(scanStatusPrefix, status))
			if err != nil {
				return err
			}
			counts[status] = n
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *ScanQueueRepository) ReclaimStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	reclaimed := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		stuck, err := collectStuckIDs(tx, scanStatusPrefix, cutoff)
		if err != nil {
			return err
		}
		if len(stuck) == 0 {
			return nil
		}

		for _, id := range stuck {
			job, err := getScanJob(tx, id)
			if err != nil {
				return err
			}
			job.Status = core.JobStatusPending
			if err := tx.Set(makeRecordKey(scanJobPrefix, id), storage.MarshalScanJob(job)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			if err := moveStatusKey(tx, scanStatusPrefix, core.JobStatusProcessing, core.JobStatusPending, id); err != nil {
				return err
			}
			reclaimed++
		}

		return tx.Commit()
	}, true)

	if err == badger.ErrConflict {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if reclaimed > 0 {
		r.logger.Info("reclaimed stuck scan jobs", "count", reclaimed)
	}
	return reclaimed, nil
}

func (r *ScanQueueRepository) Close() error {
	if r.idSeq != nil {
		return r.idSeq.Release()
	}
	return nil
}

func getScanJob(tx *badger.Txn, id core.ID) (*core.ScanJob, error) {
	item, err := tx.Get(makeRecordKey(scanJobPrefix, id))
	if err == badger.ErrKeyNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}

	var job *core.ScanJob
	err = item.Value(func(val []byte) error {
		var uerr error
		job, uerr = storage.UnmarshalScanJob(val)
		return uerr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
	}
	return job, nil
}

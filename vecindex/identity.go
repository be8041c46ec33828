package vecindex

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/storage"
	badgerstore "github.com/vinolog/vinolog/storage/badger"
)

const identityEmbPrefix = "idemb"

// BadgerIdentityIndex implements IdentityIndex over a shared BadgerDB
// backend. Queries scan every stored embedding; the catalog stays small
// enough that a flat scan beats maintaining an ANN structure.
type BadgerIdentityIndex struct {
	backend *badgerstore.Backend
	logger  *slog.Logger
}

var _ IdentityIndex = (*BadgerIdentityIndex)(nil)

// NewBadgerIdentityIndex creates an identity index on the given backend.
func NewBadgerIdentityIndex(backend *badgerstore.Backend) *BadgerIdentityIndex {
	return &BadgerIdentityIndex{
		backend: backend,
		logger:  slog.Default().With("component", "identity_index"),
	}
}

func identityKey(wineID core.ID) []byte {
	key := make([]byte, 0, len(identityEmbPrefix)+9)
	key = append(key, identityEmbPrefix...)
	key = append(key, ':')
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(wineID))
	return append(key, buf[:]...)
}

func (idx *BadgerIdentityIndex) Put(ctx context.Context, emb *core.IdentityEmbedding) error {
	if emb == nil || emb.WineId == 0 {
		return fmt.Errorf("%w: wine id required", core.ErrValidation)
	}
	if len(emb.Vector) != core.IdentityEmbeddingDim {
		return fmt.Errorf("%w: identity vector must have %d dimensions, got %d",
			core.ErrValidation, core.IdentityEmbeddingDim, len(emb.Vector))
	}
	if idx.backend.IsClosed() {
		return ErrIndexUnavailable
	}

	stored := *emb
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	buf := make([]byte, core.IdentityEmbeddingMUS.Size(stored))
	core.IdentityEmbeddingMUS.Marshal(stored, buf)

	return idx.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(identityKey(stored.WineId), buf); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		return tx.Commit()
	}, true)
}

func (idx *BadgerIdentityIndex) Query(ctx context.Context, vector []float32, limit int) ([]IdentityMatch, error) {
	if len(vector) != core.IdentityEmbeddingDim {
		return nil, fmt.Errorf("%w: identity vector must have %d dimensions, got %d",
			core.ErrValidation, core.IdentityEmbeddingDim, len(vector))
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	if idx.backend.IsClosed() {
		return nil, ErrIndexUnavailable
	}

	var matches []IdentityMatch
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(identityEmbPrefix + ":")

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var emb core.IdentityEmbedding
			err := iter.Item().Value(func(val []byte) error {
				var uerr error
				emb, _, uerr = core.IdentityEmbeddingMUS.Unmarshal(val)
				return uerr
			})
			if err != nil {
				return fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
			}
			matches = append(matches, IdentityMatch{
				WineId:       emb.WineId,
				Similarity:   dotProduct(vector, emb.Vector),
				Completeness: emb.Completeness,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (idx *BadgerIdentityIndex) Get(ctx context.Context, wineID core.ID) (*core.IdentityEmbedding, error) {
	if idx.backend.IsClosed() {
		return nil, ErrIndexUnavailable
	}

	var emb *core.IdentityEmbedding
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(identityKey(wineID))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		return item.Value(func(val []byte) error {
			stored, _, uerr := core.IdentityEmbeddingMUS.Unmarshal(val)
			if uerr != nil {
				return fmt.Errorf("%w: %v", storage.ErrSerializationFailed, uerr)
			}
			emb = &stored
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return emb, nil
}

func (idx *BadgerIdentityIndex) Delete(ctx context.Context, wineID core.ID) error {
	if idx.backend.IsClosed() {
		return ErrIndexUnavailable
	}
	return idx.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(identityKey(wineID)); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		return tx.Commit()
	}, true)
}

func (idx *BadgerIdentityIndex) Close() error {
	return nil
}

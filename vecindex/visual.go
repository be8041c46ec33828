package vecindex

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/storage"
	badgerstore "github.com/vinolog/vinolog/storage/badger"
)

const visualEmbPrefix = "visemb"

// BadgerVisualIndex implements VisualIndex over a shared BadgerDB backend.
type BadgerVisualIndex struct {
	backend *badgerstore.Backend
	logger  *slog.Logger
}

var _ VisualIndex = (*BadgerVisualIndex)(nil)

// NewBadgerVisualIndex creates a visual index on the given backend.
func NewBadgerVisualIndex(backend *badgerstore.Backend) *BadgerVisualIndex {
	return &BadgerVisualIndex{
		backend: backend,
		logger:  slog.Default().With("component", "visual_index"),
	}
}

func visualKey(key string) []byte {
	return []byte(visualEmbPrefix + ":" + key)
}

func (idx *BadgerVisualIndex) Put(ctx context.Context, emb *core.VisualEmbedding) error {
	if emb == nil || emb.Key == "" {
		return fmt.Errorf("%w: embedding key required", core.ErrValidation)
	}
	if len(emb.Vector) != core.VisualEmbeddingDim {
		return fmt.Errorf("%w: visual vector must have %d dimensions, got %d",
			core.ErrValidation, core.VisualEmbeddingDim, len(emb.Vector))
	}
	if idx.backend.IsClosed() {
		return ErrIndexUnavailable
	}

	stored := *emb
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	buf := make([]byte, core.VisualEmbeddingMUS.Size(stored))
	core.VisualEmbeddingMUS.Marshal(stored, buf)

	return idx.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(visualKey(stored.Key), buf); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		return tx.Commit()
	}, true)
}

func (idx *BadgerVisualIndex) Query(ctx context.Context, vector []float32, limit int) ([]VisualMatch, error) {
	if len(vector) != core.VisualEmbeddingDim {
		return nil, fmt.Errorf("%w: visual vector must have %d dimensions, got %d",
			core.ErrValidation, core.VisualEmbeddingDim, len(vector))
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	if idx.backend.IsClosed() {
		return nil, ErrIndexUnavailable
	}

	var matches []VisualMatch
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(visualEmbPrefix + ":")

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var emb core.VisualEmbedding
			err := iter.Item().Value(func(val []byte) error {
				var uerr error
				emb, _, uerr = core.VisualEmbeddingMUS.Unmarshal(val)
				return uerr
			})
			if err != nil {
				return fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
			}
			matches = append(matches, VisualMatch{
				Key:        emb.Key,
				Similarity: dotProduct(vector, emb.Vector),
				Meta:       emb.Meta,
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

func (idx *BadgerVisualIndex) Get(ctx context.Context, key string) (*core.VisualEmbedding, error) {
	if idx.backend.IsClosed() {
		return nil, ErrIndexUnavailable
	}

	var emb *core.VisualEmbedding
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(visualKey(key))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		return item.Value(func(val []byte) error {
			stored, _, uerr := core.VisualEmbeddingMUS.Unmarshal(val)
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

func (idx *BadgerVisualIndex) Delete(ctx context.Context, key string) error {
	if idx.backend.IsClosed() {
		return ErrIndexUnavailable
	}
	return idx.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(visualKey(key)); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		return tx.Commit()
	}, true)
}

func (idx *BadgerVisualIndex) Close() error {
	return nil
}

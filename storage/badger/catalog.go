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

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/storage"
)

// CatalogRepository implements storage.Catalog using BadgerDB. Name lookups
// run over lowered-name index keys, so matching never loads full records
// until a candidate is found.
type CatalogRepository struct {
	backend     *Backend
	producerSeq *badger.Sequence
	wineSeq     *badger.Sequence
	vintageSeq  *badger.Sequence
	varietalSeq *badger.Sequence
	logger      *slog.Logger
}

var _ storage.Catalog = (*CatalogRepository)(nil)

// NewCatalogRepository creates a catalog backed by the given backend.
func NewCatalogRepository(backend *Backend) (*CatalogRepository, error) {
	repo := &CatalogRepository{
		backend: backend,
		logger:  slog.Default().With("component", "catalog"),
	}

	var err error
	for _, seq := range []struct {
		name string
		dest **badger.Sequence
	}{
		{producerSequence, &repo.producerSeq},
		{wineSequenceName, &repo.wineSeq},
		{vintageSequenceName, &repo.vintageSeq},
		{varietalSequence, &repo.varietalSeq},
	} {
		*seq.dest, err = backend.GetSequence(seq.name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
	}
	return repo, nil
}

// normalizeName lowers and trims a name for index keys and matching.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// namesMatch reports containment in either direction.
func namesMatch(stored, query string) bool {
	if stored == "" || query == "" {
		return false
	}
	return strings.Contains(stored, query) || strings.Contains(query, stored)
}

func (r *CatalogRepository) FindProducerMatching(ctx context.Context, name string) (*core.Producer, error) {
	var producer *core.Producer
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var ferr error
		producer, ferr = findProducerMatching(tx, name)
		return ferr
	}, false)
	if err != nil {
		return nil, err
	}
	return producer, nil
}

func findProducerMatching(tx *badger.Txn, name string) (*core.Producer, error) {
	query := normalizeName(name)
	if query == "" {
		return nil, fmt.Errorf("%w: producer name required", storage.ErrInvalidQuery)
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialKey(producerNamePrefix)
	opts.PrefetchValues = false

	it := tx.NewIterator(opts)
	var matchID core.ID
	for it.Rewind(); it.Valid(); it.Next() {
		key := it.Item().Key()
		stored := string(key[len(producerNamePrefix)+1 : len(key)-9])
		if namesMatch(stored, query) {
			id, err := idFromIndexKey(key)
			if err != nil {
				it.Close()
				return nil, err
			}
			matchID = id
			break
		}
	}
	it.Close()

	if matchID == 0 {
		return nil, storage.ErrNotFound
	}
	return getProducer(tx, matchID)
}

func (r *CatalogRepository) UpsertProducer(ctx context.Context, name, region string) (*core.Producer, bool, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, false, core.ErrEmptyProducerName
	}

	var (
		producer *core.Producer
		created  bool
	)

	// Two workers can race the same new producer. The conflict loser
	// retries and finds the winner's row by name.
	for attempt := 0; attempt < enqueueMaxAttempts; attempt++ {
		producer, created = nil, false
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			existing, err := findProducerMatching(tx, trimmed)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			if existing != nil {
				producer = existing
				return nil
			}

			id, err := nextID(r.producerSeq)
			if err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}

			now := time.Now().UTC()
			stored := &core.Producer{
				Id:         id,
				Name:       trimmed,
				Region:     strings.TrimSpace(region),
				InsertedAt: now,
				UpdatedAt:  now,
			}

			if err := tx.Set(makeRecordKey(producerPrefix, id), storage.MarshalProducer(stored)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			if err := tx.Set(makeProducerNameKey(normalizeName(trimmed), id), nil); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}

			if err := tx.Commit(); err != nil {
				return err
			}
			producer = stored
			created = true
			return nil
		}, true)

		if err == badger.ErrConflict {
			r.logger.Debug("producer upsert conflict, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return producer, created, nil
	}

	return nil, false, fmt.Errorf("%w: producer upsert conflict persisted", storage.ErrTransactionFailed)
}

func (r *CatalogRepository) GetProducer(ctx context.Context, id core.ID) (*core.Producer, error) {
	var producer *core.Producer
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var gerr error
		producer, gerr = getProducer(tx, id)
		return gerr
	}, false)
	if err != nil {
		return nil, err
	}
	return producer, nil
}

func (r *CatalogRepository) FindWineMatching(ctx context.Context, producerID core.ID, name string) (*core.Wine, error) {
	query := normalizeName(name)
	if query == "" {
		return nil, fmt.Errorf("%w: wine name required", storage.ErrInvalidQuery)
	}

	var wine *core.Wine
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialWineNameKey(producerID)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := tx.NewIterator(opts)
		var matchID core.ID
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			stored := string(key[len(prefix) : len(key)-9])
			if namesMatch(stored, query) {
				id, err := idFromIndexKey(key)
				if err != nil {
					it.Close()
					return err
				}
				matchID = id
				break
			}
		}
		it.Close()

		if matchID == 0 {
			return storage.ErrNotFound
		}
		var gerr error
		wine, gerr = getWine(tx, matchID)
		return gerr
	}, false)
	if err != nil {
		return nil, err
	}
	return wine, nil
}

func (r *CatalogRepository) CreateWine(ctx context.Context, wine *core.Wine) (*core.Wine, error) {
	if wine == nil {
		return nil, storage.ErrInvalidQuery
	}
	trimmed := strings.TrimSpace(wine.Name)
	if trimmed == "" {
		return nil, core.ErrEmptyWineName
	}
	if wine.ProducerId == 0 {
		return nil, fmt.Errorf("%w: producer id required", storage.ErrInvalidQuery)
	}

	var stored *core.Wine
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := getProducer(tx, wine.ProducerId); err != nil {
			return err
		}

		id, err := nextID(r.wineSeq)
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}

		now := time.Now().UTC()
		w := *wine
		w.Id = id
		w.Name = trimmed
		w.InsertedAt = now
		w.UpdatedAt = now

		if err := tx.Set(makeRecordKey(winePrefix, id), storage.MarshalWine(&w)); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		nameKey := makeWineNameKey(w.ProducerId, normalizeName(trimmed), id)
		if err := tx.Set(nameKey, nil); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}

		if err := tx.Commit(); err != nil {
			return err
		}
		stored = &w
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *CatalogRepository) GetWine(ctx context.Context, id core.ID) (*core.Wine, error) {
	var wine *core.Wine
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var gerr error
		wine, gerr = getWine(tx, id)
		return gerr
	}, false)
	if err != nil {
		return nil, err
	}
	return wine, nil
}

func (r *CatalogRepository) UpdateWineMetadata(ctx context.Context, id core.ID, wineType, color, style string, foodPairings []string) (*core.Wine, error) {
	var updated *core.Wine
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		wine, err := getWine(tx, id)
		if err != nil {
			return err
		}

		changed := false
		if wine.Type == "" && wineType != "" {
			wine.Type = wineType
			changed = true
		}
		if wine.Color == "" && color != "" {
			wine.Color = color
			changed = true
		}
		if wine.Style == "" && style != "" {
			wine.Style = style
			changed = true
		}
		if len(wine.FoodPairings) == 0 && len(foodPairings) > 0 {
			wine.FoodPairings = foodPairings
			changed = true
		}

		if !changed {
			updated = wine
			return nil
		}

		wine.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeRecordKey(winePrefix, id), storage.MarshalWine(wine)); err != nil {
			return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		updated = wine
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *CatalogRepository) ListWinesMissingMetadata(ctx context.Context, limit int) ([]*core.Wine, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var wines []*core.Wine
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialKey(winePrefix)

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(wines) < limit; it.Next() {
			var wine *core.Wine
			err := it.Item().Value(func(val []byte) error {
				var uerr error
				wine, uerr = storage.UnmarshalWine(val)
				return uerr
			})
			if err != nil {
				return fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
			}
			if wine.NeedsEnrichment() {
				wines = append(wines, wine)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return wines, nil
}

func (r *CatalogRepository) GetOrCreateVintage(ctx context.Context, wineID core.ID, year int) (*core.Vintage, bool, error) {
	var (
		vintage *core.Vintage
		created bool
	)

	for attempt := 0; attempt < enqueueMaxAttempts; attempt++ {
		vintage, created = nil, false
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			if _, err := getWine(tx, wineID); err != nil {
				return err
			}

			// Year zero marks a non-vintage bottle. Each scan of one
			// gets its own vintage row, so no lookup happens here.
			if year != 0 {
				existing, err := findVintage(tx, wineID, year)
				if err != nil && !errors.Is(err, storage.ErrNotFound) {
					return err
				}
				if existing != nil {
					vintage = existing
					return nil
				}
			}

			id, err := nextID(r.vintageSeq)
			if err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}

			stored := &core.Vintage{
				Id:         id,
				WineId:     wineID,
				Year:       year,
				InsertedAt: time.Now().UTC(),
			}

			if err := tx.Set(makeRecordKey(vintagePrefix, id), storage.MarshalVintage(stored)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			if err := tx.Set(makeVintageWineKey(wineID, year, id), nil); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}

			if err := tx.Commit(); err != nil {
				return err
			}
			vintage = stored
			created = true
			return nil
		}, true)

		if err == badger.ErrConflict && year != 0 {
			r.logger.Debug("vintage create conflict, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return vintage, created, nil
	}

	return nil, false, fmt.Errorf("%w: vintage create conflict persisted", storage.ErrTransactionFailed)
}

func findVintage(tx *badger.Txn, wineID core.ID, year int) (*core.Vintage, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialVintageWineKey(wineID, year)
	opts.PrefetchValues = false

	it := tx.NewIterator(opts)
	var matchID core.ID
	it.Rewind()
	if it.Valid() {
		id, err := idFromIndexKey(it.Item().Key())
		if err != nil {
			it.Close()
			return nil, err
		}
		matchID = id
	}
	it.Close()

	if matchID == 0 {
		return nil, storage.ErrNotFound
	}
	return getVintage(tx, matchID)
}

func (r *CatalogRepository) GetVintage(ctx context.Context, id core.ID) (*core.Vintage, error) {
	var vintage *core.Vintage
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var gerr error
		vintage, gerr = getVintage(tx, id)
		return gerr
	}, false)
	if err != nil {
		return nil, err
	}
	return vintage, nil
}

func (r *CatalogRepository) AddVarietals(ctx context.Context, vintageID core.ID, names ...string) ([]*core.Varietal, error) {
	var added []*core.Varietal
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := getVintage(tx, vintageID); err != nil {
			return err
		}

		existing, err := listVarietals(tx, vintageID)
		if err != nil {
			return err
		}
		seen := make(map[string]bool, len(existing))
		for _, v := range existing {
			seen[normalizeName(v.Name)] = true
		}

		for _, name := range names {
			trimmed := strings.TrimSpace(name)
			if trimmed == "" || seen[normalizeName(trimmed)] {
				continue
			}
			seen[normalizeName(trimmed)] = true

			id, err := nextID(r.varietalSeq)
			if err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			varietal := &core.Varietal{
				Id:         id,
				VintageId:  vintageID,
				Name:       trimmed,
				InsertedAt: time.Now().UTC(),
			}

			if err := tx.Set(makeRecordKey(varietalPrefix, id), storage.MarshalVarietal(varietal)); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			if err := tx.Set(makeVarietalVintageKey(vintageID, id), nil); err != nil {
				return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
			}
			added = append(added, varietal)
		}

		if len(added) == 0 {
			return nil
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (r *CatalogRepository) ListVarietals(ctx context.Context, vintageID core.ID) ([]*core.Varietal, error) {
	var varietals []*core.Varietal
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var lerr error
		varietals, lerr = listVarietals(tx, vintageID)
		return lerr
	}, false)
	if err != nil {
		return nil, err
	}
	return varietals, nil
}

func listVarietals(tx *badger.Txn, vintageID core.ID) ([]*core.Varietal, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialVarietalVintageKey(vintageID)
	opts.PrefetchValues = false

	it := tx.NewIterator(opts)
	var ids []core.ID
	for it.Rewind(); it.Valid(); it.Next() {
		id, err := idFromIndexKey(it.Item().Key())
		if err != nil {
			it.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	it.Close()

	var varietals []*core.Varietal
	for _, id := range ids {
		v, err := getVarietal(tx, id)
		if err != nil {
			return nil, err
		}
		varietals = append(varietals, v)
	}
	return varietals, nil
}

func (r *CatalogRepository) Close() error {
	var firstErr error
	for _, seq := range []*badger.Sequence{r.producerSeq, r.wineSeq, r.vintageSeq, r.varietalSeq} {
		if seq == nil {
			continue
		}
		if err := seq.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func getProducer(tx *badger.Txn, id core.ID) (*core.Producer, error) {
	item, err := tx.Get(makeRecordKey(producerPrefix, id))
	if err == badger.ErrKeyNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}

	var producer *core.Producer
	err = item.Value(func(val []byte) error {
		var uerr error
		producer, uerr = storage.UnmarshalProducer(val)
		return uerr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
	}
	return producer, nil
}

func getWine(tx *badger.Txn, id core.ID) (*core.Wine, error) {
	item, err := tx.Get(makeRecordKey(winePrefix, id))
	if err == badger.ErrKeyNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}

	var wine *core.Wine
	err = item.Value(func(val []byte) error {
		var uerr error
		wine, uerr = storage.UnmarshalWine(val)
		return uerr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
	}
	return wine, nil
}

func getVintage(tx *badger.Txn, id core.ID) (*core.Vintage, error) {
	item, err := tx.Get(makeRecordKey(vintagePrefix, id))
	if err == badger.ErrKeyNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}

	var vintage *core.Vintage
	err = item.Value(func(val []byte) error {
		var uerr error
		vintage, uerr = storage.UnmarshalVintage(val)
		return uerr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
	}
	return vintage, nil
}

func getVarietal(tx *badger.Txn, id core.ID) (*core.Varietal, error) {
	item, err := tx.Get(makeRecordKey(varietalPrefix, id))
	if err == badger.ErrKeyNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}

	var varietal *core.Varietal
	err = item.Value(func(val []byte) error {
		var uerr error
		varietal, uerr = storage.UnmarshalVarietal(val)
		return uerr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
	}
	return varietal, nil
}

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
	"encoding/binary"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/storage"
)

// nextID draws the next sequence value, skipping zero so that the zero ID
// stays free as the "unset" marker.
func nextID(seq *badger.Sequence) (core.ID, error) {
	num, err := seq.Next()
	if err != nil {
		return 0, err
	}
	if num == 0 {
		num, err = seq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(num), nil
}

// collectStatusIDs gathers up to limit job IDs from a status index, in key
// order. BigEndian ID suffixes make key order insertion order.
func collectStatusIDs(tx *badger.Txn, prefix string, status core.JobStatus, limit int) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialStatusKey(prefix, status)
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

// collectStuckIDs gathers processing jobs whose claim time falls before the
// cutoff. Claim times live in the processing index values.
func collectStuckIDs(tx *badger.Txn, prefix string, cutoff time.Time) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialStatusKey(prefix, core.JobStatusProcessing)

	it := tx.NewIterator(opts)
	defer it.Close()

	var ids []core.ID
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		var claimedAt time.Time
		err := item.Value(func(val []byte) error {
			claimedAt = unmarshalClaimTime(val)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
		}
		if claimedAt.IsZero() || !claimedAt.Before(cutoff) {
			continue
		}
		id, err := idFromIndexKey(item.Key())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// moveStatusKey deletes the job's entry under its previous status and writes
// one under the next.
func moveStatusKey(tx *badger.Txn, prefix string, prev, next core.JobStatus, id core.ID) error {
	if err := tx.Delete(makeStatusKey(prefix, prev, id)); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	if err := tx.Set(makeStatusKey(prefix, next, id), nil); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	return nil
}

// countKeys counts the keys under a prefix without fetching values.
func countKeys(tx *badger.Txn, prefix []byte) (int, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := tx.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	return n, nil
}

// idFromIndexKey reads the trailing 8-byte BigEndian ID off an index key.
func idFromIndexKey(key []byte) (core.ID, error) {
	if len(key) < 8 {
		return 0, fmt.Errorf("%w: index key too short", storage.ErrSerializationFailed)
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:])), nil
}

func marshalClaimTime(t time.Time) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(t.UnixMicro()))
	return buf[:]
}

func unmarshalClaimTime(data []byte) time.Time {
	if len(data) != 8 {
		return time.Time{}
	}
	return time.UnixMicro(int64(binary.BigEndian.Uint64(data))).UTC()
}

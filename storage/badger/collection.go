package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quanta/core"
	"github.com/poiesic/quanta/storage"
)

// CollectionRepository implements storage.CollectionStore for BadgerDB.
type CollectionRepository struct {
	backend *Backend

	// mu serializes writers and guards nextSeq. Unit keys embed an
	// insertion sequence, so appends must not race.
	mu      sync.Mutex
	nextSeq map[string]uint64
}

var _ storage.CollectionStore = (*CollectionRepository)(nil)

// NewCollectionRepository creates a new CollectionRepository.
func NewCollectionRepository(backend *Backend) *CollectionRepository {
	return &CollectionRepository{
		backend: backend,
		nextSeq: make(map[string]uint64),
	}
}

// Close releases repository resources. The backend is closed separately.
func (r *CollectionRepository) Close() error {
	return nil
}

// SaveCollection persists collection metadata. Names containing ':' are
// rejected: the unit key prefix for collection "a" would also cover
// collection "a:b", so iteration and deletion would sweep across both.
func (r *CollectionRepository) SaveCollection(ctx context.Context, meta *core.CollectionMeta) error {
	if err := core.ValidateCollectionName(meta.Name); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeCollectionMetaKey(meta.Name), storage.MarshalCollectionMeta(meta)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetCollection retrieves collection metadata by name.
func (r *CollectionRepository) GetCollection(ctx context.Context, name string) (*core.CollectionMeta, error) {
	var meta *core.CollectionMeta

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCollectionMetaKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			meta, err = storage.UnmarshalCollectionMeta(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return meta, nil
}

// ListCollections retrieves metadata for all collections.
func (r *CollectionRepository) ListCollections(ctx context.Context) ([]*core.CollectionMeta, error) {
	var metas []*core.CollectionMeta

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(collectionMetaPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				meta, err := storage.UnmarshalCollectionMeta(val)
				if err != nil {
					return err
				}
				metas = append(metas, meta)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return metas, nil
}

// DeleteCollection removes the collection metadata and all stored units.
func (r *CollectionRepository) DeleteCollection(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeCollectionMetaKey(name)); err != nil {
			return err
		}

		keys, err := collectKeys(tx, makeUnitPrefix(name))
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return err
	}

	delete(r.nextSeq, name)
	return nil
}

// AppendUnits durably appends units to a collection in insertion order.
// The whole batch commits in one transaction.
func (r *CollectionRepository) AppendUnits(ctx context.Context, collection string, units ...*core.RetrievalUnit) error {
	if len(units) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seq, err := r.seqLocked(collection)
	if err != nil {
		return err
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		for i, unit := range units {
			if err := tx.Set(makeUnitKey(collection, seq+uint64(i)), storage.MarshalUnit(unit)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return err
	}

	r.nextSeq[collection] = seq + uint64(len(units))
	return nil
}

// LoadUnits retrieves all units of a collection in insertion order.
func (r *CollectionRepository) LoadUnits(ctx context.Context, collection string) ([]*core.RetrievalUnit, error) {
	var units []*core.RetrievalUnit

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeUnitPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				unit, err := storage.UnmarshalUnit(val)
				if err != nil {
					return err
				}
				units = append(units, unit)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return units, nil
}

// ReplaceUnits atomically replaces the full unit set of a collection.
func (r *CollectionRepository) ReplaceUnits(ctx context.Context, collection string, units ...*core.RetrievalUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		keys, err := collectKeys(tx, makeUnitPrefix(collection))
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}

		for i, unit := range units {
			if err := tx.Set(makeUnitKey(collection, uint64(i)), storage.MarshalUnit(unit)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return err
	}

	r.nextSeq[collection] = uint64(len(units))
	return nil
}

// seqLocked returns the next insertion sequence for a collection,
// recovering it from the last stored key on first use. Caller holds mu.
func (r *CollectionRepository) seqLocked(collection string) (uint64, error) {
	if seq, ok := r.nextSeq[collection]; ok {
		return seq, nil
	}

	var seq uint64
	prefix := makeUnitPrefix(collection)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// In reverse mode, seek to the end of the prefix range to land on
		// the highest key.
		seek := append(append([]byte{}, prefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for iter.Seek(seek); iter.ValidForPrefix(prefix); iter.Next() {
			key := iter.Item().Key()
			seq = binary.BigEndian.Uint64(key[len(prefix):]) + 1
			break
		}
		return nil
	}, false)

	if err != nil {
		return 0, err
	}

	r.nextSeq[collection] = seq
	return seq, nil
}

// collectKeys gathers every key under a prefix. Keys are copied so they
// outlive the iterator.
func collectKeys(tx *badger.Txn, prefix []byte) ([][]byte, error) {
	var keys [][]byte

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}

package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	collectionMetaPrefix = "colmeta"
	collectionUnitPrefix = "colunit"
	taskRecordPrefix     = "taskrec"
)

// makeCollectionMetaKey generates a key for collection metadata by name.
func makeCollectionMetaKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", collectionMetaPrefix, name))
}

// makeUnitKey generates a composite key for a stored unit.
// Format: prefix:collection:seq
func makeUnitKey(collection string, seq uint64) []byte {
	prefix := fmt.Sprintf("%s:%s:", collectionUnitPrefix, collection)
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort preserves insertion order
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeUnitPrefix generates the iteration prefix for all units of a collection.
func makeUnitPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", collectionUnitPrefix, collection))
}

// makeTaskKey generates a key for a task record by id.
func makeTaskKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", taskRecordPrefix, id))
}

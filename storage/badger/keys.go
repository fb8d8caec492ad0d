package badger

import (
	"github.com/poiesic/embedfill/core"
)

// Key prefixes for different data types
const (
	recordPrefix  = "rec:"
	pendingPrefix = "recpend:"
)

// makeRecordKey generates a key for a record by ID.
func makeRecordKey(id core.ID) []byte {
	return append([]byte(recordPrefix), string(id)...)
}

// makePendingKey generates the index key marking a record as missing
// its embedding.
func makePendingKey(id core.ID) []byte {
	return append([]byte(pendingPrefix), string(id)...)
}

// idFromPendingKey recovers the record ID from a pending index key.
func idFromPendingKey(key []byte) core.ID {
	return core.ID(key[len(pendingPrefix):])
}

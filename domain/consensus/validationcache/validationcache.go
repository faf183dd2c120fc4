package validationcache

import (
	"sync/atomic"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	lru "github.com/hashicorp/golang-lru"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/pkg/errors"
)

// Entry is the validation side state of a single transaction. It is safe
// for concurrent use.
//
// Acceptance is recorded separately for pool and block validation, since
// pool validation runs checks block validation skips.
type Entry struct {
	blockForks atomic.Uint64
	poolForks  atomic.Uint64
	duplicate  atomic.Bool
}

func newEntry() *Entry {
	entry := &Entry{}
	entry.Invalidate()
	return entry
}

func (entry *Entry) forks(fromPool bool) *atomic.Uint64 {
	if fromPool {
		return &entry.poolForks
	}
	return &entry.blockForks
}

// IsValidated returns whether the transaction was accepted under exactly
// forks in the given mode.
func (entry *Entry) IsValidated(forks ruleforks.RuleForks, fromPool bool) bool {
	return ruleforks.RuleForks(entry.forks(fromPool).Load()) == forks
}

// MarkValidated records that the transaction was accepted under forks in
// the given mode. It returns false if another caller had already recorded
// the same forks.
func (entry *Entry) MarkValidated(forks ruleforks.RuleForks, fromPool bool) bool {
	recorded := entry.forks(fromPool)
	for {
		current := recorded.Load()
		if ruleforks.RuleForks(current) == forks {
			return false
		}
		if recorded.CompareAndSwap(current, uint64(forks)) {
			return true
		}
	}
}

// Invalidate forgets any recorded acceptance in both modes.
func (entry *Entry) Invalidate() {
	entry.blockForks.Store(uint64(ruleforks.Unverified))
	entry.poolForks.Store(uint64(ruleforks.Unverified))
}

// IsDuplicate returns whether the store found an unspent transaction with
// the same hash.
func (entry *Entry) IsDuplicate() bool {
	return entry.duplicate.Load()
}

// SetDuplicate records whether an unspent transaction with the same hash
// exists.
func (entry *Entry) SetDuplicate(duplicate bool) {
	entry.duplicate.Store(duplicate)
}

// Cache is a bounded least-recently-used table of validation entries
// indexed by transaction hash. Entries of evicted transactions are simply
// validated again.
type Cache struct {
	entries *lru.Cache
}

// New creates a new Cache holding up to capacity entries.
func New(capacity int) (*Cache, error) {
	entries, err := lru.New(capacity)
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating a validation cache of capacity %d", capacity)
	}
	return &Cache{entries: entries}, nil
}

// Entry returns the entry of the transaction with the given hash, creating
// it if needed. Concurrent callers asking for the same hash receive the same
// entry.
func (c *Cache) Entry(txID *chainhash.Hash) *Entry {
	if value, ok := c.entries.Get(*txID); ok {
		return value.(*Entry)
	}

	entry := newEntry()
	previous, found, _ := c.entries.PeekOrAdd(*txID, entry)
	if found {
		return previous.(*Entry)
	}
	return entry
}

// Has returns whether the cache holds an entry for the given hash.
func (c *Cache) Has(txID *chainhash.Hash) bool {
	return c.entries.Contains(*txID)
}

// Remove removes the entry for the given hash. Does nothing if the entry
// does not exist.
func (c *Cache) Remove(txID *chainhash.Hash) {
	c.entries.Remove(*txID)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Clear clears the cache
func (c *Cache) Clear() {
	log.Debugf("Clearing %d validation entries", c.entries.Len())
	c.entries.Purge()
}

package model

import "github.com/btcsuite/btcd/wire"

// ReadOnlyUTXOSet resolves the previous outputs a transaction spends. It is
// supplied by the store for the connect phase.
type ReadOnlyUTXOSet interface {
	// Entry returns the unspent output at outpoint and whether it exists.
	Entry(outpoint wire.OutPoint) (*UTXOEntry, bool)
}

// UTXOSet is an in-memory ReadOnlyUTXOSet.
type UTXOSet map[wire.OutPoint]*UTXOEntry

// Entry implements ReadOnlyUTXOSet.
func (set UTXOSet) Entry(outpoint wire.OutPoint) (*UTXOEntry, bool) {
	entry, ok := set[outpoint]
	return entry, ok
}

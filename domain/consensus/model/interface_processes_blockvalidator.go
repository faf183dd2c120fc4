package model

import (
	"github.com/btcsuite/btcd/btcutil"
)

// BlockValidator exposes a set of validation classes, after which
// it's possible to determine whether a block is valid
type BlockValidator interface {
	ValidateBlockInIsolation(block *btcutil.Block) error
	ValidateBlockInContext(block *btcutil.Block, state ChainState) error
	ValidateBlockConnection(block *btcutil.Block, state ChainState, utxoSet ReadOnlyUTXOSet) error
}

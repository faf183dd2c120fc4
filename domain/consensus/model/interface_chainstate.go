package model

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
)

// ChainState is the read-only consensus context a candidate block or
// transaction is validated against.
type ChainState interface {
	IsValid() bool
	Height() uint32
	EnabledForks() ruleforks.RuleForks
	IsEnabled(fork ruleforks.RuleForks) bool
	MinimumVersion() uint32
	MedianTimePast() uint32
	WorkRequired() uint32
	MaxBlockSize() uint64
	IsUnderCheckpoint() bool
	IsCheckpointConflict(hash *chainhash.Hash) bool
}

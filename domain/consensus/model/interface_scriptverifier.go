package model

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
)

// ScriptVerifier verifies that an input of a transaction satisfies the
// locking script of the output it spends, under the given rule forks.
// prevOuts holds the spent output of every input of tx, by input index.
type ScriptVerifier interface {
	Verify(tx *wire.MsgTx, inputIndex int, forks ruleforks.RuleForks, prevOuts []*UTXOEntry) error
}

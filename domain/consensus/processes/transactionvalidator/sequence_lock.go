package transactionvalidator

import (
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/ruleerrors"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/pkg/errors"
)

// relativeLockTxVersion is the lowest transaction version whose input
// sequence numbers carry relative lock times.
const relativeLockTxVersion = 2

func (v *transactionValidator) checkTransactionSequenceLock(tx *btcutil.Tx, state model.ChainState,
	prevOuts []*model.UTXOEntry) error {

	if !state.IsEnabled(ruleforks.BIP68) {
		return nil
	}

	sequenceLock := calcSequenceLock(tx, prevOuts)
	medianTimePast := time.Unix(int64(state.MedianTimePast()), 0)
	if !blockchain.SequenceLockActive(sequenceLock, int32(state.Height()), medianTimePast) {
		return errors.Wrapf(ruleerrors.ErrSequenceLocked, "transaction %s is locked until "+
			"height %d or time %d", tx.Hash(), sequenceLock.BlockHeight, sequenceLock.Seconds)
	}
	return nil
}

// calcSequenceLock computes the latest height and time, across all inputs,
// at which the transaction is still locked. A value of -1 means there is no
// lock of that kind.
func calcSequenceLock(tx *btcutil.Tx, prevOuts []*model.UTXOEntry) *blockchain.SequenceLock {
	sequenceLock := &blockchain.SequenceLock{Seconds: -1, BlockHeight: -1}

	msgTx := tx.MsgTx()
	if msgTx.Version < relativeLockTxVersion {
		return sequenceLock
	}

	for i, txIn := range msgTx.TxIn {
		sequence := txIn.Sequence
		if sequence&wire.SequenceLockTimeDisabled != 0 {
			continue
		}

		relativeLock := int64(sequence & wire.SequenceLockTimeMask)
		entry := prevOuts[i]
		if sequence&wire.SequenceLockTimeIsSeconds != 0 {
			// The lock counts from the median time past the output's
			// block was accepted under, in units of 512 seconds.
			timeLock := entry.BlockMedianTime + relativeLock<<wire.SequenceLockTimeGranularity - 1
			sequenceLock.Seconds = max(sequenceLock.Seconds, timeLock)
			continue
		}

		heightLock := int32(int64(entry.BlockHeight) + relativeLock - 1)
		sequenceLock.BlockHeight = max(sequenceLock.BlockHeight, heightLock)
	}
	return sequenceLock
}

package transactionvalidator

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// ValidateTransactionAndCalculateFee validates the transaction against the
// outputs it spends and returns its fee. The outputs must have been
// resolved by the store beforehand. A coinbase spends nothing and pays no
// fee.
func (v *transactionValidator) ValidateTransactionAndCalculateFee(tx *btcutil.Tx, state model.ChainState,
	utxoSet model.ReadOnlyUTXOSet) (fee int64, err error) {

	if blockchain.IsCoinBase(tx) {
		return 0, nil
	}

	prevOuts, err := v.previousOutputs(tx, utxoSet)
	if err != nil {
		return 0, err
	}

	err = v.checkTransactionCoinbaseMaturity(tx, state, prevOuts)
	if err != nil {
		return 0, err
	}

	totalSatoshiIn, err := v.checkTransactionInputAmounts(prevOuts)
	if err != nil {
		return 0, err
	}

	fee, err = v.checkTransactionOutputAmounts(tx, totalSatoshiIn)
	if err != nil {
		return 0, err
	}

	err = v.checkTransactionSequenceLock(tx, state, prevOuts)
	if err != nil {
		return 0, err
	}

	err = v.validateTransactionScripts(tx, state, prevOuts)
	if err != nil {
		return 0, err
	}

	return fee, nil
}

func (v *transactionValidator) previousOutputs(tx *btcutil.Tx, utxoSet model.ReadOnlyUTXOSet) ([]*model.UTXOEntry, error) {
	txIns := tx.MsgTx().TxIn
	prevOuts := make([]*model.UTXOEntry, len(txIns))

	var missingOutpoints []wire.OutPoint
	for i, txIn := range txIns {
		entry, ok := utxoSet.Entry(txIn.PreviousOutPoint)
		if !ok {
			missingOutpoints = append(missingOutpoints, txIn.PreviousOutPoint)
			continue
		}
		prevOuts[i] = entry
	}
	if len(missingOutpoints) > 0 {
		return nil, ruleerrors.NewErrMissingTxOut(missingOutpoints)
	}
	return prevOuts, nil
}

func (v *transactionValidator) checkTransactionCoinbaseMaturity(tx *btcutil.Tx, state model.ChainState,
	prevOuts []*model.UTXOEntry) error {

	maturity := uint32(v.params.CoinbaseMaturity)
	for i, entry := range prevOuts {
		if !entry.IsCoinbase {
			continue
		}
		originHeight := entry.BlockHeight
		if uint64(originHeight)+uint64(maturity) > uint64(state.Height()) {
			return errors.Wrapf(ruleerrors.ErrImmatureSpend, "tried to spend coinbase "+
				"transaction output %s from height %d "+
				"at height %d before required maturity "+
				"of %d blocks", tx.MsgTx().TxIn[i].PreviousOutPoint,
				originHeight, state.Height(), maturity)
		}
	}
	return nil
}

func (v *transactionValidator) checkTransactionInputAmounts(prevOuts []*model.UTXOEntry) (totalSatoshiIn int64, err error) {
	for _, entry := range prevOuts {
		totalSatoshiIn, err = v.checkEntryAmounts(entry, totalSatoshiIn)
		if err != nil {
			return 0, err
		}
	}
	return totalSatoshiIn, nil
}

func (v *transactionValidator) checkEntryAmounts(entry *model.UTXOEntry, totalSatoshiInBefore int64) (totalSatoshiInAfter int64, err error) {
	// The total of all outputs must not be more than the max
	// allowed per transaction. Also, we could potentially overflow
	// the accumulator so check for overflow.
	originTxSatoshi := entry.Amount
	if originTxSatoshi < 0 || originTxSatoshi > maxSatoshi {
		return 0, errors.Wrapf(ruleerrors.ErrBadTxOutValue, "transaction input value of %d is "+
			"out of range", originTxSatoshi)
	}
	totalSatoshiInAfter = totalSatoshiInBefore + originTxSatoshi
	if totalSatoshiInAfter < totalSatoshiInBefore ||
		totalSatoshiInAfter > maxSatoshi {
		return 0, errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all transaction "+
			"inputs is %d which is higher than max "+
			"allowed value of %d", totalSatoshiInAfter,
			maxSatoshi)
	}
	return totalSatoshiInAfter, nil
}

func (v *transactionValidator) checkTransactionOutputAmounts(tx *btcutil.Tx, totalSatoshiIn int64) (fee int64, err error) {
	totalSatoshiOut := int64(0)
	// Calculate the total output amount for this transaction. It is safe
	// to ignore overflow and out of range errors here because those error
	// conditions would have already been caught by checkTransactionAmountRanges.
	for _, txOut := range tx.MsgTx().TxOut {
		totalSatoshiOut += txOut.Value
	}

	// Ensure the transaction does not spend more than its inputs.
	if totalSatoshiIn < totalSatoshiOut {
		return 0, errors.Wrapf(ruleerrors.ErrSpendTooHigh, "total value of all transaction inputs for "+
			"the transaction is %d which is less than the amount "+
			"spent of %d", totalSatoshiIn, totalSatoshiOut)
	}
	return totalSatoshiIn - totalSatoshiOut, nil
}

func (v *transactionValidator) validateTransactionScripts(tx *btcutil.Tx, state model.ChainState,
	prevOuts []*model.UTXOEntry) error {

	forks := state.EnabledForks()
	msgTx := tx.MsgTx()
	for i := range msgTx.TxIn {
		err := v.scriptVerifier.Verify(msgTx, i, forks, prevOuts)
		if err != nil {
			return errors.Wrapf(ruleerrors.ErrScriptValidation, "input %d of transaction %s: %s",
				i, tx.Hash(), err)
		}
	}
	return nil
}

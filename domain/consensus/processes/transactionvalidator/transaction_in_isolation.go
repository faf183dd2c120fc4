package transactionvalidator

import (
	"math"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// ValidateTransactionInIsolation validates the parts of the transaction
// that do not depend on any context. Loose transactions from the pool are
// held to additional rules that a transaction inside a block is exempt
// from or that the block validates as a whole.
func (v *transactionValidator) ValidateTransactionInIsolation(tx *btcutil.Tx, fromPool bool) error {
	err := v.checkTransactionInputCount(tx)
	if err != nil {
		return err
	}
	err = v.checkTransactionOutputCount(tx)
	if err != nil {
		return err
	}
	err = v.checkNullPreviousOutputs(tx)
	if err != nil {
		return err
	}
	err = v.checkTransactionAmountRanges(tx)
	if err != nil {
		return err
	}
	err = v.checkCoinbaseScriptLength(tx)
	if err != nil {
		return err
	}

	if !fromPool {
		return nil
	}

	err = v.checkTransactionIsNotCoinbase(tx)
	if err != nil {
		return err
	}
	err = v.checkDuplicateTransactionInputs(tx)
	if err != nil {
		return err
	}
	return v.checkTransactionSize(tx)
}

func (v *transactionValidator) checkTransactionInputCount(tx *btcutil.Tx) error {
	// A non-coinbase transaction must reference one or more inputs.
	if len(tx.MsgTx().TxIn) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTxInputs, "transaction %s has no inputs", tx.Hash())
	}
	return nil
}

func (v *transactionValidator) checkTransactionOutputCount(tx *btcutil.Tx) error {
	if len(tx.MsgTx().TxOut) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTxOutputs, "transaction %s has no outputs", tx.Hash())
	}
	return nil
}

func isNullOutpoint(outpoint *wire.OutPoint) bool {
	return outpoint.Index == math.MaxUint32 && outpoint.Hash == zeroHash
}

func (v *transactionValidator) checkNullPreviousOutputs(tx *btcutil.Tx) error {
	if blockchain.IsCoinBase(tx) {
		return nil
	}
	for i, txIn := range tx.MsgTx().TxIn {
		if isNullOutpoint(&txIn.PreviousOutPoint) {
			return errors.Wrapf(ruleerrors.ErrPreviousOutputNull, "input %d of transaction %s "+
				"references the null outpoint", i, tx.Hash())
		}
	}
	return nil
}

func (v *transactionValidator) checkTransactionAmountRanges(tx *btcutil.Tx) error {
	// Ensure the transaction amounts are in range. Each transaction
	// output must not be negative or more than the max allowed per
	// transaction. Also, the total of all outputs must abide by the same
	// restrictions. All amounts in a transaction are in a unit value known
	// as a satoshi.
	var totalSatoshi int64
	for _, txOut := range tx.MsgTx().TxOut {
		satoshi := txOut.Value
		if satoshi < 0 {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "transaction output has negative "+
				"value of %d", satoshi)
		}
		if satoshi > maxSatoshi {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "transaction output value of %d is "+
				"higher than max allowed value of %d", satoshi, maxSatoshi)
		}

		// Two's complement int64 overflow guarantees that any overflow
		// is detected and reported.
		totalSatoshi += satoshi
		if totalSatoshi < 0 {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all transaction "+
				"outputs exceeds max allowed value of %d", maxSatoshi)
		}
		if totalSatoshi > maxSatoshi {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all transaction "+
				"outputs is %d which is higher than max allowed value of %d", totalSatoshi,
				maxSatoshi)
		}
	}
	return nil
}

func (v *transactionValidator) checkCoinbaseScriptLength(tx *btcutil.Tx) error {
	if !blockchain.IsCoinBase(tx) {
		return nil
	}
	scriptLength := len(tx.MsgTx().TxIn[0].SignatureScript)
	if scriptLength < blockchain.MinCoinbaseScriptLen || scriptLength > blockchain.MaxCoinbaseScriptLen {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseScriptLen, "coinbase transaction script length "+
			"of %d is out of range (min: %d, max: %d)", scriptLength,
			blockchain.MinCoinbaseScriptLen, blockchain.MaxCoinbaseScriptLen)
	}
	return nil
}

func (v *transactionValidator) checkTransactionIsNotCoinbase(tx *btcutil.Tx) error {
	if blockchain.IsCoinBase(tx) {
		return errors.Wrapf(ruleerrors.ErrCoinbaseTransaction, "transaction %s is a coinbase", tx.Hash())
	}
	return nil
}

func (v *transactionValidator) checkDuplicateTransactionInputs(tx *btcutil.Tx) error {
	existingTxOut := make(map[wire.OutPoint]struct{})
	for _, txIn := range tx.MsgTx().TxIn {
		if _, exists := existingTxOut[txIn.PreviousOutPoint]; exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateTxInputs, "transaction "+
				"contains duplicate inputs")
		}
		existingTxOut[txIn.PreviousOutPoint] = struct{}{}
	}
	return nil
}

func (v *transactionValidator) checkTransactionSize(tx *btcutil.Tx) error {
	size := uint64(tx.MsgTx().SerializeSizeStripped())
	if size >= v.params.LegacyMaxBlockSize {
		return errors.Wrapf(ruleerrors.ErrTxSizeTooHigh, "transaction %s of %d bytes is not "+
			"smaller than the %d byte limit", tx.Hash(), size, v.params.LegacyMaxBlockSize)
	}
	return nil
}

package transactionvalidator

import (
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/ruleerrors"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/kaspanet/utxocore/domain/consensus/validationcache"
	"github.com/pkg/errors"
)

var zeroHash chainhash.Hash

// Minimum serialized transaction sizes. The Magnetic Anomaly limit was
// relaxed by Upgrade9 to anything that cannot be mistaken for a merkle
// tree node.
const (
	magneticAnomalyMinTxSize = 100
	upgrade9MinTxSize        = 65
)

// ValidateTransactionInContext validates the transaction against the chain
// state. A transaction already accepted in the same mode under the same
// active forks is not validated again.
func (v *transactionValidator) ValidateTransactionInContext(tx *btcutil.Tx, state model.ChainState, fromPool bool) error {
	forks := state.EnabledForks()
	entry := v.validationCache.Entry(tx.Hash())
	if entry.IsValidated(forks, fromPool) {
		log.Tracef("Transaction %s is already validated under %s", tx.Hash(), forks)
		return nil
	}

	if fromPool {
		err := v.checkNotPremature(tx, state)
		if err != nil {
			return err
		}
		err = v.checkTransactionFinality(tx, state)
		if err != nil {
			return err
		}
	}

	err := v.checkUnspentDuplicate(tx, state, entry)
	if err != nil {
		return err
	}
	err = v.checkTransactionMinimumSize(tx, state)
	if err != nil {
		return err
	}

	if fromPool {
		err = v.checkTransactionSigOps(tx)
		if err != nil {
			return err
		}
		err = v.checkTransactionWeight(tx, state)
		if err != nil {
			return err
		}
	}

	entry.MarkValidated(forks, fromPool)
	return nil
}

func (v *transactionValidator) checkNotPremature(tx *btcutil.Tx, state model.ChainState) error {
	if state.IsUnderCheckpoint() {
		return errors.Wrapf(ruleerrors.ErrPrematureValidation, "transaction %s received at height %d "+
			"which is under the last checkpoint", tx.Hash(), state.Height())
	}
	return nil
}

// checkTransactionFinality checks a loose transaction against the pool
// state, whose own timestamp is unknown, so lock times are always compared
// against the median time past.
func (v *transactionValidator) checkTransactionFinality(tx *btcutil.Tx, state model.ChainState) error {
	medianTimePast := time.Unix(int64(state.MedianTimePast()), 0)
	if !blockchain.IsFinalizedTransaction(tx, int32(state.Height()), medianTimePast) {
		return errors.Wrapf(ruleerrors.ErrUnfinalizedTx, "unfinalized transaction %s", tx.Hash())
	}
	return nil
}

func (v *transactionValidator) checkUnspentDuplicate(tx *btcutil.Tx, state model.ChainState,
	entry *validationcache.Entry) error {

	if !state.IsEnabled(ruleforks.BIP30) || state.IsEnabled(ruleforks.AllowCollisions) {
		return nil
	}
	if entry.IsDuplicate() {
		return errors.Wrapf(ruleerrors.ErrUnspentDuplicate, "transaction %s duplicates an "+
			"unspent transaction", tx.Hash())
	}
	return nil
}

func (v *transactionValidator) checkTransactionMinimumSize(tx *btcutil.Tx, state model.ChainState) error {
	var minimumSize int
	switch {
	case state.IsEnabled(ruleforks.Upgrade9):
		minimumSize = upgrade9MinTxSize
	case state.IsEnabled(ruleforks.MagneticAnomaly):
		minimumSize = magneticAnomalyMinTxSize
	default:
		return nil
	}

	size := tx.MsgTx().SerializeSize()
	if size < minimumSize {
		return errors.Wrapf(ruleerrors.ErrTxTooSmall, "transaction %s of %d bytes is smaller "+
			"than the minimum of %d", tx.Hash(), size, minimumSize)
	}
	return nil
}

func (v *transactionValidator) checkTransactionSigOps(tx *btcutil.Tx) error {
	sigOps := uint64(blockchain.CountSigOps(tx))
	if sigOps > v.params.MaxTxSigOps {
		return errors.Wrapf(ruleerrors.ErrTooManySigOps, "transaction %s has %d sigops which is "+
			"more than the allowed %d", tx.Hash(), sigOps, v.params.MaxTxSigOps)
	}
	return nil
}

func (v *transactionValidator) checkTransactionWeight(tx *btcutil.Tx, state model.ChainState) error {
	if !state.IsEnabled(ruleforks.BIP141) {
		return nil
	}
	weight := blockchain.GetTransactionWeight(tx)
	if weight > blockchain.MaxBlockWeight {
		return errors.Wrapf(ruleerrors.ErrTxWeightTooHigh, "transaction %s weighs %d which is "+
			"more than the allowed %d", tx.Hash(), weight, blockchain.MaxBlockWeight)
	}
	return nil
}

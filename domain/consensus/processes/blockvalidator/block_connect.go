package blockvalidator

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/ruleerrors"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/kaspanet/utxocore/infrastructure/logger"
	"github.com/pkg/errors"
)

// ValidateBlockConnection validates the block against the outputs it spends
// and verifies the coinbase does not claim more than the subsidy and fees.
// Outputs created earlier in the same block are visible to later
// transactions.
func (v *blockValidator) ValidateBlockConnection(block *btcutil.Block, state model.ChainState,
	utxoSet model.ReadOnlyUTXOSet) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateBlockConnection")
	defer onEnd()

	if state.IsUnderCheckpoint() {
		return nil
	}

	view := newBlockUTXOSet(utxoSet, state)
	transactions := block.Transactions()
	view.addTransaction(transactions[0], true)

	totalFees := int64(0)
	for _, tx := range transactions[1:] {
		fee, err := v.transactionValidator.ValidateTransactionAndCalculateFee(tx, state, view)
		if err != nil {
			return errors.Wrapf(err, "transaction %s failed connection", tx.Hash())
		}

		lastTotalFees := totalFees
		totalFees += fee
		if totalFees < lastTotalFees || totalFees > btcutil.MaxSatoshi {
			return errors.Wrapf(ruleerrors.ErrBadFees, "total fees for block %s overflow "+
				"accumulator", block.Hash())
		}
		view.addTransaction(tx, false)
	}

	err := v.checkBlockEmbeddedSigOps(block, state, view)
	if err != nil {
		return err
	}

	return v.checkCoinbaseValue(block, state, totalFees)
}

func (v *blockValidator) checkCoinbaseValue(block *btcutil.Block, state model.ChainState, totalFees int64) error {
	totalSatoshiOut := int64(0)
	for _, txOut := range block.Transactions()[0].MsgTx().TxOut {
		totalSatoshiOut += txOut.Value
	}

	subsidy := blockchain.CalcBlockSubsidy(int32(state.Height()), &v.params.Params)
	expectedSatoshiOut := subsidy + totalFees
	if totalSatoshiOut > expectedSatoshiOut {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseValue, "coinbase transaction for block %s pays %d "+
			"which is more than expected value of %d", block.Hash(), totalSatoshiOut, expectedSatoshiOut)
	}
	return nil
}

// checkBlockEmbeddedSigOps adds the sigops of pay-to-script-hash redeem
// scripts to the count the block was accepted with.
func (v *blockValidator) checkBlockEmbeddedSigOps(block *btcutil.Block, state model.ChainState,
	utxoSet model.ReadOnlyUTXOSet) error {

	if !state.IsEnabled(ruleforks.BIP16) {
		return nil
	}

	allowed := v.allowedSigOps(block.MsgBlock().SerializeSize())
	sigOps := uint64(0)
	for i, tx := range block.Transactions() {
		sigOps += uint64(blockchain.CountSigOps(tx))
		if i == 0 {
			continue
		}
		for _, txIn := range tx.MsgTx().TxIn {
			entry, ok := utxoSet.Entry(txIn.PreviousOutPoint)
			if !ok || !txscript.IsPayToScriptHash(entry.ScriptPublicKey) {
				continue
			}
			sigOps += uint64(txscript.GetPreciseSigOpCount(txIn.SignatureScript, entry.ScriptPublicKey, true))
		}
		if sigOps > allowed {
			return errors.Wrapf(ruleerrors.ErrTooManySigOps, "block %s contains too many signature "+
				"operations - got %d, max %d", block.Hash(), sigOps, allowed)
		}
	}
	return nil
}

// blockUTXOSet overlays the outputs created by a block's transactions on
// the outputs the block spends from.
type blockUTXOSet struct {
	base            model.ReadOnlyUTXOSet
	created         model.UTXOSet
	blockHeight     uint32
	blockMedianTime int64
}

func newBlockUTXOSet(base model.ReadOnlyUTXOSet, state model.ChainState) *blockUTXOSet {
	return &blockUTXOSet{
		base:            base,
		created:         make(model.UTXOSet),
		blockHeight:     state.Height(),
		blockMedianTime: int64(state.MedianTimePast()),
	}
}

// Entry implements model.ReadOnlyUTXOSet.
func (set *blockUTXOSet) Entry(outpoint wire.OutPoint) (*model.UTXOEntry, bool) {
	if entry, ok := set.created[outpoint]; ok {
		return entry, true
	}
	return set.base.Entry(outpoint)
}

func (set *blockUTXOSet) addTransaction(tx *btcutil.Tx, isCoinbase bool) {
	for i, txOut := range tx.MsgTx().TxOut {
		set.created[*wire.NewOutPoint(tx.Hash(), uint32(i))] = &model.UTXOEntry{
			Amount:          txOut.Value,
			ScriptPublicKey: txOut.PkScript,
			BlockHeight:     set.blockHeight,
			BlockMedianTime: set.blockMedianTime,
			IsCoinbase:      isCoinbase,
		}
	}
}

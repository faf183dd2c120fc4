package blockvalidator

import (
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/ruleerrors"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/kaspanet/utxocore/infrastructure/logger"
	"github.com/pkg/errors"
)

// ValidateBlockInContext validates the block against the chain state of its
// height. A block at or below the last checkpoint is accepted as soon as it
// is known not to conflict with a checkpoint.
func (v *blockValidator) ValidateBlockInContext(block *btcutil.Block, state model.ChainState) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateBlockInContext")
	defer onEnd()

	err := v.checkCheckpointConflict(block, state)
	if err != nil {
		return err
	}

	if state.IsUnderCheckpoint() {
		log.Debugf("Block %s at height %d is under the last checkpoint", block.Hash(), state.Height())
		return nil
	}

	err = v.checkBlockVersion(block, state)
	if err != nil {
		return err
	}

	err = v.checkDifficulty(block, state)
	if err != nil {
		return err
	}

	err = v.checkMedianTime(block, state)
	if err != nil {
		return err
	}

	err = v.checkBlockSize(block, state)
	if err != nil {
		return err
	}

	err = v.checkBlockWitness(block, state)
	if err != nil {
		return err
	}

	err = v.checkCoinbaseHeight(block, state)
	if err != nil {
		return err
	}

	err = v.checkBlockTransactionsFinalized(block, state)
	if err != nil {
		return err
	}

	err = v.checkBlockTransactionOrder(block, state)
	if err != nil {
		return err
	}

	err = v.checkWitnessCommitment(block, state)
	if err != nil {
		return err
	}

	err = v.checkBlockSigOps(block)
	if err != nil {
		return err
	}

	return v.checkTransactionsInContext(block, state)
}

func (v *blockValidator) checkCheckpointConflict(block *btcutil.Block, state model.ChainState) error {
	if state.IsCheckpointConflict(block.Hash()) {
		return errors.Wrapf(ruleerrors.ErrBadCheckpoint, "block %s at height %d does not match "+
			"the checkpoint", block.Hash(), state.Height())
	}
	return nil
}

func (v *blockValidator) checkBlockVersion(block *btcutil.Block, state model.ChainState) error {
	version := uint32(block.MsgBlock().Header.Version)
	if version < state.MinimumVersion() {
		return errors.Wrapf(ruleerrors.ErrBlockVersionTooOld, "block version %d is lower than "+
			"the minimum of %d", version, state.MinimumVersion())
	}
	return nil
}

func (v *blockValidator) checkDifficulty(block *btcutil.Block, state model.ChainState) error {
	bits := block.MsgBlock().Header.Bits
	if bits != state.WorkRequired() {
		return errors.Wrapf(ruleerrors.ErrUnexpectedDifficulty, "block difficulty of %08x is not "+
			"the expected value of %08x", bits, state.WorkRequired())
	}
	return nil
}

func (v *blockValidator) checkMedianTime(block *btcutil.Block, state model.ChainState) error {
	timestamp := block.MsgBlock().Header.Timestamp.Unix()
	if timestamp <= int64(state.MedianTimePast()) {
		return errors.Wrapf(ruleerrors.ErrTimeTooOld, "block timestamp of %d is not after "+
			"the median time past of %d", timestamp, state.MedianTimePast())
	}
	return nil
}

// checkBlockSize holds the block to the size limit of its height. Once
// segwit is active the limit applies to the block without witness data and
// the weight limit covers the rest.
func (v *blockValidator) checkBlockSize(block *btcutil.Block, state model.ChainState) error {
	msgBlock := block.MsgBlock()
	size := uint64(msgBlock.SerializeSize())
	if state.IsEnabled(ruleforks.BIP141) {
		size = uint64(msgBlock.SerializeSizeStripped())
	}
	if size > state.MaxBlockSize() {
		return errors.Wrapf(ruleerrors.ErrBlockSizeTooHigh, "block size of %d is larger than "+
			"the limit of %d", size, state.MaxBlockSize())
	}
	return nil
}

func (v *blockValidator) checkBlockWitness(block *btcutil.Block, state model.ChainState) error {
	if !state.IsEnabled(ruleforks.BIP141) {
		for _, tx := range block.Transactions() {
			if tx.HasWitness() {
				return errors.Wrapf(ruleerrors.ErrUnexpectedWitness, "transaction %s carries "+
					"witness data before segwit", tx.Hash())
			}
		}
		return nil
	}

	weight := blockchain.GetBlockWeight(block)
	if weight > blockchain.MaxBlockWeight {
		return errors.Wrapf(ruleerrors.ErrBlockWeightTooHigh, "block weight of %d is larger than "+
			"the limit of %d", weight, blockchain.MaxBlockWeight)
	}
	return nil
}

func (v *blockValidator) checkCoinbaseHeight(block *btcutil.Block, state model.ChainState) error {
	if !state.IsEnabled(ruleforks.BIP34) {
		return nil
	}

	coinbaseHeight, err := blockchain.ExtractCoinbaseHeight(block.Transactions()[0])
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseHeight, "block %s coinbase: %s", block.Hash(), err)
	}
	if coinbaseHeight < 0 || uint32(coinbaseHeight) != state.Height() {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseHeight, "block %s coinbase commits to height %d, "+
			"expected %d", block.Hash(), coinbaseHeight, state.Height())
	}
	return nil
}

// checkBlockTransactionsFinalized compares lock times against the median
// time past once BIP113 is active and against the block timestamp before.
func (v *blockValidator) checkBlockTransactionsFinalized(block *btcutil.Block, state model.ChainState) error {
	blockTime := block.MsgBlock().Header.Timestamp
	if state.IsEnabled(ruleforks.BIP113) {
		blockTime = time.Unix(int64(state.MedianTimePast()), 0)
	}

	height := int32(state.Height())
	for _, tx := range block.Transactions() {
		if !blockchain.IsFinalizedTransaction(tx, height, blockTime) {
			return errors.Wrapf(ruleerrors.ErrUnfinalizedTx, "block contains unfinalized "+
				"transaction %s", tx.Hash())
		}
	}
	return nil
}

func (v *blockValidator) checkBlockTransactionOrder(block *btcutil.Block, state model.ChainState) error {
	if state.IsEnabled(ruleforks.MagneticAnomaly) {
		return CheckCanonicalOrder(block.Transactions())
	}
	return CheckForwardReferences(block.Transactions())
}

func (v *blockValidator) checkWitnessCommitment(block *btcutil.Block, state model.ChainState) error {
	if !state.IsEnabled(ruleforks.BIP141) {
		return nil
	}
	err := blockchain.ValidateWitnessCommitment(block)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadWitnessCommitment, "block %s: %s", block.Hash(), err)
	}
	return nil
}

// checkBlockSigOps bounds the signature operations that can be counted
// without the spent outputs. Pay-to-script-hash sigops are added once the
// block is connected.
func (v *blockValidator) checkBlockSigOps(block *btcutil.Block) error {
	allowed := v.allowedSigOps(block.MsgBlock().SerializeSize())
	sigOps := uint64(0)
	for _, tx := range block.Transactions() {
		sigOps += uint64(blockchain.CountSigOps(tx))
		if sigOps > allowed {
			return errors.Wrapf(ruleerrors.ErrTooManySigOps, "block %s contains too many signature "+
				"operations - got %d, max %d", block.Hash(), sigOps, allowed)
		}
	}
	return nil
}

func (v *blockValidator) checkTransactionsInContext(block *btcutil.Block, state model.ChainState) error {
	for _, tx := range block.Transactions() {
		err := v.transactionValidator.ValidateTransactionInContext(tx, state, false)
		if err != nil {
			return errors.Wrapf(err, "transaction %s failed context check", tx.Hash())
		}
	}
	return nil
}

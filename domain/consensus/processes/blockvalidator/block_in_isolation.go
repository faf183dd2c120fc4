package blockvalidator

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/consensus/ruleerrors"
	"github.com/kaspanet/utxocore/infrastructure/logger"
	"github.com/pkg/errors"
)

// ValidateBlockInIsolation validates the block without any chain context.
// Checkpoints never exempt a block from these checks.
func (v *blockValidator) ValidateBlockInIsolation(block *btcutil.Block) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateBlockInIsolation")
	defer onEnd()

	err := v.checkProofOfWork(&block.MsgBlock().Header)
	if err != nil {
		return err
	}

	err = v.checkBlockSizeCeiling(block)
	if err != nil {
		return err
	}

	err = v.checkBlockContainsAtLeastOneTransaction(block)
	if err != nil {
		return err
	}

	err = v.checkFirstBlockTransactionIsCoinbase(block)
	if err != nil {
		return err
	}

	err = v.checkBlockContainsOnlyOneCoinbase(block)
	if err != nil {
		return err
	}

	err = v.checkBlockDoubleSpends(block)
	if err != nil {
		return err
	}

	err = v.checkBlockHashMerkleRoot(block)
	if err != nil {
		return err
	}

	return v.checkTransactionsInIsolation(block)
}

// checkProofOfWork ensures the block header bits which indicate the target
// difficulty is in min/max range and that the block hash is less than the
// target difficulty as claimed.
func (v *blockValidator) checkProofOfWork(header *wire.BlockHeader) error {
	// The target difficulty must be larger than zero.
	target := blockchain.CompactToBig(header.Bits)
	if target.Sign() <= 0 {
		return errors.Wrapf(ruleerrors.ErrTargetTooHigh, "block target difficulty of %064x is too low",
			target)
	}

	// The target difficulty must be less than the maximum allowed.
	if target.Cmp(v.powMax) > 0 {
		return errors.Wrapf(ruleerrors.ErrTargetTooHigh, "block target difficulty of %064x is "+
			"higher than max of %064x", target, v.powMax)
	}

	if v.skipPoW {
		return nil
	}

	// The block hash must be less than the claimed target.
	hash := header.BlockHash()
	hashNum := blockchain.HashToBig(&hash)
	if hashNum.Cmp(target) > 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidPoW, "block hash of %064x is higher than "+
			"expected max of %064x", hashNum, target)
	}
	return nil
}

func (v *blockValidator) checkBlockSizeCeiling(block *btcutil.Block) error {
	size := uint64(block.MsgBlock().SerializeSize())
	if size > v.params.MaxBlockSizeCeiling {
		return errors.Wrapf(ruleerrors.ErrBlockSizeTooHigh, "serialized block is too big - got %d, "+
			"max %d", size, v.params.MaxBlockSizeCeiling)
	}
	return nil
}

func (v *blockValidator) checkBlockContainsAtLeastOneTransaction(block *btcutil.Block) error {
	if len(block.Transactions()) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTransactions, "block does not contain "+
			"any transactions")
	}
	return nil
}

func (v *blockValidator) checkFirstBlockTransactionIsCoinbase(block *btcutil.Block) error {
	if !blockchain.IsCoinBase(block.Transactions()[0]) {
		return errors.Wrapf(ruleerrors.ErrFirstTxNotCoinbase, "first transaction in "+
			"block is not a coinbase")
	}
	return nil
}

func (v *blockValidator) checkBlockContainsOnlyOneCoinbase(block *btcutil.Block) error {
	for i, tx := range block.Transactions()[1:] {
		if blockchain.IsCoinBase(tx) {
			return errors.Wrapf(ruleerrors.ErrMultipleCoinbases, "block contains second coinbase at "+
				"index %d", i+1)
		}
	}
	return nil
}

func (v *blockValidator) checkBlockDoubleSpends(block *btcutil.Block) error {
	usedOutpoints := make(map[wire.OutPoint]*chainhash.Hash)
	for _, tx := range block.Transactions()[1:] {
		for _, txIn := range tx.MsgTx().TxIn {
			if spendingTxID, exists := usedOutpoints[txIn.PreviousOutPoint]; exists {
				return errors.Wrapf(ruleerrors.ErrDoubleSpendInSameBlock, "transaction %s spends "+
					"outpoint %s that was already spent by "+
					"transaction %s in this block", tx.Hash(),
					txIn.PreviousOutPoint, spendingTxID)
			}
			usedOutpoints[txIn.PreviousOutPoint] = tx.Hash()
		}
	}
	return nil
}

func (v *blockValidator) checkBlockHashMerkleRoot(block *btcutil.Block) error {
	header := &block.MsgBlock().Header
	calculatedMerkleRoot := blockchain.CalcMerkleRoot(block.Transactions(), false)
	if !header.MerkleRoot.IsEqual(&calculatedMerkleRoot) {
		return errors.Wrapf(ruleerrors.ErrBadMerkleRoot, "block merkle root is invalid - block "+
			"header indicates %s, but calculated value is %s",
			header.MerkleRoot, calculatedMerkleRoot)
	}
	return nil
}

func (v *blockValidator) checkTransactionsInIsolation(block *btcutil.Block) error {
	for _, tx := range block.Transactions() {
		err := v.transactionValidator.ValidateTransactionInIsolation(tx, false)
		if err != nil {
			return errors.Wrapf(err, "transaction %s failed isolation "+
				"check", tx.Hash())
		}
	}
	return nil
}

package blockvalidator_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

func TestValidateBlockInIsolation(t *testing.T) {
	params := testParams()
	params.MaxBlockSizeCeiling = 2_000
	validator, _ := newTestValidator(t, params)

	validBlock := func() *btcutil.Block {
		return newBlock(coinbaseTx(testHeight, 50), spendTx(10, outpoint(1)), spendTx(10, outpoint(2)))
	}

	tests := []struct {
		name        string
		block       func() *btcutil.Block
		expectedErr error
	}{
		{
			name:  "valid block",
			block: validBlock,
		},
		{
			name: "target above the proof of work limit",
			block: func() *btcutil.Block {
				block := validBlock()
				block.MsgBlock().Header.Bits = 0x1e00ffff
				return block
			},
			expectedErr: ruleerrors.ErrTargetTooHigh,
		},
		{
			name: "larger than the size ceiling",
			block: func() *btcutil.Block {
				txs := []*wire.MsgTx{coinbaseTx(testHeight, 50)}
				for i := byte(1); i <= 20; i++ {
					txs = append(txs, spendTx(10, outpoint(i)))
				}
				return newBlock(txs...)
			},
			expectedErr: ruleerrors.ErrBlockSizeTooHigh,
		},
		{
			name:        "no transactions",
			block:       func() *btcutil.Block { return newBlock() },
			expectedErr: ruleerrors.ErrNoTransactions,
		},
		{
			name: "first transaction is not a coinbase",
			block: func() *btcutil.Block {
				return newBlock(spendTx(10, outpoint(1)), coinbaseTx(testHeight, 50))
			},
			expectedErr: ruleerrors.ErrFirstTxNotCoinbase,
		},
		{
			name: "second coinbase",
			block: func() *btcutil.Block {
				return newBlock(coinbaseTx(testHeight, 50), coinbaseTx(testHeight+1, 50))
			},
			expectedErr: ruleerrors.ErrMultipleCoinbases,
		},
		{
			name: "internal double spend",
			block: func() *btcutil.Block {
				return newBlock(coinbaseTx(testHeight, 50), spendTx(10, outpoint(1)), spendTx(20, outpoint(1)))
			},
			expectedErr: ruleerrors.ErrDoubleSpendInSameBlock,
		},
		{
			name: "bad merkle root",
			block: func() *btcutil.Block {
				block := validBlock()
				block.MsgBlock().Header.MerkleRoot = chainhash.Hash{1}
				return block
			},
			expectedErr: ruleerrors.ErrBadMerkleRoot,
		},
		{
			name: "invalid transaction",
			block: func() *btcutil.Block {
				return newBlock(coinbaseTx(testHeight, 50), spendTx(-1, outpoint(1)))
			},
			expectedErr: ruleerrors.ErrBadTxOutValue,
		},
	}

	for _, test := range tests {
		err := validator.ValidateBlockInIsolation(test.block())
		if !errors.Is(err, test.expectedErr) {
			t.Errorf("%s: expected error %v, got %v", test.name, test.expectedErr, err)
		}
	}
}

func TestValidateBlockInIsolationProofOfWork(t *testing.T) {
	params := testParams()
	params.SkipProofOfWork = false
	validator, _ := newTestValidator(t, params)

	// A hash below the mainnet limit is practically unreachable by chance.
	err := validator.ValidateBlockInIsolation(newBlock(coinbaseTx(testHeight, 50)))
	if !errors.Is(err, ruleerrors.ErrInvalidPoW) {
		t.Fatalf("expected ErrInvalidPoW, got %v", err)
	}
}

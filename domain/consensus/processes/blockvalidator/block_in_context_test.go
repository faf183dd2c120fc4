package blockvalidator_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/consensus/processes/blockvalidator"
	"github.com/kaspanet/utxocore/domain/consensus/ruleerrors"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/kaspanet/utxocore/domain/consensus/utils/testutils"
	"github.com/pkg/errors"
)

func TestValidateBlockInContext(t *testing.T) {
	params := testParams()
	params.MaxBlockSigOpsPerMB = 3
	validator, _ := newTestValidator(t, params)

	const bitcoinForks = ruleforks.BIP16 | ruleforks.BIP30 | ruleforks.BIP34Rules | ruleforks.BIP9Bit0Rules
	validBlock := func() *btcutil.Block {
		return newBlock(coinbaseTx(testHeight, 50), spendTx(10, outpoint(1)))
	}

	tests := []struct {
		name        string
		forks       ruleforks.RuleForks
		setup       func(state *testutils.ChainStateMock)
		block       func() *btcutil.Block
		expectedErr error
	}{
		{
			name:  "valid block",
			forks: bitcoinForks,
			block: validBlock,
		},
		{
			name:  "checkpoint conflict",
			forks: bitcoinForks,
			setup: func(state *testutils.ChainStateMock) {
				state.CheckpointHash = &chainhash.Hash{1}
			},
			block:       validBlock,
			expectedErr: ruleerrors.ErrBadCheckpoint,
		},
		{
			name:  "version too old",
			forks: bitcoinForks,
			block: func() *btcutil.Block {
				block := validBlock()
				block.MsgBlock().Header.Version = 3
				return block
			},
			expectedErr: ruleerrors.ErrBlockVersionTooOld,
		},
		{
			name:  "unexpected bits",
			forks: bitcoinForks,
			setup: func(state *testutils.ChainStateMock) {
				state.WorkRequiredValue = 0x1c0ffff0
			},
			block:       validBlock,
			expectedErr: ruleerrors.ErrUnexpectedDifficulty,
		},
		{
			name:  "timestamp at the median time past",
			forks: bitcoinForks,
			setup: func(state *testutils.ChainStateMock) {
				state.MedianTimePastValue = testTimestamp
			},
			block:       validBlock,
			expectedErr: ruleerrors.ErrTimeTooOld,
		},
		{
			name:  "larger than the limit",
			forks: bitcoinForks,
			setup: func(state *testutils.ChainStateMock) {
				state.MaxBlockSizeValue = 200
			},
			block:       validBlock,
			expectedErr: ruleerrors.ErrBlockSizeTooHigh,
		},
		{
			name:  "witness before segwit",
			forks: bitcoinForks,
			block: func() *btcutil.Block {
				tx := spendTx(10, outpoint(1))
				tx.TxIn[0].Witness = wire.TxWitness{{1}}
				return newBlock(coinbaseTx(testHeight, 50), tx)
			},
			expectedErr: ruleerrors.ErrUnexpectedWitness,
		},
		{
			name:  "wrong coinbase height",
			forks: bitcoinForks,
			block: func() *btcutil.Block {
				return newBlock(coinbaseTx(testHeight+1, 50), spendTx(10, outpoint(1)))
			},
			expectedErr: ruleerrors.ErrBadCoinbaseHeight,
		},
		{
			name:  "coinbase height before bip34",
			forks: ruleforks.BIP16,
			block: func() *btcutil.Block {
				return newBlock(coinbaseTx(testHeight+1, 50), spendTx(10, outpoint(1)))
			},
		},
		{
			name:  "unfinalized transaction",
			forks: bitcoinForks,
			block: func() *btcutil.Block {
				tx := spendTx(10, outpoint(1))
				tx.LockTime = testHeight
				tx.TxIn[0].Sequence = 0
				return newBlock(coinbaseTx(testHeight, 50), tx)
			},
			expectedErr: ruleerrors.ErrUnfinalizedTx,
		},
		{
			name:  "lock time against the timestamp before bip113",
			forks: ruleforks.BIP16 | ruleforks.BIP34,
			block: func() *btcutil.Block {
				tx := spendTx(10, outpoint(1))
				tx.LockTime = testMedian + 1
				tx.TxIn[0].Sequence = 0
				return newBlock(coinbaseTx(testHeight, 50), tx)
			},
		},
		{
			name:  "lock time against the median time past after bip113",
			forks: bitcoinForks,
			block: func() *btcutil.Block {
				tx := spendTx(10, outpoint(1))
				tx.LockTime = testMedian + 1
				tx.TxIn[0].Sequence = 0
				return newBlock(coinbaseTx(testHeight, 50), tx)
			},
			expectedErr: ruleerrors.ErrUnfinalizedTx,
		},
		{
			name:  "too many sigops",
			forks: bitcoinForks,
			block: func() *btcutil.Block {
				tx := spendTx(10, outpoint(1))
				tx.TxOut[0].PkScript = []byte{txscript.OP_CHECKSIG, txscript.OP_CHECKSIG,
					txscript.OP_CHECKSIG, txscript.OP_CHECKSIG}
				return newBlock(coinbaseTx(testHeight, 50), tx)
			},
			expectedErr: ruleerrors.ErrTooManySigOps,
		},
		{
			name:  "transaction too small after magnetic anomaly",
			forks: bitcoinForks | ruleforks.MagneticAnomaly,
			block: func() *btcutil.Block {
				tx := wire.NewMsgTx(wire.TxVersion)
				tx.AddTxIn(wire.NewTxIn(outpoint(1), nil, nil))
				tx.AddTxOut(wire.NewTxOut(10, []byte{txscript.OP_TRUE}))
				return newBlock(coinbaseTx(testHeight, 50), tx)
			},
			expectedErr: ruleerrors.ErrTxTooSmall,
		},
	}

	for _, test := range tests {
		state := newTestState(test.forks)
		if test.setup != nil {
			test.setup(state)
		}
		err := validator.ValidateBlockInContext(test.block(), state)
		if !errors.Is(err, test.expectedErr) {
			t.Errorf("%s: expected error %v, got %v", test.name, test.expectedErr, err)
		}
	}
}

func TestCheckpointShortCircuit(t *testing.T) {
	validator, _ := newTestValidator(t, testParams())

	badCoinbaseHeight := newBlock(coinbaseTx(testHeight+7, 50), spendTx(10, outpoint(1)))

	state := newTestState(ruleforks.BIP34Rules)
	state.UnderCheckpoint = true
	err := validator.ValidateBlockInContext(badCoinbaseHeight, state)
	if err != nil {
		t.Fatalf("ValidateBlockInContext under the checkpoint: %s", err)
	}

	state = newTestState(ruleforks.BIP34Rules)
	err = validator.ValidateBlockInContext(badCoinbaseHeight, state)
	if !errors.Is(err, ruleerrors.ErrBadCoinbaseHeight) {
		t.Fatalf("expected ErrBadCoinbaseHeight above the checkpoint, got %v", err)
	}

	// The checkpointed hash itself is still verified.
	state = newTestState(ruleforks.BIP34Rules)
	state.UnderCheckpoint = true
	state.CheckpointHash = &chainhash.Hash{1}
	err = validator.ValidateBlockInContext(badCoinbaseHeight, state)
	if !errors.Is(err, ruleerrors.ErrBadCheckpoint) {
		t.Fatalf("expected ErrBadCheckpoint, got %v", err)
	}

	malformed := newBlock(coinbaseTx(testHeight+7, 50), spendTx(10, outpoint(1)))
	malformed.MsgBlock().Header.MerkleRoot = chainhash.Hash{1}
	err = validator.ValidateBlockInIsolation(malformed)
	if !errors.Is(err, ruleerrors.ErrBadMerkleRoot) {
		t.Fatalf("expected ErrBadMerkleRoot, got %v", err)
	}
}

// orderedPair returns a transaction b and a transaction c spending b such
// that c sorts after b.
func orderedPair() (b, c *wire.MsgTx) {
	for value := int64(1); ; value++ {
		b = spendTx(value, outpoint(1))
		c = spendTx(1, wire.NewOutPoint(txHash(b), 0))
		if txHash(c).String() > txHash(b).String() {
			return b, c
		}
	}
}

func txHash(tx *wire.MsgTx) *chainhash.Hash {
	hash := tx.TxHash()
	return &hash
}

func TestTransactionOrdering(t *testing.T) {
	validator, _ := newTestValidator(t, testParams())
	b, c := orderedPair()

	// c comes first even though it spends b, and is out of canonical order.
	block := newBlock(coinbaseTx(testHeight, 50), c, b)

	err := validator.ValidateBlockInContext(block, newTestState(ruleforks.BIP34Rules))
	if !errors.Is(err, ruleerrors.ErrForwardReference) {
		t.Fatalf("expected ErrForwardReference, got %v", err)
	}

	err = validator.ValidateBlockInContext(block, newTestState(ruleforks.BIP34Rules|ruleforks.MagneticAnomaly))
	if !errors.Is(err, ruleerrors.ErrTransactionsNotSorted) {
		t.Fatalf("expected ErrTransactionsNotSorted, got %v", err)
	}

	// Topological and canonical order agree for this pair.
	block = newBlock(coinbaseTx(testHeight, 50), b, c)
	for _, forks := range []ruleforks.RuleForks{ruleforks.BIP34Rules, ruleforks.BIP34Rules | ruleforks.MagneticAnomaly} {
		err = validator.ValidateBlockInContext(block, newTestState(forks))
		if err != nil {
			t.Fatalf("ValidateBlockInContext with forks %s: %s", forks, err)
		}
	}
}

func TestCheckCanonicalOrder(t *testing.T) {
	b, c := orderedPair()
	coinbase := btcutil.NewTx(coinbaseTx(testHeight, 50))

	tests := []struct {
		name        string
		txs         []*btcutil.Tx
		expectedErr error
	}{
		{name: "coinbase only", txs: []*btcutil.Tx{coinbase}},
		{name: "single transaction", txs: []*btcutil.Tx{coinbase, btcutil.NewTx(c)}},
		{name: "ascending", txs: []*btcutil.Tx{coinbase, btcutil.NewTx(b), btcutil.NewTx(c)}},
		{
			name:        "descending",
			txs:         []*btcutil.Tx{coinbase, btcutil.NewTx(c), btcutil.NewTx(b)},
			expectedErr: ruleerrors.ErrTransactionsNotSorted,
		},
	}

	for _, test := range tests {
		err := blockvalidator.CheckCanonicalOrder(test.txs)
		if !errors.Is(err, test.expectedErr) {
			t.Errorf("%s: expected error %v, got %v", test.name, test.expectedErr, err)
		}
	}
}

func TestCheckForwardReferences(t *testing.T) {
	b, c := orderedPair()
	unrelated := spendTx(5, outpoint(9))

	tests := []struct {
		name        string
		txs         []*wire.MsgTx
		expectedErr error
	}{
		{name: "spend of an earlier transaction", txs: []*wire.MsgTx{b, unrelated, c}},
		{name: "unrelated transactions", txs: []*wire.MsgTx{c, unrelated}},
		{
			name:        "spend of a later transaction",
			txs:         []*wire.MsgTx{c, unrelated, b},
			expectedErr: ruleerrors.ErrForwardReference,
		},
	}

	for _, test := range tests {
		txs := make([]*btcutil.Tx, len(test.txs))
		for i, tx := range test.txs {
			txs[i] = btcutil.NewTx(tx)
		}
		err := blockvalidator.CheckForwardReferences(txs)
		if !errors.Is(err, test.expectedErr) {
			t.Errorf("%s: expected error %v, got %v", test.name, test.expectedErr, err)
		}
	}
}

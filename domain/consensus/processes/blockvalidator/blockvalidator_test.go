package blockvalidator_test

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/processes/blockvalidator"
	"github.com/kaspanet/utxocore/domain/consensus/processes/transactionvalidator"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/kaspanet/utxocore/domain/consensus/utils/testutils"
	"github.com/kaspanet/utxocore/domain/consensus/validationcache"
)

const (
	testHeight    = 1000
	testBits      = 0x1d00ffff
	testMedian    = 1_600_000_000
	testTimestamp = testMedian + 600
)

func testParams() *chainconfig.Params {
	params := chainconfig.MainnetParams.Clone()
	params.SkipProofOfWork = true
	return params
}

func newTestValidator(t *testing.T, params *chainconfig.Params) (model.BlockValidator, *testutils.ScriptVerifierMock) {
	cache, err := validationcache.New(1000)
	if err != nil {
		t.Fatalf("validationcache.New: %s", err)
	}
	scriptVerifier := &testutils.ScriptVerifierMock{}
	transactionValidator := transactionvalidator.New(params, cache, scriptVerifier)
	return blockvalidator.New(params, transactionValidator), scriptVerifier
}

// newTestState returns a chain state under which blocks built by newBlock
// are acceptable at testHeight.
func newTestState(forks ruleforks.RuleForks) *testutils.ChainStateMock {
	return &testutils.ChainStateMock{
		HeightValue:         testHeight,
		Forks:               forks,
		MinimumVersionValue: chainconfig.BIP65Version,
		MedianTimePastValue: testMedian,
		WorkRequiredValue:   testBits,
		MaxBlockSizeValue:   1_000_000,
	}
}

// coinbaseTx commits to height and pads its signature script so the
// transaction is larger than any minimum transaction size.
func coinbaseTx(height int64, value int64) *wire.MsgTx {
	signatureScript, err := txscript.NewScriptBuilder().
		AddInt64(height).
		AddData(make([]byte, 48)).
		Script()
	if err != nil {
		panic(err)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex), signatureScript, nil))
	tx.AddTxOut(wire.NewTxOut(value, []byte{txscript.OP_TRUE}))
	return tx
}

// spendTx spends the given outpoints and pays value to OP_TRUE. Its
// signature script is padded the same way as coinbaseTx.
func spendTx(value int64, outpoints ...*wire.OutPoint) *wire.MsgTx {
	signatureScript, err := txscript.NewScriptBuilder().AddData(make([]byte, 64)).Script()
	if err != nil {
		panic(err)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	for _, outpoint := range outpoints {
		tx.AddTxIn(wire.NewTxIn(outpoint, signatureScript, nil))
	}
	tx.AddTxOut(wire.NewTxOut(value, []byte{txscript.OP_TRUE}))
	return tx
}

func outpoint(b byte) *wire.OutPoint {
	return wire.NewOutPoint(&chainhash.Hash{b}, 0)
}

func newBlock(txs ...*wire.MsgTx) *btcutil.Block {
	utilTxs := make([]*btcutil.Tx, len(txs))
	for i, tx := range txs {
		utilTxs[i] = btcutil.NewTx(tx)
	}

	msgBlock := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:    chainconfig.BIP65Version,
			PrevBlock:  chainhash.Hash{0xaa},
			MerkleRoot: blockchain.CalcMerkleRoot(utilTxs, false),
			Timestamp:  time.Unix(testTimestamp, 0),
			Bits:       testBits,
		},
		Transactions: txs,
	}
	return btcutil.NewBlock(msgBlock)
}

// utxoSetFor holds an unspent output of value for every outpoint.
func utxoSetFor(value int64, outpoints ...*wire.OutPoint) model.UTXOSet {
	set := make(model.UTXOSet)
	for _, outpoint := range outpoints {
		set[*outpoint] = &model.UTXOEntry{
			Amount:          value,
			ScriptPublicKey: []byte{txscript.OP_TRUE},
			BlockHeight:     testHeight - 200,
		}
	}
	return set
}

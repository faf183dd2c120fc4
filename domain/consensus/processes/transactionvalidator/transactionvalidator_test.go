package transactionvalidator_test

import (
	"math"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/processes/transactionvalidator"
	"github.com/kaspanet/utxocore/domain/consensus/utils/testutils"
	"github.com/kaspanet/utxocore/domain/consensus/validationcache"
)

func newTestValidator(t *testing.T, params *chainconfig.Params) (model.TransactionValidator,
	*validationcache.Cache, *testutils.ScriptVerifierMock) {

	cache, err := validationcache.New(1000)
	if err != nil {
		t.Fatalf("validationcache.New: %s", err)
	}
	scriptVerifier := &testutils.ScriptVerifierMock{}
	return transactionvalidator.New(params, cache, scriptVerifier), cache, scriptVerifier
}

// spendTx returns a transaction spending index 0 of the transactions with
// the given hash bytes and paying value to an OP_TRUE output.
func spendTx(value int64, prevTxIDs ...byte) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	for _, prevTxID := range prevTxIDs {
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{prevTxID}, 0), []byte{txscript.OP_TRUE}, nil))
	}
	tx.AddTxOut(wire.NewTxOut(value, []byte{txscript.OP_TRUE}))
	return tx
}

func coinbaseTx(signatureScript []byte, value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, math.MaxUint32), signatureScript, nil))
	tx.AddTxOut(wire.NewTxOut(value, []byte{txscript.OP_TRUE}))
	return tx
}

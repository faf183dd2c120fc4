package blockvalidator_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/ruleerrors"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/pkg/errors"
)

const subsidy = 50 * btcutil.SatoshiPerBitcoin

func TestValidateBlockConnection(t *testing.T) {
	params := testParams()
	params.MaxBlockSigOpsPerMB = 3

	tests := []struct {
		name        string
		block       func() *btcutil.Block
		utxoSet     model.UTXOSet
		scriptErr   error
		expectedErr error
	}{
		{
			name: "coinbase claims subsidy and fees",
			block: func() *btcutil.Block {
				return newBlock(coinbaseTx(testHeight, subsidy+300),
					spendTx(900, outpoint(1)), spendTx(800, outpoint(2)))
			},
			utxoSet: utxoSetFor(1000, outpoint(1), outpoint(2)),
		},
		{
			name: "coinbase claims more than subsidy and fees",
			block: func() *btcutil.Block {
				return newBlock(coinbaseTx(testHeight, subsidy+301),
					spendTx(900, outpoint(1)), spendTx(800, outpoint(2)))
			},
			utxoSet:     utxoSetFor(1000, outpoint(1), outpoint(2)),
			expectedErr: ruleerrors.ErrBadCoinbaseValue,
		},
		{
			name: "spend of an output created earlier in the block",
			block: func() *btcutil.Block {
				parent := spendTx(900, outpoint(1))
				child := spendTx(800, wire.NewOutPoint(txHash(parent), 0))
				return newBlock(coinbaseTx(testHeight, subsidy+200), parent, child)
			},
			utxoSet: utxoSetFor(1000, outpoint(1)),
		},
		{
			name: "spend of the block's own coinbase",
			block: func() *btcutil.Block {
				coinbase := coinbaseTx(testHeight, subsidy)
				return newBlock(coinbase, spendTx(1, wire.NewOutPoint(txHash(coinbase), 0)))
			},
			utxoSet:     utxoSetFor(1000),
			expectedErr: ruleerrors.ErrImmatureSpend,
		},
		{
			name: "missing output",
			block: func() *btcutil.Block {
				return newBlock(coinbaseTx(testHeight, subsidy), spendTx(900, outpoint(1)))
			},
			utxoSet:     utxoSetFor(1000, outpoint(2)),
			expectedErr: ruleerrors.ErrMissingTxOut{},
		},
		{
			name: "overspend",
			block: func() *btcutil.Block {
				return newBlock(coinbaseTx(testHeight, subsidy), spendTx(1001, outpoint(1)))
			},
			utxoSet:     utxoSetFor(1000, outpoint(1)),
			expectedErr: ruleerrors.ErrSpendTooHigh,
		},
		{
			name: "script failure",
			block: func() *btcutil.Block {
				return newBlock(coinbaseTx(testHeight, subsidy), spendTx(900, outpoint(1)))
			},
			utxoSet:     utxoSetFor(1000, outpoint(1)),
			scriptErr:   errors.New("signature mismatch"),
			expectedErr: ruleerrors.ErrScriptValidation,
		},
		{
			name: "too many pay to script hash sigops",
			block: func() *btcutil.Block {
				redeemScript := []byte{txscript.OP_CHECKSIG, txscript.OP_CHECKSIG,
					txscript.OP_CHECKSIG, txscript.OP_CHECKSIG}
				signatureScript, err := txscript.NewScriptBuilder().AddData(redeemScript).Script()
				if err != nil {
					t.Fatalf("NewScriptBuilder: %s", err)
				}
				tx := spendTx(900, outpoint(1))
				tx.TxIn[0].SignatureScript = signatureScript
				return newBlock(coinbaseTx(testHeight, subsidy), tx)
			},
			utxoSet:     p2shUTXOSet(t, outpoint(1)),
			expectedErr: ruleerrors.ErrTooManySigOps,
		},
	}

	for _, test := range tests {
		validator, scriptVerifier := newTestValidator(t, params)
		scriptVerifier.Err = test.scriptErr

		state := newTestState(ruleforks.BIP16 | ruleforks.BIP34Rules)
		err := validator.ValidateBlockConnection(test.block(), state, test.utxoSet)
		if missing, ok := test.expectedErr.(ruleerrors.ErrMissingTxOut); ok {
			if !errors.As(err, &missing) {
				t.Errorf("%s: expected ErrMissingTxOut, got %v", test.name, err)
			}
			continue
		}
		if !errors.Is(err, test.expectedErr) {
			t.Errorf("%s: expected error %v, got %v", test.name, test.expectedErr, err)
		}
	}
}

// p2shUTXOSet holds a pay-to-script-hash output for every outpoint.
func p2shUTXOSet(t *testing.T, outpoints ...*wire.OutPoint) model.UTXOSet {
	scriptPublicKey, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(make([]byte, 20)).
		AddOp(txscript.OP_EQUAL).
		Script()
	if err != nil {
		t.Fatalf("NewScriptBuilder: %s", err)
	}

	set := utxoSetFor(1000, outpoints...)
	for _, entry := range set {
		entry.ScriptPublicKey = scriptPublicKey
	}
	return set
}

func TestValidateBlockConnectionUnderCheckpoint(t *testing.T) {
	validator, scriptVerifier := newTestValidator(t, testParams())

	state := newTestState(ruleforks.BIP16 | ruleforks.BIP34Rules)
	state.UnderCheckpoint = true

	// Neither the spent output nor the coinbase value is looked at.
	block := newBlock(coinbaseTx(testHeight, 2*subsidy), spendTx(900, outpoint(1)))
	err := validator.ValidateBlockConnection(block, state, model.UTXOSet{})
	if err != nil {
		t.Fatalf("ValidateBlockConnection: %s", err)
	}
	if scriptVerifier.Calls() != 0 {
		t.Fatalf("expected no script verification under the checkpoint, got %d", scriptVerifier.Calls())
	}
}

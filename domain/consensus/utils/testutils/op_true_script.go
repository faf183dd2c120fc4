package testutils

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
)

// OpTrueScript returns a P2SH script paying to an anyone-can-spend address,
// The second return value is the redeem script, which spends it when pushed
// as the signature script.
func OpTrueScript(params *chaincfg.Params) (scriptPublicKey []byte, redeemScript []byte) {
	redeemScript = []byte{txscript.OP_TRUE}
	address, err := btcutil.NewAddressScriptHash(redeemScript, params)
	if err != nil {
		panic(errors.Wrapf(err, "Couldn't hash opTrueScript. This should never happen"))
	}
	scriptPublicKey, err = txscript.PayToAddrScript(address)
	if err != nil {
		panic(errors.Wrapf(err, "Couldn't parse opTrueScript. This should never happen"))
	}
	return scriptPublicKey, redeemScript
}

// OpTrueSignatureScript returns the signature script that spends an
// OpTrueScript output.
func OpTrueSignatureScript() []byte {
	signatureScript, err := txscript.NewScriptBuilder().AddData([]byte{txscript.OP_TRUE}).Script()
	if err != nil {
		panic(errors.Wrapf(err, "Couldn't build the OP_TRUE signature script. This should never happen"))
	}
	return signatureScript
}

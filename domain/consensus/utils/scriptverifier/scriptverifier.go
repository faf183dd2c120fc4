package scriptverifier

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	lru "github.com/hashicorp/golang-lru"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/pkg/errors"
)

// ErrUnsupportedForks is returned for rule forks the btcd script engine
// does not implement.
var ErrUnsupportedForks = errors.New("unsupported rule forks")

// unsupportedForks are the Bitcoin Cash upgrades that change script
// semantics in ways the btcd engine does not know about.
const unsupportedForks = ruleforks.UAHF | ruleforks.MagneticAnomaly | ruleforks.GreatWall |
	ruleforks.Graviton | ruleforks.Phonon | ruleforks.Upgrade9 | ruleforks.Upgrade11

// verifier runs inputs through the btcd script engine. Signature hash
// midstates are cached per transaction, since every input of a transaction
// shares them.
type verifier struct {
	sigCache  *txscript.SigCache
	hashCache *lru.Cache
}

// New instantiates a new ScriptVerifier
func New(sigCacheSize uint, hashCacheSize int) (model.ScriptVerifier, error) {
	hashCache, err := lru.New(hashCacheSize)
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating a sighash cache of size %d", hashCacheSize)
	}
	return &verifier{
		sigCache:  txscript.NewSigCache(sigCacheSize),
		hashCache: hashCache,
	}, nil
}

// Flags returns the script verification flags that enforce the given rule
// forks.
func Flags(forks ruleforks.RuleForks) txscript.ScriptFlags {
	flags := txscript.ScriptFlags(0)
	if forks.IsEnabled(ruleforks.BIP16) {
		flags |= txscript.ScriptBip16
	}
	if forks.IsEnabled(ruleforks.BIP66) {
		flags |= txscript.ScriptVerifyDERSignatures
	}
	if forks.IsEnabled(ruleforks.BIP65) {
		flags |= txscript.ScriptVerifyCheckLockTimeVerify
	}
	if forks.IsEnabled(ruleforks.BIP112) {
		flags |= txscript.ScriptVerifyCheckSequenceVerify
	}
	// Witness programs are only recognized inside pay-to-script-hash
	// outputs once P2SH itself is enforced.
	if forks.IsEnabled(ruleforks.BIP141) && forks.IsEnabled(ruleforks.BIP16) {
		flags |= txscript.ScriptVerifyWitness
	}
	if forks.IsEnabled(ruleforks.BIP147) {
		flags |= txscript.ScriptVerifyNullFail
	}
	return flags
}

func (v *verifier) Verify(tx *wire.MsgTx, inputIndex int, forks ruleforks.RuleForks,
	prevOuts []*model.UTXOEntry) error {

	if forks&unsupportedForks != 0 {
		return errors.Wrapf(ErrUnsupportedForks, "%s", forks&unsupportedForks)
	}
	if inputIndex < 0 || inputIndex >= len(tx.TxIn) {
		return errors.Errorf("input index %d out of range of %d inputs", inputIndex, len(tx.TxIn))
	}
	if len(prevOuts) != len(tx.TxIn) {
		return errors.Errorf("%d previous outputs given for %d inputs", len(prevOuts), len(tx.TxIn))
	}

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, txIn := range tx.TxIn {
		fetcher.AddPrevOut(txIn.PreviousOutPoint, wire.NewTxOut(prevOuts[i].Amount, prevOuts[i].ScriptPublicKey))
	}

	prevOut := prevOuts[inputIndex]
	engine, err := txscript.NewEngine(prevOut.ScriptPublicKey, tx, inputIndex, Flags(forks),
		v.sigCache, v.sigHashes(tx, fetcher), prevOut.Amount, fetcher)
	if err != nil {
		return errors.Wrapf(err, "failed creating a script engine for input %d", inputIndex)
	}
	return engine.Execute()
}

func (v *verifier) sigHashes(tx *wire.MsgTx, fetcher txscript.PrevOutputFetcher) *txscript.TxSigHashes {
	txID := tx.TxHash()
	if cached, ok := v.hashCache.Get(txID); ok {
		return cached.(*txscript.TxSigHashes)
	}
	hashes := txscript.NewTxSigHashes(tx, fetcher)
	v.hashCache.Add(txID, hashes)
	return hashes
}

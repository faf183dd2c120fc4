package transactionvalidator

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/validationcache"
)

// maxSatoshi is the largest value an output, or the sum of the outputs or
// inputs of a transaction, may carry.
const maxSatoshi = int64(btcutil.MaxSatoshi)

// transactionValidator exposes a set of validation classes, after which
// it's possible to determine whether either a transaction is valid
type transactionValidator struct {
	params          *chainconfig.Params
	validationCache *validationcache.Cache
	scriptVerifier  model.ScriptVerifier
}

// New instantiates a new TransactionValidator
func New(params *chainconfig.Params,
	validationCache *validationcache.Cache,
	scriptVerifier model.ScriptVerifier) model.TransactionValidator {

	return &transactionValidator{
		params:          params,
		validationCache: validationCache,
		scriptVerifier:  scriptVerifier,
	}
}

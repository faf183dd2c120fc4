package model

import (
	"github.com/btcsuite/btcd/btcutil"
)

// TransactionValidator exposes a set of validation classes, after which
// it's possible to determine whether either a transaction is valid
type TransactionValidator interface {
	ValidateTransactionInIsolation(tx *btcutil.Tx, fromPool bool) error
	ValidateTransactionInContext(tx *btcutil.Tx, state ChainState, fromPool bool) error
	ValidateTransactionAndCalculateFee(tx *btcutil.Tx, state ChainState, utxoSet ReadOnlyUTXOSet) (fee int64, err error)
}

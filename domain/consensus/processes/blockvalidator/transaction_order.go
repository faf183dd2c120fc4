package blockvalidator

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kaspanet/utxocore/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// CheckForwardReferences ensures no transaction spends an output of a
// transaction that comes after it in the block.
func CheckForwardReferences(transactions []*btcutil.Tx) error {
	later := make(map[chainhash.Hash]struct{}, len(transactions))
	for i := len(transactions) - 1; i >= 0; i-- {
		tx := transactions[i]
		later[*tx.Hash()] = struct{}{}
		for _, txIn := range tx.MsgTx().TxIn {
			if _, ok := later[txIn.PreviousOutPoint.Hash]; ok {
				return errors.Wrapf(ruleerrors.ErrForwardReference, "transaction %s spends "+
					"transaction %s which appears later in the block", tx.Hash(),
					txIn.PreviousOutPoint.Hash)
			}
		}
	}
	return nil
}

// CheckCanonicalOrder ensures the transactions after the coinbase are in
// ascending txid order, comparing txids as they are displayed.
func CheckCanonicalOrder(transactions []*btcutil.Tx) error {
	for i := 2; i < len(transactions); i++ {
		previous, current := transactions[i-1].Hash(), transactions[i].Hash()
		if compareTxIDs(previous, current) > 0 {
			return errors.Wrapf(ruleerrors.ErrTransactionsNotSorted, "transaction %s at index %d "+
				"sorts before transaction %s", current, i, previous)
		}
	}
	return nil
}

// compareTxIDs compares hashes from their most significant byte, which
// chainhash stores last.
func compareTxIDs(a, b *chainhash.Hash) int {
	for i := chainhash.HashSize - 1; i >= 0; i-- {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

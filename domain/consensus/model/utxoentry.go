package model

// UTXOEntry houses details about an individual transaction output in a utxo
// set such as whether or not it was contained in a coinbase tx, the height
// and median time past of the block that contains the tx, its public key
// script, and how much it pays.
type UTXOEntry struct {
	Amount          int64
	ScriptPublicKey []byte // The public key script for the output.
	BlockHeight     uint32 // Height of the block containing the tx.
	BlockMedianTime int64  // Median time past of the block containing the tx.
	IsCoinbase      bool
}

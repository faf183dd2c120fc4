package blockvalidator

import (
	"math/big"

	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/model"
)

// blockValidator exposes a set of validation classes, after which
// it's possible to determine whether either a block is valid
type blockValidator struct {
	params  *chainconfig.Params
	powMax  *big.Int
	skipPoW bool

	transactionValidator model.TransactionValidator
}

// New instantiates a new BlockValidator
func New(params *chainconfig.Params, transactionValidator model.TransactionValidator) model.BlockValidator {
	return &blockValidator{
		params:               params,
		powMax:               params.PowLimit,
		skipPoW:              params.SkipProofOfWork,
		transactionValidator: transactionValidator,
	}
}

// allowedSigOps is the signature operation allowance of a block of the
// given serialized size: a fixed amount per started megabyte.
func (v *blockValidator) allowedSigOps(blockSize int) uint64 {
	const oneMegabyte = 1_000_000
	megabytes := uint64(1)
	if blockSize > 0 {
		megabytes = uint64(blockSize-1)/oneMegabyte + 1
	}
	return v.params.MaxBlockSigOpsPerMB * megabytes
}

package chainstate

import (
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/kaspanet/utxocore/domain/chainconfig"
)

// cashWorkBlocks is the number of blocks cw-144 averages the work of.
const cashWorkBlocks = 144

var oneLsh256 = new(big.Int).Lsh(big.NewInt(1), 256)

// suitableBlock returns the index of the block with the median timestamp
// among the block at index and its two predecessors.
func suitableBlock(timestamps []uint32, index int) int {
	blocks := [3]int{index - 2, index - 1, index}
	if timestamps[blocks[0]] > timestamps[blocks[2]] {
		blocks[0], blocks[2] = blocks[2], blocks[0]
	}
	if timestamps[blocks[0]] > timestamps[blocks[1]] {
		blocks[0], blocks[1] = blocks[1], blocks[0]
	}
	if timestamps[blocks[1]] > timestamps[blocks[2]] {
		blocks[1], blocks[2] = blocks[2], blocks[1]
	}
	return blocks[1]
}

// cashWorkRequired computes the target from the work done and the time
// elapsed over the last 144 blocks, each end taken as the median of three
// blocks to dampen timestamp manipulation.
func cashWorkRequired(bits, timestamps []uint32, params *chainconfig.Params) uint32 {
	n := len(timestamps)
	lastIndex := suitableBlock(timestamps, n-1)
	firstIndex := suitableBlock(timestamps, n-1-cashWorkBlocks)

	work := new(big.Int)
	for i := firstIndex + 1; i <= lastIndex; i++ {
		work.Add(work, blockchain.CalcWork(bits[i]))
	}

	spacing := int64(params.TargetSpacingSeconds)
	timespan := int64(timestamps[lastIndex]) - int64(timestamps[firstIndex])
	timespan = max(timespan, cashWorkBlocks/2*spacing)
	timespan = min(timespan, cashWorkBlocks*2*spacing)

	// The expected work over the timespan is work * spacing / timespan, and
	// the target that yields it is (2^256 - work) / work.
	work.Mul(work, big.NewInt(spacing))
	work.Div(work, big.NewInt(timespan))
	if work.Sign() == 0 {
		return params.PowLimitBits
	}

	target := new(big.Int).Sub(oneLsh256, work)
	target.Div(target, work)
	return clampTarget(target, params)
}

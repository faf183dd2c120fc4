package chainstate

import (
	"math"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
)

// FromTop derives the pool state of the height above top, the state block
// templates and pooled transactions are validated against. topBlockSize is
// the size of the top block and feeds the adaptive block size limit.
//
// The ancestor windows are promoted in place, so no store access is
// needed. A window that would have to grow cannot be promoted and yields an
// invalid state; the caller then collects the data afresh.
func FromTop(top *ChainState, topBlockSize uint64) *ChainState {
	params := top.params
	forks := top.forks
	height := top.data.Height + 1
	queryMap := NewQueryMap(height, forks, params)

	data := &Data{
		Height:              height,
		AllowCollisionsHash: top.data.AllowCollisionsHash,
		BIP9Bit0Hash:        top.data.BIP9Bit0Hash,
		Bits: BitsData{
			Self:    params.PowLimitBits,
			Ordered: promote(top.data.Bits.Ordered, top.data.Bits.Self, queryMap.Bits.Count),
		},
		Version: VersionData{
			Self:    SignalVersion(forks),
			Ordered: promote(top.data.Version.Ordered, top.data.Version.Self, queryMap.Version.Count),
		},
		Timestamp: TimestampData{
			Self:     math.MaxUint32,
			Retarget: top.data.Timestamp.Retarget,
			Ordered:  promote(top.data.Timestamp.Ordered, top.data.Timestamp.Self, queryMap.Timestamp.Count),
		},
		ABLAState:        top.ABLAStateAfter(topBlockSize),
		ParentABLAActive: top.activations.Forks.IsEnabled(ruleforks.Upgrade10) && params.ABLAConfig != nil,
	}
	if isRetargetHeight(top.data.Height, params) {
		data.Timestamp.Retarget = top.data.Timestamp.Self
	}

	return New(data, forks, top.checkpoints, params)
}

// FromPool derives the state of a block at the pool state's height.
func FromPool(pool *ChainState, header *wire.BlockHeader) *ChainState {
	data := pool.data.Clone()
	setSelf(data, header, pool.params)
	return New(data, pool.forks, pool.checkpoints, pool.params)
}

// FromParent derives the state of a block on top of parent, whose block is
// parentBlockSize bytes.
func FromParent(parent *ChainState, header *wire.BlockHeader, parentBlockSize uint64) *ChainState {
	return FromPool(FromTop(parent, parentBlockSize), header)
}

// promote appends self to ordered and drops the oldest values beyond count.
// The result never aliases ordered.
func promote(ordered []uint32, self uint32, count uint32) []uint32 {
	promoted := make([]uint32, 0, len(ordered)+1)
	promoted = append(promoted, ordered...)
	promoted = append(promoted, self)
	if uint32(len(promoted)) > count {
		promoted = promoted[uint32(len(promoted))-count:]
	}
	return promoted
}

var zeroHash chainhash.Hash

// IsPool returns whether the state describes a block that is not known
// yet.
func (state *ChainState) IsPool() bool {
	return state.data.Hash == zeroHash
}

// Genesis returns the state of the genesis block of the network. The state
// itself is invalid, since nothing precedes genesis, but it promotes to the
// state of the first block.
func Genesis(forks ruleforks.RuleForks, checkpoints []chaincfg.Checkpoint, params *chainconfig.Params) *ChainState {
	data := &Data{}
	setSelf(data, &params.GenesisBlock.Header, params)
	return New(data, forks, checkpoints, params)
}

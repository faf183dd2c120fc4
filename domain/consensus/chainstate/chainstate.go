package chainstate

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/utils/abla"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// ChainState is the consensus context of a single candidate height. It is
// immutable once built and may be shared between goroutines.
type ChainState struct {
	data        *Data
	forks       ruleforks.RuleForks
	checkpoints []chaincfg.Checkpoint
	params      *chainconfig.Params

	valid          bool
	activations    Activations
	medianTimePast uint32
	workAlgorithm  WorkAlgorithm
	workRequired   uint32
	ablaState      fn.Option[abla.State]
	maxBlockSize   uint64
}

// New derives the chain state of the block data describes. forks are the
// configured rule forks and checkpoints must be sorted by height. New takes
// ownership of data.
//
// New never fails. Data that does not match its query map, a height of
// zero, a missing adaptive block size state after an adaptive parent and
// adaptive block size arithmetic that overflows all produce a state whose
// IsValid is false.
func New(data *Data, forks ruleforks.RuleForks, checkpoints []chaincfg.Checkpoint,
	params *chainconfig.Params) *ChainState {

	state := &ChainState{
		data:        data,
		forks:       forks,
		checkpoints: checkpoints,
		params:      params,
		ablaState:   fn.None[abla.State](),
	}

	if data.Height == 0 {
		log.Debugf("Chain state requested for the genesis height")
		return state
	}
	if !data.Validate(NewQueryMap(data.Height, forks, params)) {
		log.Debugf("Chain state data at height %d does not match its query map", data.Height)
		return state
	}

	state.activations = Activation(data, forks, params)
	active := state.activations.Forks
	state.medianTimePast = MedianTimePast(data.Timestamp.Ordered, params.MedianTimeBlocks)
	state.workAlgorithm = SelectWorkAlgorithm(data, active, params)
	state.workRequired = workRequired(state.workAlgorithm, data, params)

	ablaState, ok := ablaStateFor(data, active, params)
	if !ok {
		log.Warnf("Adaptive block size state missing or overflowed at height %d", data.Height)
		return state
	}
	state.ablaState = ablaState
	state.maxBlockSize = maxBlockSize(active, ablaState, params)
	state.valid = true

	log.Tracef("Chain state at height %d: forks %s, work %s %08x, max block size %d",
		data.Height, active, state.workAlgorithm, state.workRequired, state.maxBlockSize)
	return state
}

// IsValid returns whether the state was derived from well formed data.
func (state *ChainState) IsValid() bool {
	return state.valid
}

// Height returns the candidate height.
func (state *ChainState) Height() uint32 {
	return state.data.Height
}

// Hash returns the hash of the candidate block, zero for a pool state.
func (state *ChainState) Hash() chainhash.Hash {
	return state.data.Hash
}

// Data returns a copy of the data the state was derived from.
func (state *ChainState) Data() *Data {
	return state.data.Clone()
}

// Timestamp returns the timestamp of the candidate block.
func (state *ChainState) Timestamp() uint32 {
	return state.data.Timestamp.Self
}

// Params returns the network parameters the state was derived under.
func (state *ChainState) Params() *chainconfig.Params {
	return state.params
}

// Forks returns the configured rule forks.
func (state *ChainState) Forks() ruleforks.RuleForks {
	return state.forks
}

// Activations returns the activations of the candidate block.
func (state *ChainState) Activations() Activations {
	return state.activations
}

// EnabledForks returns the active rule forks.
func (state *ChainState) EnabledForks() ruleforks.RuleForks {
	return state.activations.Forks
}

// IsEnabled returns whether fork is active.
func (state *ChainState) IsEnabled(fork ruleforks.RuleForks) bool {
	return state.activations.Forks.IsEnabled(fork)
}

// MinimumVersion returns the lowest block version accepted.
func (state *ChainState) MinimumVersion() uint32 {
	return state.activations.MinimumVersion
}

// MedianTimePast returns the median time past of the candidate's ancestors.
func (state *ChainState) MedianTimePast() uint32 {
	return state.medianTimePast
}

// WorkAlgorithm returns the difficulty algorithm that produced
// WorkRequired.
func (state *ChainState) WorkAlgorithm() WorkAlgorithm {
	return state.workAlgorithm
}

// WorkRequired returns the bits the candidate block must carry.
func (state *ChainState) WorkRequired() uint32 {
	return state.workRequired
}

// NextWorkRequired returns the bits a block template built at timestamp
// must carry. It only differs from WorkRequired on networks that allow
// minimum difficulty blocks.
func (state *ChainState) NextWorkRequired(timestamp uint32) uint32 {
	if !state.valid {
		return 0
	}
	data := *state.data
	data.Timestamp.Self = timestamp
	return WorkRequired(&data, state.activations.Forks, state.params)
}

// MaxBlockSize returns the size limit of the candidate block.
func (state *ChainState) MaxBlockSize() uint64 {
	return state.maxBlockSize
}

// ABLAState returns the adaptive block size state of the candidate block,
// None where the adaptive limit does not apply.
func (state *ChainState) ABLAState() fn.Option[abla.State] {
	return state.ablaState
}

// ABLAStateAfter returns the adaptive block size state once the candidate
// block is known to be blockSize bytes.
func (state *ChainState) ABLAStateAfter(blockSize uint64) fn.Option[abla.State] {
	return fn.MapOption(func(st abla.State) abla.State {
		st.BlockSize = blockSize
		return st
	})(state.ablaState)
}

// IsUnderCheckpoint returns whether the candidate height is at or below the
// highest checkpoint.
func (state *ChainState) IsUnderCheckpoint() bool {
	if len(state.checkpoints) == 0 {
		return false
	}
	top := state.checkpoints[len(state.checkpoints)-1].Height
	return top >= 0 && state.data.Height <= uint32(top)
}

// IsCheckpointConflict returns whether a checkpoint at the candidate height
// names a block other than hash.
func (state *ChainState) IsCheckpointConflict(hash *chainhash.Hash) bool {
	for i := range state.checkpoints {
		checkpoint := &state.checkpoints[i]
		if checkpoint.Height >= 0 && uint32(checkpoint.Height) == state.data.Height {
			return !checkpoint.Hash.IsEqual(hash)
		}
	}
	return false
}

var _ model.ChainState = (*ChainState)(nil)

package abla

import (
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/pkg/errors"
)

var errOverflow = errors.New("abla arithmetic overflow")

// State is the algorithm state attached to a block: the block's own size and
// the control block size and elastic buffer size that bound it.
type State struct {
	BlockSize         uint64 `json:"blockSize"`
	ControlBlockSize  uint64 `json:"controlBlockSize"`
	ElasticBufferSize uint64 `json:"elasticBufferSize"`
}

// NewState returns the initial state for a block of the given size.
func NewState(cfg *Config, blockSize uint64) State {
	return State{
		BlockSize:         blockSize,
		ControlBlockSize:  cfg.Epsilon0,
		ElasticBufferSize: cfg.Beta0,
	}
}

// Limit returns the block size limit of the block the state applies to.
// Limit saturates instead of wrapping for states no valid configuration
// can produce.
func (st State) Limit() uint64 {
	return checkedAdd(st.ControlBlockSize, st.ElasticBufferSize).UnwrapOr(^uint64(0))
}

func (st State) String() string {
	return fmt.Sprintf("blockSize: %d, controlBlockSize: %d, elasticBufferSize: %d",
		st.BlockSize, st.ControlBlockSize, st.ElasticBufferSize)
}

// Next calculates the state of the following block, given the size of that
// block. The size recorded in st is clamped to st's limit before it is
// folded into the control function. Next returns None if any intermediate
// value does not fit in 64 bits.
func (st State) Next(cfg *Config, nextBlockSize uint64) fn.Option[State] {
	next, err := st.next(cfg, nextBlockSize)
	if err != nil {
		return fn.None[State]()
	}
	return fn.Some(next)
}

func (st State) next(cfg *Config, nextBlockSize uint64) (State, error) {
	ret := State{BlockSize: nextBlockSize}

	limit, err := checkedAdd(st.ControlBlockSize, st.ElasticBufferSize).UnwrapOrErr(errOverflow)
	if err != nil {
		return State{}, err
	}
	clampedBlockSize := st.BlockSize
	if clampedBlockSize > limit {
		clampedBlockSize = limit
	}

	// zeta * x
	amplifiedCurrentBlockSize, err := mulDiv(cfg.ZetaXB7, clampedBlockSize, B7).UnwrapOrErr(errOverflow)
	if err != nil {
		return State{}, err
	}

	isGrowing := amplifiedCurrentBlockSize > st.ControlBlockSize
	if isGrowing {
		bytesToAdd := amplifiedCurrentBlockSize - st.ControlBlockSize

		// zeta * y - epsilon
		amplifiedBlockSizeLimit, err := mulDiv(cfg.ZetaXB7, limit, B7).UnwrapOrErr(errOverflow)
		if err != nil {
			return State{}, err
		}
		bytesMax, err := checkedSub(amplifiedBlockSizeLimit, st.ControlBlockSize).UnwrapOrErr(errOverflow)
		if err != nil {
			return State{}, err
		}

		// zeta * beta * (zeta * x - epsilon) / (zeta * y - epsilon)
		amplifiedElasticBuffer, err := mulDiv(cfg.ZetaXB7, st.ElasticBufferSize, B7).UnwrapOrErr(errOverflow)
		if err != nil {
			return State{}, err
		}
		scalingOffset, err := mulDiv(amplifiedElasticBuffer, bytesToAdd, bytesMax).UnwrapOrErr(errOverflow)
		if err != nil {
			return State{}, err
		}

		delta, err := checkedSub(bytesToAdd, scalingOffset).UnwrapOrErr(errOverflow)
		if err != nil {
			return State{}, err
		}
		ret.ControlBlockSize, err = checkedAdd(st.ControlBlockSize, delta/cfg.GammaReciprocal).UnwrapOrErr(errOverflow)
		if err != nil {
			return State{}, err
		}
	} else {
		bytesToRemove := st.ControlBlockSize - amplifiedCurrentBlockSize
		ret.ControlBlockSize = st.ControlBlockSize - bytesToRemove/cfg.GammaReciprocal
		if ret.ControlBlockSize < cfg.Epsilon0 {
			ret.ControlBlockSize = cfg.Epsilon0
		}
	}

	bufferDecay := st.ElasticBufferSize / cfg.ThetaReciprocal
	ret.ElasticBufferSize = st.ElasticBufferSize - bufferDecay
	if isGrowing {
		bytesToAdd, err := checkedMul(ret.ControlBlockSize-st.ControlBlockSize, cfg.Delta).UnwrapOrErr(errOverflow)
		if err != nil {
			return State{}, err
		}
		ret.ElasticBufferSize, err = checkedAdd(ret.ElasticBufferSize, bytesToAdd).UnwrapOrErr(errOverflow)
		if err != nil {
			return State{}, err
		}
	}
	if ret.ElasticBufferSize < cfg.Beta0 {
		ret.ElasticBufferSize = cfg.Beta0
	}

	if ret.ControlBlockSize > cfg.EpsilonMax {
		ret.ControlBlockSize = cfg.EpsilonMax
	}
	if ret.ElasticBufferSize > cfg.BetaMax {
		ret.ElasticBufferSize = cfg.BetaMax
	}
	return ret, nil
}

// Lookahead returns the state n blocks ahead of st, assuming every one of
// those blocks is exactly as large as its limit.
func (st State) Lookahead(cfg *Config, n uint64) fn.Option[State] {
	ret := st
	for i := uint64(0); i < n; i++ {
		next, err := ret.next(cfg, ret.Limit())
		if err != nil {
			return fn.None[State]()
		}
		ret = next
	}
	return fn.Some(ret)
}

// StateValidity is the outcome of State.Validate.
type StateValidity int

// State validation outcomes.
const (
	StateValid StateValidity = iota
	StateErrorControlBlockSize
	StateErrorElasticBufferSize
)

func (v StateValidity) String() string {
	switch v {
	case StateValid:
		return "valid state"
	case StateErrorControlBlockSize:
		return "invalid control block size, can't be below initialization value or above epsilonMax"
	case StateErrorElasticBufferSize:
		return "invalid elastic buffer size, can't be below initialization value or above betaMax"
	default:
		return fmt.Sprintf("unknown state validity %d", int(v))
	}
}

// Validate checks that st lies within the bounds cfg allows.
func (st State) Validate(cfg *Config) StateValidity {
	if st.ControlBlockSize < cfg.Epsilon0 || st.ControlBlockSize > cfg.EpsilonMax {
		return StateErrorControlBlockSize
	}
	if st.ElasticBufferSize < cfg.Beta0 || st.ElasticBufferSize > cfg.BetaMax {
		return StateErrorElasticBufferSize
	}
	return StateValid
}

package main

import (
	"github.com/kaspanet/utxocore/domain/consensus/utils/abla"
	"github.com/pkg/errors"
)

// planStep is the state of the block offset blocks after the starting
// state.
type planStep struct {
	Offset uint64
	State  abla.State
}

// plan runs the algorithm blocks times from start and returns every step
// whose offset is a multiple of step, the last one included. A zero
// blockSize plans blocks as large as their limit.
func plan(ablaConfig *abla.Config, start abla.State, blocks, step, blockSize uint64) ([]planStep, error) {
	validity := ablaConfig.Validate()
	if validity != abla.ConfigValid {
		return nil, errors.Errorf("invalid configuration: %s", validity)
	}
	stateValidity := start.Validate(ablaConfig)
	if stateValidity != abla.StateValid {
		return nil, errors.Errorf("invalid starting state: %s", stateValidity)
	}

	steps := []planStep{{Offset: 0, State: start}}
	state := start
	for offset := uint64(1); offset <= blocks; offset++ {
		next := state.Lookahead(ablaConfig, 1)
		if blockSize != 0 {
			next = state.Next(ablaConfig, blockSize)
		}

		if next.IsNone() {
			return nil, errors.Errorf("block size limit overflows %d blocks ahead", offset)
		}
		state = next.UnsafeFromSome()

		if offset%step == 0 || offset == blocks {
			steps = append(steps, planStep{Offset: offset, State: state})
		}
	}
	return steps, nil
}

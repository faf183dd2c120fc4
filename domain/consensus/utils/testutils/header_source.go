package testutils

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kaspanet/utxocore/domain/consensus/chainstate"
	"github.com/kaspanet/utxocore/domain/consensus/utils/abla"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/pkg/errors"
)

// SyntheticChain is a chainstate.HeaderSource of generated headers. Block
// hashes default to a hash of the height unless overridden in Hashes.
// Adaptive block size states come from ABLAStates, or are absent when it
// is nil.
type SyntheticChain struct {
	Tip        uint32
	Bits       func(height uint32) uint32
	Version    func(height uint32) uint32
	Timestamp  func(height uint32) uint32
	Hashes     map[uint32]*chainhash.Hash
	ABLAStates func(height uint32) fn.Option[abla.State]
}

// NewSyntheticChain returns a chain of blocks with constant bits and
// version, mined exactly on a 600 second schedule from startTime.
func NewSyntheticChain(tip uint32, bits, version, startTime uint32) *SyntheticChain {
	return &SyntheticChain{
		Tip:       tip,
		Bits:      func(uint32) uint32 { return bits },
		Version:   func(uint32) uint32 { return version },
		Timestamp: func(height uint32) uint32 { return startTime + 600*height },
		Hashes:    make(map[uint32]*chainhash.Hash),
	}
}

// HeaderSample implements chainstate.HeaderSource.
func (chain *SyntheticChain) HeaderSample(height uint32) (chainstate.HeaderSample, error) {
	if height > chain.Tip {
		return chainstate.HeaderSample{}, errors.Errorf("height %d is above the tip %d", height, chain.Tip)
	}
	return chainstate.HeaderSample{
		Bits:      chain.Bits(height),
		Version:   chain.Version(height),
		Timestamp: chain.Timestamp(height),
	}, nil
}

// BlockHash implements chainstate.HeaderSource.
func (chain *SyntheticChain) BlockHash(height uint32) (*chainhash.Hash, error) {
	if height > chain.Tip {
		return nil, errors.Errorf("height %d is above the tip %d", height, chain.Tip)
	}
	if hash, ok := chain.Hashes[height]; ok {
		return hash, nil
	}
	hash := chainhash.DoubleHashH([]byte{byte(height), byte(height >> 8), byte(height >> 16), byte(height >> 24)})
	return &hash, nil
}

// ABLAState implements chainstate.HeaderSource.
func (chain *SyntheticChain) ABLAState(height uint32) (fn.Option[abla.State], error) {
	if height > chain.Tip {
		return fn.None[abla.State](), errors.Errorf("height %d is above the tip %d", height, chain.Tip)
	}
	if chain.ABLAStates == nil {
		return fn.None[abla.State](), nil
	}
	return chain.ABLAStates(height), nil
}

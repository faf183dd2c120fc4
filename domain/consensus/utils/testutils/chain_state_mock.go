package testutils

import (
	"sync/atomic"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
)

// ChainStateMock is a model.ChainState with fixed values that counts the
// queries made against it.
type ChainStateMock struct {
	HeightValue         uint32
	Forks               ruleforks.RuleForks
	MinimumVersionValue uint32
	MedianTimePastValue uint32
	WorkRequiredValue   uint32
	MaxBlockSizeValue   uint64
	UnderCheckpoint     bool
	CheckpointHash      *chainhash.Hash

	calls atomic.Int64
}

var _ model.ChainState = (*ChainStateMock)(nil)

// Calls returns the number of queries made so far, EnabledForks included.
func (m *ChainStateMock) Calls() int64 {
	return m.calls.Load()
}

// ResetCalls zeroes the query counter.
func (m *ChainStateMock) ResetCalls() {
	m.calls.Store(0)
}

// IsValid implements model.ChainState.
func (m *ChainStateMock) IsValid() bool {
	m.calls.Add(1)
	return true
}

// Height implements model.ChainState.
func (m *ChainStateMock) Height() uint32 {
	m.calls.Add(1)
	return m.HeightValue
}

// EnabledForks implements model.ChainState.
func (m *ChainStateMock) EnabledForks() ruleforks.RuleForks {
	m.calls.Add(1)
	return m.Forks
}

// IsEnabled implements model.ChainState.
func (m *ChainStateMock) IsEnabled(fork ruleforks.RuleForks) bool {
	m.calls.Add(1)
	return m.Forks.IsEnabled(fork)
}

// MinimumVersion implements model.ChainState.
func (m *ChainStateMock) MinimumVersion() uint32 {
	m.calls.Add(1)
	return m.MinimumVersionValue
}

// MedianTimePast implements model.ChainState.
func (m *ChainStateMock) MedianTimePast() uint32 {
	m.calls.Add(1)
	return m.MedianTimePastValue
}

// WorkRequired implements model.ChainState.
func (m *ChainStateMock) WorkRequired() uint32 {
	m.calls.Add(1)
	return m.WorkRequiredValue
}

// MaxBlockSize implements model.ChainState.
func (m *ChainStateMock) MaxBlockSize() uint64 {
	m.calls.Add(1)
	return m.MaxBlockSizeValue
}

// IsUnderCheckpoint implements model.ChainState.
func (m *ChainStateMock) IsUnderCheckpoint() bool {
	m.calls.Add(1)
	return m.UnderCheckpoint
}

// IsCheckpointConflict implements model.ChainState.
func (m *ChainStateMock) IsCheckpointConflict(hash *chainhash.Hash) bool {
	m.calls.Add(1)
	return m.CheckpointHash != nil && !m.CheckpointHash.IsEqual(hash)
}

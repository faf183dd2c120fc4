package testutils

import (
	"sync/atomic"

	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/consensus/model"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
)

// ScriptVerifierMock is a model.ScriptVerifier that returns Err for every
// input and counts its invocations.
type ScriptVerifierMock struct {
	Err   error
	calls atomic.Int64
}

var _ model.ScriptVerifier = (*ScriptVerifierMock)(nil)

// Verify implements model.ScriptVerifier.
func (m *ScriptVerifierMock) Verify(*wire.MsgTx, int, ruleforks.RuleForks, []*model.UTXOEntry) error {
	m.calls.Add(1)
	return m.Err
}

// Calls returns the number of verified inputs.
func (m *ScriptVerifierMock) Calls() int64 {
	return m.calls.Load()
}

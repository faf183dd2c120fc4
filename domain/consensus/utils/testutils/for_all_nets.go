package testutils

import (
	"testing"

	"github.com/kaspanet/utxocore/domain/chainconfig"
)

// ForAllNets runs the passed testFunc with all available networks.
// If skipPow is true, each network's params are cloned with proof of work
// checks disabled.
func ForAllNets(t *testing.T, skipPow bool, testFunc func(*testing.T, *chainconfig.Params)) {
	allParams := []*chainconfig.Params{
		&chainconfig.MainnetParams,
		&chainconfig.TestnetParams,
		&chainconfig.RegtestParams,
		&chainconfig.BCHMainnetParams,
		&chainconfig.BCHRegtestParams,
	}

	for _, params := range allParams {
		params := params.Clone()
		params.SkipProofOfWork = skipPow
		t.Run(params.Name, func(t *testing.T) {
			t.Parallel()
			t.Logf("Running test for %s", params.Name)
			testFunc(t, params)
		})
	}
}

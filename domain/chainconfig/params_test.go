package chainconfig

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kaspanet/utxocore/domain/consensus/utils/abla"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/pkg/errors"
)

func TestRegisteredNetworks(t *testing.T) {
	expected := []string{"bchmainnet", "bchregtest", "mainnet", "regtest", "testnet3"}
	names := RegisteredNames()
	if len(names) != len(expected) {
		t.Fatalf("expected networks %v, got %v", expected, names)
	}
	for i, name := range expected {
		if names[i] != name {
			t.Fatalf("expected networks %v, got %v", expected, names)
		}
		params, err := ParamsByName(name)
		if err != nil {
			t.Fatalf("ParamsByName(%s): %s", name, err)
		}
		if params.Name != name {
			t.Fatalf("ParamsByName(%s) returned %s", name, params.Name)
		}
	}

	_, err := ParamsByName("simnet")
	if !errors.Is(err, ErrUnknownNet) {
		t.Fatalf("expected ErrUnknownNet, got %v", err)
	}
	err = Register(&MainnetParams)
	if !errors.Is(err, ErrDuplicateNet) {
		t.Fatalf("expected ErrDuplicateNet, got %v", err)
	}
}

func TestNetworkTables(t *testing.T) {
	for _, params := range []*Params{&MainnetParams, &TestnetParams, &RegtestParams, &BCHMainnetParams, &BCHRegtestParams} {
		if params.TargetTimespanSeconds() != 14*24*60*60 {
			t.Errorf("%s: unexpected target timespan %d", params.Name, params.TargetTimespanSeconds())
		}
		if !params.Forks.IsEnabled(ruleforks.BIP16) {
			t.Errorf("%s: BIP16 should be configured", params.Name)
		}

		isBitcoinCash := params.Name == "bchmainnet" || params.Name == "bchregtest"
		if params.IsBitcoinCash() != isBitcoinCash {
			t.Errorf("%s: IsBitcoinCash returned %t", params.Name, params.IsBitcoinCash())
		}
		if isBitcoinCash != (params.ABLAConfig != nil) {
			t.Errorf("%s: only Bitcoin Cash networks have an adaptive block size limit", params.Name)
		}
		if params.ABLAConfig != nil && params.ABLAConfig.Validate() != abla.ConfigValid {
			t.Errorf("%s: invalid abla config: %s", params.Name, params.ABLAConfig.Validate())
		}

		for i := 1; i < len(params.Checkpoints); i++ {
			if params.Checkpoints[i].Height <= params.Checkpoints[i-1].Height {
				t.Errorf("%s: checkpoints are not ascending at index %d", params.Name, i)
			}
		}
	}

	// Bitcoin Cash mainnet keeps the shared history and checkpoints its own
	// first block.
	last := BCHMainnetParams.Checkpoints[len(BCHMainnetParams.Checkpoints)-1]
	if last.Height != uahfForkHeight+1 {
		t.Fatalf("expected the last checkpoint at %d, got %d", uahfForkHeight+1, last.Height)
	}
	if len(BCHRegtestParams.Checkpoints) != 0 {
		t.Fatalf("regtest should have no checkpoints")
	}
}

func TestClone(t *testing.T) {
	clone := BCHMainnetParams.Clone()
	clone.Checkpoints[0] = chaincfg.Checkpoint{Height: 1}
	clone.BIP30Exceptions[0].Height = 1
	clone.ASERTAnchor.Bits = 1
	clone.ABLAConfig.Delta = 1
	clone.UpgradeHeights.Axion = 1

	if BCHMainnetParams.Checkpoints[0].Height == 1 ||
		BCHMainnetParams.BIP30Exceptions[0].Height == 1 ||
		BCHMainnetParams.ASERTAnchor.Bits == 1 ||
		BCHMainnetParams.ABLAConfig.Delta == 1 ||
		BCHMainnetParams.UpgradeHeights.Axion == 1 {
		t.Fatalf("modifying a clone changed the original params")
	}
}

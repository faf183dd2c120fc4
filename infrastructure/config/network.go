package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/utils/abla"
	"github.com/pkg/errors"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet            bool   `long:"testnet" description:"Use the test network"`
	Regtest            bool   `long:"regtest" description:"Use the regression test network"`
	BCH                bool   `long:"bch" description:"Use the Bitcoin Cash rules of the selected network"`
	OverrideParamsFile string `long:"override-params-file" description:"Overrides network params (allowed only on regtest networks)"`

	ActiveNetParams *chainconfig.Params
}

type overrideUpgradeHeights struct {
	UAHF            *uint32 `json:"uahf"`
	DAA             *uint32 `json:"daa"`
	Monolith        *uint32 `json:"monolith"`
	MagneticAnomaly *uint32 `json:"magneticAnomaly"`
	GreatWall       *uint32 `json:"greatWall"`
	Graviton        *uint32 `json:"graviton"`
	Phonon          *uint32 `json:"phonon"`
	Axion           *uint32 `json:"axion"`
	Upgrade9        *uint32 `json:"upgrade9"`
}

type overrideParamsConfig struct {
	UpgradeHeights           *overrideUpgradeHeights `json:"upgradeHeights"`
	Upgrade10Time            *uint32                 `json:"upgrade10Time"`
	Upgrade11Time            *uint32                 `json:"upgrade11Time"`
	SegwitHeight             *uint32                 `json:"segwitHeight"`
	ABLAConfig               *abla.Config            `json:"ablaConfig"`
	PowLimit                 *string                 `json:"powLimit"`
	CoinbaseMaturity         *uint16                 `json:"coinbaseMaturity"`
	SubsidyReductionInterval *int32                  `json:"subsidyReductionInterval"`
	MaxBlockSizeCeiling      *uint64                 `json:"maxBlockSizeCeiling"`
	SkipProofOfWork          *bool                   `json:"skipProofOfWork"`
}

// ResolveNetwork parses the network command line argument and sets
// ActiveNetParams accordingly. The selected params are a copy that an
// override file may modify. It returns error if more than one network was
// selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Multiple networks can't be selected simultaneously.
	numNets := 0
	name := "mainnet"
	if networkFlags.Testnet {
		numNets++
		name = "testnet3"
	}
	if networkFlags.Regtest {
		numNets++
		name = "regtest"
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, regtest) cannot be used " +
			"together. Please choose only one network"
		err := errors.Errorf(message)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return err
	}

	if networkFlags.BCH {
		if networkFlags.Testnet {
			return errors.Errorf("the Bitcoin Cash rules are not available on testnet")
		}
		name = "bch" + name
	}

	params, err := chainconfig.ParamsByName(name)
	if err != nil {
		return err
	}
	networkFlags.ActiveNetParams = params.Clone()

	return networkFlags.overrideParams()
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *chainconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideParams() error {
	if networkFlags.OverrideParamsFile == "" {
		return nil
	}

	if !networkFlags.Regtest {
		return errors.Errorf("override-params-file is allowed only when using regtest")
	}

	overrideParamsFile, err := os.Open(networkFlags.OverrideParamsFile)
	if err != nil {
		return err
	}
	defer overrideParamsFile.Close()

	decoder := json.NewDecoder(overrideParamsFile)
	decoder.DisallowUnknownFields()
	config := &overrideParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "couldn't parse %s", networkFlags.OverrideParamsFile)
	}

	return config.apply(networkFlags.ActiveNetParams)
}

func (config *overrideParamsConfig) apply(params *chainconfig.Params) error {
	if config.UpgradeHeights != nil {
		config.UpgradeHeights.apply(&params.UpgradeHeights)
	}

	if config.Upgrade10Time != nil {
		params.UpgradeTimes.Upgrade10 = *config.Upgrade10Time
	}

	if config.Upgrade11Time != nil {
		params.UpgradeTimes.Upgrade11 = *config.Upgrade11Time
	}

	if config.SegwitHeight != nil {
		params.SegwitHeight = *config.SegwitHeight
	}

	if config.ABLAConfig != nil {
		validity := config.ABLAConfig.Validate()
		if validity != abla.ConfigValid {
			return errors.Errorf("invalid ablaConfig: %s", validity)
		}
		ablaConfig := *config.ABLAConfig
		params.ABLAConfig = &ablaConfig
	}

	if config.PowLimit != nil {
		powLimit, ok := big.NewInt(0).SetString(*config.PowLimit, 16)
		if !ok {
			return errors.Errorf("couldn't convert %s to big int", *config.PowLimit)
		}

		genesisTarget := blockchain.CompactToBig(params.GenesisBlock.Header.Bits)
		if powLimit.Cmp(genesisTarget) < 0 {
			return errors.Errorf("powLimit (%s) is smaller than genesis's target (%s)", powLimit.Text(16),
				genesisTarget.Text(16))
		}
		params.PowLimit = powLimit
		params.PowLimitBits = blockchain.BigToCompact(powLimit)
	}

	if config.CoinbaseMaturity != nil {
		params.CoinbaseMaturity = *config.CoinbaseMaturity
	}

	if config.SubsidyReductionInterval != nil {
		params.SubsidyReductionInterval = *config.SubsidyReductionInterval
	}

	if config.MaxBlockSizeCeiling != nil {
		params.MaxBlockSizeCeiling = *config.MaxBlockSizeCeiling
	}

	if config.SkipProofOfWork != nil {
		params.SkipProofOfWork = *config.SkipProofOfWork
	}

	return nil
}

func (heights *overrideUpgradeHeights) apply(params *chainconfig.UpgradeHeights) {
	overrides := []struct {
		value  *uint32
		target *uint32
	}{
		{heights.UAHF, &params.UAHF},
		{heights.DAA, &params.DAA},
		{heights.Monolith, &params.Monolith},
		{heights.MagneticAnomaly, &params.MagneticAnomaly},
		{heights.GreatWall, &params.GreatWall},
		{heights.Graviton, &params.Graviton},
		{heights.Phonon, &params.Phonon},
		{heights.Axion, &params.Axion},
		{heights.Upgrade9, &params.Upgrade9},
	}
	for _, override := range overrides {
		if override.value != nil {
			*override.target = *override.value
		}
	}
}

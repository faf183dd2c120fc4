package chainconfig

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kaspanet/utxocore/domain/consensus/utils/abla"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
)

const (
	retargetInterval     = 2016
	targetSpacingSeconds = 10 * 60
	retargetFactor       = 4
	medianTimeBlocks     = 11
	bip16ActivationTime  = 1333238400

	legacyMaxBlockSize   = 1_000_000
	uahfMaxBlockSize     = 8_000_000
	monolithMaxBlockSize = 32_000_000
	maxBlockSigOpsPerMB  = 20_000
	asertHalfLife        = 2 * 24 * 60 * 60

	// bitcoinMaxBlockSizeCeiling is the largest serialized block segwit
	// weight accounting allows.
	bitcoinMaxBlockSizeCeiling = 4_000_000

	// bitcoinCashMaxBlockSizeCeiling is the largest block the adaptive
	// limit is expected to reach.
	bitcoinCashMaxBlockSizeCeiling = 2_000_000_000

	// uahfForkHeight is the last block shared by Bitcoin and Bitcoin Cash.
	uahfForkHeight = 478558
)

var mainnetSignalThreshold = SignalThreshold{Active: 750, Enforce: 950, Sample: 1000}
var testnetSignalThreshold = SignalThreshold{Active: 51, Enforce: 75, Sample: 100}

var mainnetBuriedHeights = BuriedHeights{BIP34: 227931, BIP66: 363725, BIP65: 388381}

var mainnetBIP16Exception = &chaincfg.Checkpoint{
	Height: 170060,
	Hash:   newHashFromStr("00000000000002dc756eebf4f49723ed8d30cc28a5f108eb94b1ba88ac4f9c22"),
}

var mainnetBIP30Exceptions = []chaincfg.Checkpoint{
	{Height: 91842, Hash: newHashFromStr("00000000000a4d0a398161ffc163c503763b1f4360639393e0e4c8e300e0caec")},
	{Height: 91880, Hash: newHashFromStr("00000000000743f190a18c5577a3c2d2a1f610ae9601ac046a38084ccb7cd721")},
}

var mainnetBIP34ActiveCheckpoint = &chaincfg.Checkpoint{
	Height: 227931,
	Hash:   newHashFromStr("000000000000024b89b42a942fe0d9fea3bb44ab7bd1b19115dd6a759c0808b8"),
}

var mainnetBIP9Bit0ActiveCheckpoint = &chaincfg.Checkpoint{
	Height: 419328,
	Hash:   newHashFromStr("000000000000000004a1b34462cb8aeebd5799177f7a29cf28f2d1961716b5b5"),
}

// MainnetParams defines the network parameters for the main Bitcoin network.
var MainnetParams = Params{
	Params:                   chaincfg.MainNetParams,
	Forks:                    ruleforks.BitcoinRules,
	RetargetInterval:         retargetInterval,
	TargetSpacingSeconds:     targetSpacingSeconds,
	RetargetFactor:           retargetFactor,
	MedianTimeBlocks:         medianTimeBlocks,
	SignalThreshold:          mainnetSignalThreshold,
	BuriedHeights:            mainnetBuriedHeights,
	BIP16ActivationTime:      bip16ActivationTime,
	BIP16Exception:           mainnetBIP16Exception,
	BIP30Exceptions:          mainnetBIP30Exceptions,
	BIP34ActiveCheckpoint:    mainnetBIP34ActiveCheckpoint,
	BIP9Bit0ActiveCheckpoint: mainnetBIP9Bit0ActiveCheckpoint,
	SegwitHeight:             481824,
	LegacyMaxBlockSize:       legacyMaxBlockSize,
	MaxBlockSizeCeiling:      bitcoinMaxBlockSizeCeiling,
	MaxBlockSigOpsPerMB:      maxBlockSigOpsPerMB,
	MaxTxSigOps:              maxBlockSigOpsPerMB,
}

// TestnetParams defines the network parameters for the Bitcoin test network
// (version 3).
var TestnetParams = Params{
	Params:               chaincfg.TestNet3Params,
	Forks:                ruleforks.BitcoinRules | ruleforks.EasyBlocks,
	RetargetInterval:     retargetInterval,
	TargetSpacingSeconds: targetSpacingSeconds,
	RetargetFactor:       retargetFactor,
	MedianTimeBlocks:     medianTimeBlocks,
	SignalThreshold:      testnetSignalThreshold,
	BuriedHeights:        BuriedHeights{BIP34: 21111, BIP66: 330776, BIP65: 581885},
	BIP16ActivationTime:  bip16ActivationTime,
	BIP34ActiveCheckpoint: &chaincfg.Checkpoint{
		Height: 21111,
		Hash:   newHashFromStr("0000000023b3a96d3484e5abb3755c413e7d41500f8e2a5c3f0dd01299cd8ef8"),
	},
	BIP9Bit0ActiveCheckpoint: &chaincfg.Checkpoint{
		Height: 770112,
		Hash:   newHashFromStr("00000000025e930139bac5c6c31a403776da130831ab85be56578f3fa75369bb"),
	},
	SegwitHeight:        834624,
	LegacyMaxBlockSize:  legacyMaxBlockSize,
	MaxBlockSizeCeiling: bitcoinMaxBlockSizeCeiling,
	MaxBlockSigOpsPerMB: maxBlockSigOpsPerMB,
	MaxTxSigOps:         maxBlockSigOpsPerMB,
}

// RegtestParams defines the network parameters for the Bitcoin regression
// test network. Difficulty never retargets and every soft fork is buried at
// a low height.
var RegtestParams = Params{
	Params:               chaincfg.RegressionNetParams,
	Forks:                ruleforks.BitcoinRules &^ ruleforks.Retarget,
	RetargetInterval:     retargetInterval,
	TargetSpacingSeconds: targetSpacingSeconds,
	RetargetFactor:       retargetFactor,
	MedianTimeBlocks:     medianTimeBlocks,
	SignalThreshold:      testnetSignalThreshold,
	BuriedHeights:        BuriedHeights{BIP34: 500, BIP66: 1251, BIP65: 1351},
	SegwitHeight:         0,
	LegacyMaxBlockSize:   legacyMaxBlockSize,
	MaxBlockSizeCeiling:  bitcoinMaxBlockSizeCeiling,
	MaxBlockSigOpsPerMB:  maxBlockSigOpsPerMB,
	MaxTxSigOps:          maxBlockSigOpsPerMB,
}

var bchMainnetABLAConfig = abla.DefaultConfig(abla.DefaultConsensusBlockSize, false)

// BCHMainnetParams defines the network parameters for the main Bitcoin Cash
// network.
var BCHMainnetParams = Params{
	Params:                   bitcoinCashParams(chaincfg.MainNetParams, "bchmainnet"),
	Forks:                    ruleforks.BitcoinCashRules,
	RetargetInterval:         retargetInterval,
	TargetSpacingSeconds:     targetSpacingSeconds,
	RetargetFactor:           retargetFactor,
	MedianTimeBlocks:         medianTimeBlocks,
	SignalThreshold:          mainnetSignalThreshold,
	BuriedHeights:            mainnetBuriedHeights,
	BIP16ActivationTime:      bip16ActivationTime,
	BIP16Exception:           mainnetBIP16Exception,
	BIP30Exceptions:          mainnetBIP30Exceptions,
	BIP34ActiveCheckpoint:    mainnetBIP34ActiveCheckpoint,
	BIP9Bit0ActiveCheckpoint: mainnetBIP9Bit0ActiveCheckpoint,
	UpgradeHeights: UpgradeHeights{
		UAHF:            uahfForkHeight,
		DAA:             504031,
		Monolith:        530355,
		MagneticAnomaly: 556766,
		GreatWall:       582679,
		Graviton:        609135,
		Phonon:          635258,
		Axion:           661647,
		Upgrade9:        792772,
	},
	UpgradeTimes: UpgradeTimes{
		Upgrade10: 1715774400,
		Upgrade11: 1747310400,
	},
	ASERTHalfLife: asertHalfLife,
	ASERTAnchor: &ASERTAnchor{
		Height:        661647,
		Bits:          0x1804dafe,
		PrevBlockTime: 1605447844,
	},
	ABLAConfig:           &bchMainnetABLAConfig,
	LegacyMaxBlockSize:   legacyMaxBlockSize,
	UAHFMaxBlockSize:     uahfMaxBlockSize,
	MonolithMaxBlockSize: monolithMaxBlockSize,
	MaxBlockSizeCeiling:  bitcoinCashMaxBlockSizeCeiling,
	MaxBlockSigOpsPerMB:  maxBlockSigOpsPerMB,
	MaxTxSigOps:          maxBlockSigOpsPerMB,
}

var bchRegtestABLAConfig = abla.DefaultConfig(abla.DefaultConsensusBlockSize, false)

// BCHRegtestParams defines the network parameters for the Bitcoin Cash
// regression test network. Every upgrade applies from the first block and
// difficulty never retargets.
var BCHRegtestParams = Params{
	Params:               bitcoinCashParams(chaincfg.RegressionNetParams, "bchregtest"),
	Forks:                ruleforks.BitcoinCashRules &^ ruleforks.Retarget,
	RetargetInterval:     retargetInterval,
	TargetSpacingSeconds: targetSpacingSeconds,
	RetargetFactor:       retargetFactor,
	MedianTimeBlocks:     medianTimeBlocks,
	SignalThreshold:      testnetSignalThreshold,
	BuriedHeights:        BuriedHeights{BIP34: 500, BIP66: 1251, BIP65: 1351},
	ASERTHalfLife:        asertHalfLife,
	ABLAConfig:           &bchRegtestABLAConfig,
	LegacyMaxBlockSize:   legacyMaxBlockSize,
	UAHFMaxBlockSize:     uahfMaxBlockSize,
	MonolithMaxBlockSize: monolithMaxBlockSize,
	MaxBlockSizeCeiling:  bitcoinCashMaxBlockSizeCeiling,
	MaxBlockSigOpsPerMB:  maxBlockSigOpsPerMB,
	MaxTxSigOps:          maxBlockSigOpsPerMB,
}

// bitcoinCashParams derives the btcd parameters of a Bitcoin Cash network
// from the Bitcoin network it forked from. Checkpoints above the fork are
// dropped since they belong to the other chain.
func bitcoinCashParams(base chaincfg.Params, name string) chaincfg.Params {
	params := base
	params.Name = name
	params.Checkpoints = nil
	for _, checkpoint := range base.Checkpoints {
		if checkpoint.Height <= uahfForkHeight {
			params.Checkpoints = append(params.Checkpoints, checkpoint)
		}
	}
	if base.Net == chaincfg.MainNetParams.Net {
		params.Checkpoints = append(params.Checkpoints, chaincfg.Checkpoint{
			Height: uahfForkHeight + 1,
			Hash:   newHashFromStr("000000000000000000651ef99cb9fcbe0dadde1d424bd9f15ff20136191a5eec"),
		})
	}
	return params
}

// Package abla implements the adaptive block-size limit algorithm: a
// feedback controller that folds each block's observed size into the size
// ceiling of the next block.
package abla

import (
	"fmt"
	"math"
)

// DefaultConsensusBlockSize is the block size the default configuration is
// built around.
const DefaultConsensusBlockSize = 32_000_000

// B7 is the fixed-point denominator of ZetaXB7.
const B7 = 1 << 7

// Documented ranges of the tunable constants.
const (
	MinZetaXB7         = 129
	MaxZetaXB7         = 256
	MinGammaReciprocal = 9484
	MaxGammaReciprocal = 151744
	MaxDelta           = 32
	MinThetaReciprocal = 9484
	MaxThetaReciprocal = 151744
	defaultReciprocal  = 37938
	defaultZetaXB7     = 192
	defaultDelta       = 10
)

// Config holds the tunable constants of the algorithm and the two derived
// safety ceilings.
type Config struct {
	// Epsilon0 is the initial control block size.
	Epsilon0 uint64 `json:"epsilon0"`
	// Beta0 is the initial elastic buffer size.
	Beta0 uint64 `json:"beta0"`
	// N0 is the height of the first block the algorithm applies to.
	N0 uint64 `json:"n0"`
	// GammaReciprocal is the control function "forget factor".
	GammaReciprocal uint64 `json:"gammaReciprocal"`
	// ZetaXB7 is the control function asymmetry factor, scaled by B7.
	ZetaXB7 uint64 `json:"zetaXB7"`
	// ThetaReciprocal is the elastic buffer decay rate.
	ThetaReciprocal uint64 `json:"thetaReciprocal"`
	// Delta is the elastic buffer gear ratio.
	Delta uint64 `json:"delta"`
	// EpsilonMax caps the control block size.
	EpsilonMax uint64 `json:"epsilonMax"`
	// BetaMax caps the elastic buffer size.
	BetaMax uint64 `json:"betaMax"`
}

// DefaultConfig returns the mainnet configuration for the given initial block
// size. A fixed-size configuration never moves away from blockSize.
func DefaultConfig(blockSize uint64, fixedSize bool) Config {
	cfg := Config{
		Epsilon0:        blockSize / 2,
		Beta0:           blockSize / 2,
		GammaReciprocal: defaultReciprocal,
		ZetaXB7:         defaultZetaXB7,
		ThetaReciprocal: defaultReciprocal,
		Delta:           defaultDelta,
	}
	if fixedSize {
		cfg.EpsilonMax = cfg.Epsilon0
		cfg.BetaMax = cfg.Beta0
		return cfg
	}
	cfg.SetMax()
	return cfg
}

// SetMax sets EpsilonMax and BetaMax to the largest values that keep every
// intermediate computation of Next within 64 bits.
func (cfg *Config) SetMax() {
	maxSafeBlockSizeLimit := math.MaxUint64 / cfg.ZetaXB7 * B7
	ratio := (cfg.ZetaXB7 - B7) * cfg.ThetaReciprocal / cfg.GammaReciprocal
	maxElasticBufferRatioNumerator := cfg.Delta * ratio
	maxElasticBufferRatioDenominator := ratio + B7

	cfg.EpsilonMax = maxSafeBlockSizeLimit / (maxElasticBufferRatioNumerator + maxElasticBufferRatioDenominator) *
		maxElasticBufferRatioDenominator
	cfg.BetaMax = maxSafeBlockSizeLimit - cfg.EpsilonMax
}

// ConfigValidity is the outcome of Config.Validate.
type ConfigValidity int

// Config validation outcomes, in the order they are checked.
const (
	ConfigValid ConfigValidity = iota
	ConfigErrorEpsilonMax
	ConfigErrorBetaMax
	ConfigErrorZeta
	ConfigErrorGammaReciprocal
	ConfigErrorDelta
	ConfigErrorThetaReciprocal
	ConfigErrorEpsilon0
)

var configValidityStrings = map[ConfigValidity]string{
	ConfigValid:                "valid configuration",
	ConfigErrorEpsilonMax:      "initial control block size limit sanity check failed (epsilonMax)",
	ConfigErrorBetaMax:         "initial elastic buffer size sanity check failed (betaMax)",
	ConfigErrorZeta:            "zeta sanity check failed",
	ConfigErrorGammaReciprocal: "gammaReciprocal sanity check failed",
	ConfigErrorDelta:           "delta sanity check failed",
	ConfigErrorThetaReciprocal: "thetaReciprocal sanity check failed",
	ConfigErrorEpsilon0:        "epsilon0 sanity check failed, too low relative to gamma and zeta",
}

func (v ConfigValidity) String() string {
	s, ok := configValidityStrings[v]
	if !ok {
		return fmt.Sprintf("unknown config validity %d", int(v))
	}
	return s
}

// Validate returns the first rule the configuration violates, or ConfigValid.
func (cfg *Config) Validate() ConfigValidity {
	if cfg.Epsilon0 > cfg.EpsilonMax {
		return ConfigErrorEpsilonMax
	}
	if cfg.Beta0 > cfg.BetaMax {
		return ConfigErrorBetaMax
	}
	if cfg.ZetaXB7 < MinZetaXB7 || cfg.ZetaXB7 > MaxZetaXB7 {
		return ConfigErrorZeta
	}
	if cfg.GammaReciprocal < MinGammaReciprocal || cfg.GammaReciprocal > MaxGammaReciprocal {
		return ConfigErrorGammaReciprocal
	}
	if cfg.Delta > MaxDelta {
		return ConfigErrorDelta
	}
	if cfg.ThetaReciprocal < MinThetaReciprocal || cfg.ThetaReciprocal > MaxThetaReciprocal {
		return ConfigErrorThetaReciprocal
	}

	// Guarantees the control size can move by at least one byte, and that
	// the grow branch of Next never divides by zero.
	floor := mulDiv(cfg.GammaReciprocal, B7, cfg.ZetaXB7-B7)
	if floor.IsNone() || cfg.Epsilon0 < floor.UnsafeFromSome() {
		return ConfigErrorEpsilon0
	}
	return ConfigValid
}

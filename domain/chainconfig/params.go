// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainconfig

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kaspanet/utxocore/domain/consensus/utils/abla"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
)

// Block versions that signal the version-activated soft forks.
const (
	FirstVersion    = 1
	BIP34Version    = 2
	BIP66Version    = 3
	BIP65Version    = 4
	BIP9VersionBit0 = 1 << 0
	BIP9VersionBase = 0x20000000
)

// SignalThreshold describes a version-signalled activation: the rule
// activates once Active of the last Sample block versions signal it, and
// older block versions are rejected once Enforce of them do.
type SignalThreshold struct {
	Active  uint32
	Enforce uint32
	Sample  uint32
}

// BuriedHeights are the heights from which BIP90 enforces the
// version-signalled soft forks without looking at signals.
type BuriedHeights struct {
	BIP34 uint32
	BIP66 uint32
	BIP65 uint32
}

// UpgradeHeights are the heights of the last block before each height
// activated Bitcoin Cash upgrade. An upgrade applies to every block above
// its height.
type UpgradeHeights struct {
	UAHF            uint32
	DAA             uint32
	Monolith        uint32
	MagneticAnomaly uint32
	GreatWall       uint32
	Graviton        uint32
	Phonon          uint32
	Axion           uint32
	Upgrade9        uint32
}

// UpgradeTimes are median-time-past thresholds of the Bitcoin Cash upgrades
// that activate by time. An upgrade applies once the median time past of a
// block's ancestors reaches its threshold.
type UpgradeTimes struct {
	Upgrade10 uint32
	Upgrade11 uint32
}

// ASERTAnchor is the block the aserti3-2d difficulty algorithm is anchored
// to.
type ASERTAnchor struct {
	Height        uint32
	Bits          uint32
	PrevBlockTime int64
}

// Params defines a network by its consensus parameters. The embedded btcd
// parameters carry the genesis block, proof of work limit, subsidy schedule
// and checkpoints.
type Params struct {
	chaincfg.Params

	// Forks is the set of rule forks this network may activate.
	Forks ruleforks.RuleForks

	// RetargetInterval is the number of blocks between legacy retargets.
	RetargetInterval uint32

	// TargetSpacingSeconds is the desired time between blocks.
	TargetSpacingSeconds uint32

	// RetargetFactor bounds the legacy retarget timespan to
	// [timespan/factor, timespan*factor].
	RetargetFactor uint32

	// MedianTimeBlocks is the number of blocks the median time past is
	// taken over.
	MedianTimeBlocks uint32

	// SignalThreshold governs BIP34/BIP65/BIP66 activation by version.
	SignalThreshold SignalThreshold

	// BuriedHeights are honoured when BIP90 is configured.
	BuriedHeights BuriedHeights

	// BIP16ActivationTime is the header timestamp from which P2SH applies.
	BIP16ActivationTime uint32

	// BIP16Exception is a block that is exempt from P2SH.
	BIP16Exception *chaincfg.Checkpoint

	// BIP30Exceptions are blocks that duplicate unspent transactions.
	BIP30Exceptions []chaincfg.Checkpoint

	// BIP34ActiveCheckpoint is a block at which BIP34 is known to be
	// active. Transaction hash collisions are allowed above it.
	BIP34ActiveCheckpoint *chaincfg.Checkpoint

	// BIP9Bit0ActiveCheckpoint is a block at which the CSV soft forks are
	// known to be active. A nil checkpoint activates them from genesis.
	BIP9Bit0ActiveCheckpoint *chaincfg.Checkpoint

	// SegwitHeight is the first block that enforces segwit.
	SegwitHeight uint32

	// UpgradeHeights and UpgradeTimes schedule the Bitcoin Cash upgrades.
	UpgradeHeights UpgradeHeights
	UpgradeTimes   UpgradeTimes

	// ASERTHalfLife is the aserti3-2d half-life in seconds.
	ASERTHalfLife int64

	// ASERTAnchor is nil on networks that do not run aserti3-2d.
	ASERTAnchor *ASERTAnchor

	// ABLAConfig is nil on networks without an adaptive block size limit.
	ABLAConfig *abla.Config

	// LegacyMaxBlockSize is the block size limit before any upgrade.
	LegacyMaxBlockSize uint64

	// UAHFMaxBlockSize and MonolithMaxBlockSize are the Bitcoin Cash fixed
	// limits before the adaptive limit.
	UAHFMaxBlockSize     uint64
	MonolithMaxBlockSize uint64

	// MaxBlockSizeCeiling bounds blocks before any context is known.
	MaxBlockSizeCeiling uint64

	// MaxBlockSigOpsPerMB is the sigop allowance per started megabyte.
	MaxBlockSigOpsPerMB uint64

	// MaxTxSigOps bounds the sigops of a single loose transaction.
	MaxTxSigOps uint64

	// SkipProofOfWork indicates whether proof of work should be checked.
	SkipProofOfWork bool
}

// IsBitcoinCash returns whether the network follows the Bitcoin Cash rules.
func (p *Params) IsBitcoinCash() bool {
	return p.Forks.IsEnabled(ruleforks.UAHF)
}

// TargetTimespanSeconds is the legacy retarget window duration.
func (p *Params) TargetTimespanSeconds() uint32 {
	return p.RetargetInterval * p.TargetSpacingSeconds
}

// newHashFromStr converts the passed big-endian hex string into a
// chainhash.Hash. It panics on an error since it will only (and must only)
// be called with hard-coded, and therefore known good, hashes.
func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}
	return hash
}

// Clone returns a copy of p whose tables can be modified without affecting
// p.
func (p *Params) Clone() *Params {
	clone := *p
	clone.Checkpoints = append([]chaincfg.Checkpoint(nil), p.Checkpoints...)
	clone.BIP30Exceptions = append([]chaincfg.Checkpoint(nil), p.BIP30Exceptions...)
	if p.ASERTAnchor != nil {
		anchor := *p.ASERTAnchor
		clone.ASERTAnchor = &anchor
	}
	if p.ABLAConfig != nil {
		cfg := *p.ABLAConfig
		clone.ABLAConfig = &cfg
	}
	return &clone
}

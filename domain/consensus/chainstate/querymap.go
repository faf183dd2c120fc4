package chainstate

import (
	"math"
	"slices"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
)

// Unrequested marks a query map height that does not need to be fetched.
const Unrequested = math.MaxUint32

// Sample window sizes of the difficulty algorithms.
const (
	// cashWorkWindow is the number of samples cw-144 needs: 144 blocks plus
	// two on each end for the median-of-three selection, less one shared.
	cashWorkWindow = 147

	// emergencyWindow covers the median time past of the tip and of the
	// block six below it.
	emergencyWindow = 17

	emergencyOffset = 6
)

// Range is a contiguous run of heights ending at High.
type Range struct {
	Count uint32
	High  uint32
}

// Low returns the lowest height in the range. It is meaningless for an
// empty range.
func (r Range) Low() uint32 {
	return r.High - r.Count + 1
}

// QueryMap lists the ancestor header fields a ChainState needs. The store
// materializes it into Data with a single batched fetch.
type QueryMap struct {
	Bits     Range
	BitsSelf uint32

	Version     Range
	VersionSelf uint32

	Timestamp         Range
	TimestampSelf     uint32
	TimestampRetarget uint32

	// AllowCollisionsHeight and BIP9Bit0Height are the heights whose block
	// hash is needed to detect the activation checkpoints, or Unrequested.
	AllowCollisionsHeight uint32
	BIP9Bit0Height        uint32
}

// NewQueryMap returns the query map of the block at height. Height zero has
// no ancestors and yields an empty map.
func NewQueryMap(height uint32, forks ruleforks.RuleForks, params *chainconfig.Params) QueryMap {
	if height == 0 {
		return QueryMap{
			TimestampRetarget:     Unrequested,
			AllowCollisionsHeight: Unrequested,
			BIP9Bit0Height:        Unrequested,
		}
	}

	return QueryMap{
		BitsSelf: height,
		Bits:     Range{Count: bitsCount(height, forks, params), High: height - 1},

		VersionSelf: height,
		Version:     Range{Count: versionCount(height, forks, params), High: height - 1},

		TimestampSelf:     height,
		Timestamp:         Range{Count: timestampCount(height, forks, params), High: height - 1},
		TimestampRetarget: retargetHeight(height, params),

		AllowCollisionsHeight: checkpointHeight(height, forks&ruleforks.AllowCollisions, params.BIP34ActiveCheckpoint),
		BIP9Bit0Height:        checkpointHeight(height, forks&ruleforks.BIP9Bit0Rules, params.BIP9Bit0ActiveCheckpoint),
	}
}

// Heights returns every distinct ancestor height the map requests, in
// ascending order.
func (m QueryMap) Heights() []uint32 {
	seen := make(map[uint32]struct{})
	add := func(r Range) {
		for i := uint32(0); i < r.Count; i++ {
			seen[r.High-i] = struct{}{}
		}
	}
	add(m.Bits)
	add(m.Version)
	add(m.Timestamp)
	for _, height := range []uint32{m.TimestampRetarget, m.AllowCollisionsHeight, m.BIP9Bit0Height} {
		if height != Unrequested {
			seen[height] = struct{}{}
		}
	}

	heights := make([]uint32, 0, len(seen))
	for height := range seen {
		heights = append(heights, height)
	}
	slices.Sort(heights)
	return heights
}

func minCount(height, count uint32) uint32 {
	if height < count {
		return height
	}
	return count
}

// upgradeHeightActive returns whether a height activated upgrade applies to
// the block at height.
func upgradeHeightActive(height, upgradeHeight uint32) bool {
	return height > upgradeHeight
}

// The bits and timestamp windows only shrink as forks activate, so that a
// state can always be promoted from its predecessor. Configured forks rather
// than active ones size the cw-144 and emergency windows for that reason.

func bitsCount(height uint32, forks ruleforks.RuleForks, params *chainconfig.Params) uint32 {
	switch {
	case !forks.IsEnabled(ruleforks.Retarget), usesASERT(height, forks, params):
		return minCount(height, 1)
	case forks.IsEnabled(ruleforks.DAA):
		return minCount(height, cashWorkWindow)
	case forks.IsEnabled(ruleforks.EasyBlocks):
		return minCount(height, params.RetargetInterval)
	default:
		return minCount(height, 1)
	}
}

func versionCount(height uint32, forks ruleforks.RuleForks, params *chainconfig.Params) uint32 {
	if forks.IsEnabled(ruleforks.BIP90) || forks&ruleforks.BIP34Rules == 0 {
		return 0
	}
	return minCount(height, params.SignalThreshold.Sample)
}

func timestampCount(height uint32, forks ruleforks.RuleForks, params *chainconfig.Params) uint32 {
	count := params.MedianTimeBlocks
	switch {
	case !forks.IsEnabled(ruleforks.Retarget), usesASERT(height, forks, params):
	case forks.IsEnabled(ruleforks.DAA):
		count = cashWorkWindow
	case forks.IsEnabled(ruleforks.UAHF):
		count = emergencyWindow
	}
	return minCount(height, count)
}

// retargetHeight returns the most recent retarget height below height, so
// that it may be promoted.
func retargetHeight(height uint32, params *chainconfig.Params) uint32 {
	if isRetargetHeight(height, params) {
		return height - params.RetargetInterval
	}
	return height - height%params.RetargetInterval
}

func isRetargetHeight(height uint32, params *chainconfig.Params) bool {
	return height%params.RetargetInterval == 0
}

func checkpointHeight(height uint32, configured ruleforks.RuleForks, checkpoint *chaincfg.Checkpoint) uint32 {
	if configured == ruleforks.NoRules || checkpoint == nil || checkpoint.Height < 0 || height <= uint32(checkpoint.Height) {
		return Unrequested
	}
	return uint32(checkpoint.Height)
}

func usesASERT(height uint32, forks ruleforks.RuleForks, params *chainconfig.Params) bool {
	return forks.IsEnabled(ruleforks.Axion) && params.ASERTAnchor != nil &&
		upgradeHeightActive(height, params.UpgradeHeights.Axion)
}

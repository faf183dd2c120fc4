package chainstate

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
)

// Activations are the rule forks active at a height and the lowest block
// version accepted there.
type Activations struct {
	Forks          ruleforks.RuleForks
	MinimumVersion uint32
}

// configurationForks are active whenever they are configured.
const configurationForks = ruleforks.EasyBlocks | ruleforks.BIP90 | ruleforks.Retarget

// Activation computes the activations of the block data describes out of
// the configured forks. Forks that are not configured never activate.
func Activation(data *Data, forks ruleforks.RuleForks, params *chainconfig.Params) Activations {
	height := data.Height
	active := forks & configurationForks

	enable := func(fork ruleforks.RuleForks, isActive bool) {
		if isActive {
			active |= forks & fork
		}
	}

	enable(ruleforks.BIP16, data.Timestamp.Self >= params.BIP16ActivationTime &&
		!isCheckpointBlock(params.BIP16Exception, height, &data.Hash))

	isBIP30Exception := false
	for i := range params.BIP30Exceptions {
		if isCheckpointBlock(&params.BIP30Exceptions[i], height, &data.Hash) {
			isBIP30Exception = true
			break
		}
	}
	enable(ruleforks.BIP30, !isBIP30Exception)

	frozen := forks.IsEnabled(ruleforks.BIP90)
	bip34Ice := frozen && height >= params.BuriedHeights.BIP34
	bip66Ice := frozen && height >= params.BuriedHeights.BIP66
	bip65Ice := frozen && height >= params.BuriedHeights.BIP65

	threshold := params.SignalThreshold
	count2 := countVersions(data.Version.Ordered, chainconfig.BIP34Version)
	count3 := countVersions(data.Version.Ordered, chainconfig.BIP66Version)
	count4 := countVersions(data.Version.Ordered, chainconfig.BIP65Version)
	self := int32(data.Version.Self)

	enable(ruleforks.BIP34, bip34Ice || (count2 >= threshold.Active && self >= chainconfig.BIP34Version))
	enable(ruleforks.BIP66, bip66Ice || (count3 >= threshold.Active && self >= chainconfig.BIP66Version))
	enable(ruleforks.BIP65, bip65Ice || (count4 >= threshold.Active && self >= chainconfig.BIP65Version))

	enable(ruleforks.AllowCollisions, params.BIP34ActiveCheckpoint != nil &&
		data.AllowCollisionsHash == *params.BIP34ActiveCheckpoint.Hash)

	enable(ruleforks.BIP9Bit0Rules, params.BIP9Bit0ActiveCheckpoint == nil ||
		data.BIP9Bit0Hash == *params.BIP9Bit0ActiveCheckpoint.Hash)

	enable(ruleforks.SegwitRules, height >= params.SegwitHeight)

	upgrades := params.UpgradeHeights
	enable(ruleforks.UAHF, upgradeHeightActive(height, upgrades.UAHF))
	enable(ruleforks.DAA, upgradeHeightActive(height, upgrades.DAA))
	enable(ruleforks.Monolith, upgradeHeightActive(height, upgrades.Monolith))
	enable(ruleforks.MagneticAnomaly, upgradeHeightActive(height, upgrades.MagneticAnomaly))
	enable(ruleforks.GreatWall, upgradeHeightActive(height, upgrades.GreatWall))
	enable(ruleforks.Graviton, upgradeHeightActive(height, upgrades.Graviton))
	enable(ruleforks.Phonon, upgradeHeightActive(height, upgrades.Phonon))
	enable(ruleforks.Axion, upgradeHeightActive(height, upgrades.Axion))
	enable(ruleforks.Upgrade9, upgradeHeightActive(height, upgrades.Upgrade9))

	// Time activated upgrades go by the median time past of the ancestors,
	// which the candidate cannot influence.
	medianTimePast := MedianTimePast(data.Timestamp.Ordered, params.MedianTimeBlocks)
	enable(ruleforks.Upgrade10, height > 0 && medianTimePast >= params.UpgradeTimes.Upgrade10)
	enable(ruleforks.Upgrade11, height > 0 && medianTimePast >= params.UpgradeTimes.Upgrade11)

	// Version enforcement does not depend on the rules being configured.
	minimumVersion := uint32(chainconfig.FirstVersion)
	switch {
	case bip65Ice || count4 >= threshold.Enforce:
		minimumVersion = chainconfig.BIP65Version
	case bip66Ice || count3 >= threshold.Enforce:
		minimumVersion = chainconfig.BIP66Version
	case bip34Ice || count2 >= threshold.Enforce:
		minimumVersion = chainconfig.BIP34Version
	}

	return Activations{
		Forks:          active.Known(),
		MinimumVersion: minimumVersion,
	}
}

// SignalVersion returns the block version a block template signals under
// the configured forks.
func SignalVersion(forks ruleforks.RuleForks) uint32 {
	switch {
	case forks.IsEnabled(ruleforks.BIP65):
		return chainconfig.BIP65Version
	case forks.IsEnabled(ruleforks.BIP66):
		return chainconfig.BIP66Version
	case forks.IsEnabled(ruleforks.BIP34):
		return chainconfig.BIP34Version
	case forks&ruleforks.BIP9Bit0Rules != 0:
		return chainconfig.BIP9VersionBase | chainconfig.BIP9VersionBit0
	default:
		return chainconfig.FirstVersion
	}
}

// countVersions counts the versions at or above minimum. Versions compare
// as signed integers, so versions with the top bit set never count.
func countVersions(versions []uint32, minimum int32) uint32 {
	count := uint32(0)
	for _, version := range versions {
		if int32(version) >= minimum {
			count++
		}
	}
	return count
}

func isCheckpointBlock(checkpoint *chaincfg.Checkpoint, height uint32, hash *chainhash.Hash) bool {
	return atCheckpoint(height, checkpoint) && checkpoint.Hash.IsEqual(hash)
}

func atCheckpoint(height uint32, checkpoint *chaincfg.Checkpoint) bool {
	return checkpoint != nil && checkpoint.Height >= 0 && uint32(checkpoint.Height) == height
}

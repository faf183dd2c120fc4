package chainstate

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
)

// WorkAlgorithm names the difficulty algorithm a chain state selected.
type WorkAlgorithm int

// Difficulty algorithms in selection order.
const (
	WorkNone WorkAlgorithm = iota
	WorkCarryForward
	WorkMinimumDifficulty
	WorkASERT
	WorkCashWork
	WorkLegacyRetarget
	WorkEasyScan
	WorkEmergency
)

var workAlgorithmNames = map[WorkAlgorithm]string{
	WorkNone:              "none",
	WorkCarryForward:      "carry-forward",
	WorkMinimumDifficulty: "minimum-difficulty",
	WorkASERT:             "aserti3-2d",
	WorkCashWork:          "cw-144",
	WorkLegacyRetarget:    "legacy-retarget",
	WorkEasyScan:          "easy-scan",
	WorkEmergency:         "emergency",
}

func (algorithm WorkAlgorithm) String() string {
	if name, ok := workAlgorithmNames[algorithm]; ok {
		return name
	}
	return fmt.Sprintf("WorkAlgorithm(%d)", int(algorithm))
}

// emergencyTimespan is the time six blocks may take before the emergency
// adjustment lowers the difficulty.
const emergencyTimespan = 12 * 60 * 60

// SelectWorkAlgorithm returns the single difficulty algorithm that applies
// to the block data describes under the active forks.
func SelectWorkAlgorithm(data *Data, active ruleforks.RuleForks, params *chainconfig.Params) WorkAlgorithm {
	height := data.Height
	switch {
	case height == 0:
		return WorkNone
	case !active.IsEnabled(ruleforks.Retarget):
		return WorkCarryForward
	}

	minimumDifficulty := active.IsEnabled(ruleforks.EasyBlocks) && isLate(data, params)
	switch {
	case active.IsEnabled(ruleforks.Axion) && params.ASERTAnchor != nil:
		if minimumDifficulty {
			return WorkMinimumDifficulty
		}
		return WorkASERT
	case active.IsEnabled(ruleforks.DAA) && len(data.Bits.Ordered) >= cashWorkWindow &&
		len(data.Timestamp.Ordered) >= cashWorkWindow:
		if minimumDifficulty {
			return WorkMinimumDifficulty
		}
		return WorkCashWork
	case isRetargetHeight(height, params):
		return WorkLegacyRetarget
	case minimumDifficulty:
		return WorkMinimumDifficulty
	case active.IsEnabled(ruleforks.EasyBlocks):
		return WorkEasyScan
	case active.IsEnabled(ruleforks.UAHF) && isEmergency(data.Timestamp.Ordered, params):
		return WorkEmergency
	default:
		return WorkCarryForward
	}
}

// WorkRequired returns the bits the block data describes must carry.
func WorkRequired(data *Data, active ruleforks.RuleForks, params *chainconfig.Params) uint32 {
	return workRequired(SelectWorkAlgorithm(data, active, params), data, params)
}

func workRequired(algorithm WorkAlgorithm, data *Data, params *chainconfig.Params) uint32 {
	switch algorithm {
	case WorkCarryForward:
		return data.HighBits()
	case WorkMinimumDifficulty:
		return params.PowLimitBits
	case WorkASERT:
		return asertWorkRequired(data, params)
	case WorkCashWork:
		return cashWorkRequired(data.Bits.Ordered, data.Timestamp.Ordered, params)
	case WorkLegacyRetarget:
		return retargetWorkRequired(data.HighBits(), data.Timestamp.Retarget, data.HighTimestamp(), params)
	case WorkEasyScan:
		return easyWorkRequired(data, params)
	case WorkEmergency:
		return emergencyWorkRequired(data.HighBits(), params)
	default:
		return 0
	}
}

// isLate returns whether the candidate is more than two target spacings
// younger than its parent, which allows a minimum difficulty block on
// test networks.
func isLate(data *Data, params *chainconfig.Params) bool {
	return uint64(data.Timestamp.Self) > uint64(data.HighTimestamp())+2*uint64(params.TargetSpacingSeconds)
}

// clampTarget bounds target to [1, powLimit] and returns it in compact form.
func clampTarget(target *big.Int, params *chainconfig.Params) uint32 {
	if target.Sign() <= 0 {
		target.SetInt64(1)
	}
	if target.Cmp(params.PowLimit) > 0 {
		return params.PowLimitBits
	}
	return blockchain.BigToCompact(target)
}

// retargetWorkRequired is the legacy periodic retarget: the parent target
// scaled by the time the last interval took, clamped by the retarget
// factor.
func retargetWorkRequired(bits, firstTimestamp, lastTimestamp uint32, params *chainconfig.Params) uint32 {
	targetTimespan := int64(params.TargetTimespanSeconds())
	timespan := int64(lastTimestamp) - int64(firstTimestamp)
	timespan = max(timespan, targetTimespan/int64(params.RetargetFactor))
	timespan = min(timespan, targetTimespan*int64(params.RetargetFactor))

	target := blockchain.CompactToBig(bits)
	target.Mul(target, big.NewInt(timespan))
	target.Div(target, big.NewInt(targetTimespan))
	return clampTarget(target, params)
}

// easyWorkRequired returns the bits of the most recent block that is not a
// minimum difficulty block, or that sits on a retarget height.
func easyWorkRequired(data *Data, params *chainconfig.Params) uint32 {
	bits := data.Bits.Ordered
	height := data.Height - 1
	for i := len(bits) - 1; i >= 0; i, height = i-1, height-1 {
		if bits[i] != params.PowLimitBits || isRetargetHeight(height, params) {
			return bits[i]
		}
	}
	return params.PowLimitBits
}

// isEmergency returns whether the six blocks before the parent took more
// than twelve hours by median time past.
func isEmergency(timestamps []uint32, params *chainconfig.Params) bool {
	window := params.MedianTimeBlocks
	if uint32(len(timestamps)) < window+emergencyOffset {
		return false
	}
	tip := MedianTimePast(timestamps, window)
	past := MedianTimePast(timestamps[:len(timestamps)-emergencyOffset], window)
	return int64(tip)-int64(past) > emergencyTimespan
}

// emergencyWorkRequired lowers the difficulty by a quarter of the target.
func emergencyWorkRequired(bits uint32, params *chainconfig.Params) uint32 {
	target := blockchain.CompactToBig(bits)
	target.Add(target, new(big.Int).Rsh(target, 2))
	return clampTarget(target, params)
}

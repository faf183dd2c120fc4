package chainstate

import (
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/kaspanet/utxocore/domain/chainconfig"
)

// Coefficients of the cubic approximation of 2^x - 1 over [0, 1) in 16.48
// fixed point.
const (
	asertCoefficient1 = 195766423245049
	asertCoefficient2 = 971821376
	asertCoefficient3 = 5127
	asertRounding     = 1 << 47
)

// asertWorkRequired is aserti3-2d: the anchor target doubles for every
// half-life the chain runs behind its ideal schedule and halves for every
// half-life it runs ahead.
func asertWorkRequired(data *Data, params *chainconfig.Params) uint32 {
	anchor := params.ASERTAnchor
	heightDiff := int64(data.Height) - 1 - int64(anchor.Height)
	timeDiff := int64(data.HighTimestamp()) - anchor.PrevBlockTime
	return asertTarget(anchor.Bits, heightDiff, timeDiff, params)
}

func asertTarget(anchorBits uint32, heightDiff, timeDiff int64, params *chainconfig.Params) uint32 {
	spacing := int64(params.TargetSpacingSeconds)

	// Exponent in 16.16 fixed point. Division truncates toward zero and the
	// shift below rounds toward negative infinity.
	exponent := ((timeDiff - spacing*(heightDiff+1)) * 65536) / params.ASERTHalfLife
	shifts := exponent >> 16
	frac := uint64(uint16(exponent))

	factor := 65536 + ((asertCoefficient1*frac +
		asertCoefficient2*frac*frac +
		asertCoefficient3*frac*frac*frac +
		asertRounding) >> 48)

	target := blockchain.CompactToBig(anchorBits)
	target.Mul(target, new(big.Int).SetUint64(factor))

	shifts -= 16
	if shifts <= 0 {
		target.Rsh(target, uint(-shifts))
	} else {
		if int64(target.BitLen())+shifts > 256 {
			return params.PowLimitBits
		}
		target.Lsh(target, uint(shifts))
	}
	return clampTarget(target, params)
}

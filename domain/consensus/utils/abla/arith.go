package abla

import (
	"math/bits"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// mulDiv returns x*y/z computed with a 128-bit intermediate, or None if z is
// zero or the quotient does not fit in 64 bits.
func mulDiv(x, y, z uint64) fn.Option[uint64] {
	if z == 0 {
		return fn.None[uint64]()
	}
	hi, lo := bits.Mul64(x, y)
	if hi >= z {
		return fn.None[uint64]()
	}
	quo, _ := bits.Div64(hi, lo, z)
	return fn.Some(quo)
}

func checkedAdd(x, y uint64) fn.Option[uint64] {
	sum, carry := bits.Add64(x, y, 0)
	if carry != 0 {
		return fn.None[uint64]()
	}
	return fn.Some(sum)
}

func checkedSub(x, y uint64) fn.Option[uint64] {
	diff, borrow := bits.Sub64(x, y, 0)
	if borrow != 0 {
		return fn.None[uint64]()
	}
	return fn.Some(diff)
}

func checkedMul(x, y uint64) fn.Option[uint64] {
	hi, lo := bits.Mul64(x, y)
	if hi != 0 {
		return fn.None[uint64]()
	}
	return fn.Some(lo)
}

package chainstate

import (
	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/utils/abla"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// ablaStateFor returns the adaptive block size state of the block data
// describes, or None when the limit is not active. The state is derived
// from the state after the parent block, or starts afresh on the first
// block the limit applies to. ok is false when the parent's state is
// missing although the limit applied to the parent, or when the arithmetic
// overflows.
func ablaStateFor(data *Data, active ruleforks.RuleForks, params *chainconfig.Params) (state fn.Option[abla.State], ok bool) {
	if params.ABLAConfig == nil || !active.IsEnabled(ruleforks.Upgrade10) {
		return fn.None[abla.State](), true
	}
	cfg := params.ABLAConfig

	if data.ABLAState.IsNone() {
		if data.ParentABLAActive {
			return fn.None[abla.State](), false
		}
		return fn.Some(abla.NewState(cfg, 0)), true
	}
	next := data.ABLAState.UnsafeFromSome().Next(cfg, 0)
	return next, next.IsSome()
}

// maxBlockSize returns the size limit of a block under the active forks.
func maxBlockSize(active ruleforks.RuleForks, ablaState fn.Option[abla.State], params *chainconfig.Params) uint64 {
	if !params.IsBitcoinCash() {
		return params.LegacyMaxBlockSize
	}

	switch {
	case ablaState.IsSome():
		return ablaState.UnsafeFromSome().Limit()
	case active.IsEnabled(ruleforks.Monolith):
		return params.MonolithMaxBlockSize
	case active.IsEnabled(ruleforks.UAHF):
		return params.UAHFMaxBlockSize
	default:
		return params.LegacyMaxBlockSize
	}
}

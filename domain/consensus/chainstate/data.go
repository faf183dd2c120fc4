package chainstate

import (
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/utils/abla"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
	"github.com/kaspanet/utxocore/infrastructure/logger"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/pkg/errors"
)

// HeaderSample is the part of an ancestor header a chain state is derived
// from.
type HeaderSample struct {
	Bits      uint32
	Version   uint32
	Timestamp uint32
}

// HeaderSource is implemented by the header store Collect fetches
// ancestors from.
type HeaderSource interface {
	HeaderSample(height uint32) (HeaderSample, error)
	BlockHash(height uint32) (*chainhash.Hash, error)

	// ABLAState returns the adaptive block size state after the block at
	// height, its BlockSize set to that block's size. None means the store
	// holds no state for the block.
	ABLAState(height uint32) (fn.Option[abla.State], error)
}

// BitsData holds the bits of the candidate block and of its ancestors,
// oldest first.
type BitsData struct {
	Self    uint32
	Ordered []uint32
}

// VersionData holds the version of the candidate block and of its
// ancestors, oldest first.
type VersionData struct {
	Self    uint32
	Ordered []uint32
}

// TimestampData holds the timestamp of the candidate block, of its
// ancestors oldest first, and of the block at the last retarget height.
type TimestampData struct {
	Self     uint32
	Retarget uint32
	Ordered  []uint32
}

// Data is the materialized query map of a candidate block.
type Data struct {
	Height uint32
	Hash   chainhash.Hash

	// AllowCollisionsHash and BIP9Bit0Hash are the hashes found at the
	// activation checkpoint heights, zero when not requested.
	AllowCollisionsHash chainhash.Hash
	BIP9Bit0Hash        chainhash.Hash

	Bits      BitsData
	Version   VersionData
	Timestamp TimestampData

	// ABLAState is the state after the parent block, present once the
	// adaptive block size limit is active.
	ABLAState fn.Option[abla.State]

	// ParentABLAActive is set when the adaptive limit already applied to
	// the parent block, so ABLAState must be present.
	ParentABLAActive bool
}

// Clone returns a deep copy of data.
func (data *Data) Clone() *Data {
	clone := *data
	clone.Bits.Ordered = append([]uint32(nil), data.Bits.Ordered...)
	clone.Version.Ordered = append([]uint32(nil), data.Version.Ordered...)
	clone.Timestamp.Ordered = append([]uint32(nil), data.Timestamp.Ordered...)
	return &clone
}

// Validate returns whether the window lengths of data are the ones
// queryMap asks for.
func (data *Data) Validate(queryMap QueryMap) bool {
	return uint32(len(data.Bits.Ordered)) == queryMap.Bits.Count &&
		uint32(len(data.Version.Ordered)) == queryMap.Version.Count &&
		uint32(len(data.Timestamp.Ordered)) == queryMap.Timestamp.Count
}

// HighBits returns the bits of the parent block.
func (data *Data) HighBits() uint32 {
	return last(data.Bits.Ordered)
}

// HighTimestamp returns the timestamp of the parent block.
func (data *Data) HighTimestamp() uint32 {
	return last(data.Timestamp.Ordered)
}

func last(values []uint32) uint32 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

// Collect fetches the ancestor data of the block at height. A nil header
// collects the data of a pool state, whose own fields are not known yet.
func Collect(height uint32, header *wire.BlockHeader, forks ruleforks.RuleForks,
	params *chainconfig.Params, source HeaderSource) (*Data, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "chainstate.Collect")
	defer onEnd()

	queryMap := NewQueryMap(height, forks, params)
	samples := make(map[uint32]HeaderSample)
	for _, ancestorHeight := range queryMap.Heights() {
		sample, err := source.HeaderSample(ancestorHeight)
		if err != nil {
			return nil, errors.Wrapf(err, "failed fetching header sample at height %d", ancestorHeight)
		}
		samples[ancestorHeight] = sample
	}

	data := &Data{
		Height: height,
		Bits: BitsData{
			Ordered: collectRange(queryMap.Bits, samples, func(s HeaderSample) uint32 { return s.Bits }),
		},
		Version: VersionData{
			Ordered: collectRange(queryMap.Version, samples, func(s HeaderSample) uint32 { return s.Version }),
		},
		Timestamp: TimestampData{
			Ordered: collectRange(queryMap.Timestamp, samples, func(s HeaderSample) uint32 { return s.Timestamp }),
		},
	}
	if queryMap.TimestampRetarget != Unrequested {
		data.Timestamp.Retarget = samples[queryMap.TimestampRetarget].Timestamp
	}

	var err error
	data.AllowCollisionsHash, err = collectHash(queryMap.AllowCollisionsHeight, source)
	if err != nil {
		return nil, err
	}
	data.BIP9Bit0Hash, err = collectHash(queryMap.BIP9Bit0Height, source)
	if err != nil {
		return nil, err
	}

	data.ParentABLAActive, err = parentABLAActive(height, forks, params, samples, source)
	if err != nil {
		return nil, err
	}
	data.ABLAState = fn.None[abla.State]()
	if data.ParentABLAActive {
		data.ABLAState, err = source.ABLAState(height - 1)
		if err != nil {
			return nil, errors.Wrapf(err, "failed fetching adaptive block size state at height %d", height-1)
		}
	}

	if header == nil {
		data.Bits.Self = params.PowLimitBits
		data.Version.Self = SignalVersion(forks)
		data.Timestamp.Self = math.MaxUint32
		return data, nil
	}
	setSelf(data, header, params)
	return data, nil
}

func collectRange(r Range, samples map[uint32]HeaderSample, field func(HeaderSample) uint32) []uint32 {
	values := make([]uint32, 0, r.Count)
	for i := uint32(0); i < r.Count; i++ {
		values = append(values, field(samples[r.Low()+i]))
	}
	return values
}

// parentABLAActive returns whether Upgrade10 was active at the parent of
// the block at height. The parent's median time past covers timestamps
// one block older than the candidate's window, fetched when missing.
func parentABLAActive(height uint32, forks ruleforks.RuleForks, params *chainconfig.Params,
	samples map[uint32]HeaderSample, source HeaderSource) (bool, error) {

	if params.ABLAConfig == nil || !forks.IsEnabled(ruleforks.Upgrade10) || height < 2 {
		return false, nil
	}
	parent := height - 1
	window := params.MedianTimeBlocks
	low := uint32(0)
	if parent > window {
		low = parent - window
	}

	timestamps := make([]uint32, 0, parent-low)
	for ancestorHeight := low; ancestorHeight < parent; ancestorHeight++ {
		sample, ok := samples[ancestorHeight]
		if !ok {
			var err error
			sample, err = source.HeaderSample(ancestorHeight)
			if err != nil {
				return false, errors.Wrapf(err, "failed fetching header sample at height %d", ancestorHeight)
			}
		}
		timestamps = append(timestamps, sample.Timestamp)
	}
	return MedianTimePast(timestamps, window) >= params.UpgradeTimes.Upgrade10, nil
}

func collectHash(height uint32, source HeaderSource) (chainhash.Hash, error) {
	if height == Unrequested {
		return chainhash.Hash{}, nil
	}
	hash, err := source.BlockHash(height)
	if err != nil {
		return chainhash.Hash{}, errors.Wrapf(err, "failed fetching block hash at height %d", height)
	}
	return *hash, nil
}

// setSelf fills in the fields of data that come from the candidate header.
// At an activation checkpoint height the candidate's own hash is the one the
// activation compares against.
func setSelf(data *Data, header *wire.BlockHeader, params *chainconfig.Params) {
	data.Hash = header.BlockHash()
	data.Bits.Self = header.Bits
	data.Version.Self = uint32(header.Version)
	data.Timestamp.Self = uint32(header.Timestamp.Unix())

	if atCheckpoint(data.Height, params.BIP34ActiveCheckpoint) {
		data.AllowCollisionsHash = data.Hash
	}
	if atCheckpoint(data.Height, params.BIP9Bit0ActiveCheckpoint) {
		data.BIP9Bit0Hash = data.Hash
	}
}

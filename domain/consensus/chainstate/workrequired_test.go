package chainstate

import (
	"testing"

	"github.com/kaspanet/utxocore/domain/chainconfig"
	"github.com/kaspanet/utxocore/domain/consensus/utils/ruleforks"
)

func TestMedianTimePast(t *testing.T) {
	tests := []struct {
		name       string
		timestamps []uint32
		window     uint32
		expected   uint32
	}{
		{name: "full window", timestamps: []uint32{1, 5, 3, 9, 2, 8, 4, 7, 6, 10, 11}, window: 11, expected: 6},
		{name: "only the last window counts", timestamps: []uint32{100, 100, 1, 5, 3, 9, 2, 8, 4, 7, 6, 10, 11}, window: 11, expected: 6},
		{name: "short history shrinks the window", timestamps: []uint32{7, 3, 5}, window: 11, expected: 5},
		{name: "even count takes the upper middle", timestamps: []uint32{4, 1, 3, 2}, window: 11, expected: 3},
		{name: "no history", timestamps: nil, window: 11, expected: 0},
	}

	for _, test := range tests {
		result := MedianTimePast(test.timestamps, test.window)
		if result != test.expected {
			t.Errorf("%s: expected %d, got %d", test.name, test.expected, result)
		}
	}
}

func TestRetargetWorkRequired(t *testing.T) {
	params := &chainconfig.MainnetParams
	timespan := params.TargetTimespanSeconds()

	tests := []struct {
		name     string
		bits     uint32
		timespan uint32
		expected uint32
	}{
		{name: "half the timespan doubles the difficulty", bits: 0x1d00ffff, timespan: timespan / 2, expected: 0x1c7fff80},
		{name: "slow interval clamps at four times", bits: 0x1b0404cb, timespan: timespan * 10, expected: 0x1b10132c},
		{name: "easier than the limit clamps to the limit", bits: 0x1d00ffff, timespan: timespan * 2, expected: 0x1d00ffff},
		{name: "first interval off by one block", bits: 0x1d00ffff, timespan: 2015 * 600, expected: 0x1d00ffde},
	}

	for _, test := range tests {
		result := retargetWorkRequired(test.bits, 1_000_000, 1_000_000+test.timespan, params)
		if result != test.expected {
			t.Errorf("%s: expected %08x, got %08x", test.name, test.expected, result)
		}
	}
}

func TestEmergencyWorkRequired(t *testing.T) {
	params := &chainconfig.BCHMainnetParams
	if result := emergencyWorkRequired(0x1b0404cb, params); result != 0x1b0505fd {
		t.Fatalf("expected 1b0505fd, got %08x", result)
	}
	if result := emergencyWorkRequired(params.PowLimitBits, params); result != params.PowLimitBits {
		t.Fatalf("expected the pow limit, got %08x", result)
	}
}

func cashWorkTimestamps(spacing uint32) []uint32 {
	timestamps := make([]uint32, cashWorkWindow)
	for i := range timestamps {
		timestamps[i] = 1_000_000 + spacing*uint32(i)
	}
	return timestamps
}

func TestCashWorkRequired(t *testing.T) {
	params := &chainconfig.BCHMainnetParams
	bits := make([]uint32, cashWorkWindow)
	for i := range bits {
		bits[i] = 0x1c0ffff0
	}

	tests := []struct {
		name     string
		spacing  uint32
		expected uint32
	}{
		{name: "on schedule", spacing: 600, expected: 0x1c0ffff0},
		{name: "twice as fast", spacing: 300, expected: 0x1c07fff8},
		{name: "twice as slow", spacing: 1200, expected: 0x1c1fffe0},
	}

	for _, test := range tests {
		result := cashWorkRequired(bits, cashWorkTimestamps(test.spacing), params)
		if result != test.expected {
			t.Errorf("%s: expected %08x, got %08x", test.name, test.expected, result)
		}
	}
}

func TestSuitableBlock(t *testing.T) {
	tests := []struct {
		timestamps []uint32
		expected   int
	}{
		{timestamps: []uint32{1, 2, 3}, expected: 1},
		{timestamps: []uint32{3, 2, 1}, expected: 1},
		{timestamps: []uint32{2, 3, 1}, expected: 0},
		{timestamps: []uint32{1, 3, 2}, expected: 2},
	}

	for i, test := range tests {
		result := suitableBlock(test.timestamps, 2)
		if result != test.expected {
			t.Errorf("test %d: expected index %d, got %d", i, test.expected, result)
		}
	}
}

func TestASERTTarget(t *testing.T) {
	params := &chainconfig.BCHMainnetParams
	anchorBits := params.ASERTAnchor.Bits

	tests := []struct {
		name       string
		heightDiff int64
		timeDiff   int64
		expected   uint32
	}{
		{name: "on schedule", heightDiff: 0, timeDiff: 600, expected: 0x1804dafe},
		{name: "one half-life behind", heightDiff: 0, timeDiff: 600 + 172800, expected: 0x1809b5fc},
		{name: "one half-life ahead", heightDiff: 0, timeDiff: 600 - 172800, expected: 0x18026d7f},
		{name: "an hour behind", heightDiff: 10, timeDiff: 600*11 + 3600, expected: 0x1804ed1f},
		{name: "overflow clamps to the limit", heightDiff: 0, timeDiff: 1_000_000_000, expected: 0x1d00ffff},
		{name: "underflow clamps to one", heightDiff: 0, timeDiff: -1_000_000_000, expected: 0x01010000},
	}

	for _, test := range tests {
		result := asertTarget(anchorBits, test.heightDiff, test.timeDiff, params)
		if result != test.expected {
			t.Errorf("%s: expected %08x, got %08x", test.name, test.expected, result)
		}
	}
}

func TestRetargetBoundary(t *testing.T) {
	params := &chainconfig.MainnetParams
	forks := params.Forks

	tests := []struct {
		height   uint32
		expected WorkAlgorithm
	}{
		{height: 2015, expected: WorkCarryForward},
		{height: 2016, expected: WorkLegacyRetarget},
		{height: 2017, expected: WorkCarryForward},
	}

	for _, test := range tests {
		queryMap := NewQueryMap(test.height, forks, params)
		data := &Data{
			Height: test.height,
			Bits:   BitsData{Self: 0x1d00ffff, Ordered: make([]uint32, queryMap.Bits.Count)},
			Version: VersionData{
				Self:    chainconfig.BIP65Version,
				Ordered: make([]uint32, queryMap.Version.Count),
			},
			Timestamp: TimestampData{
				Self:     1_300_000_000,
				Retarget: 1_200_000_000,
				Ordered:  make([]uint32, queryMap.Timestamp.Count),
			},
		}
		for i := range data.Bits.Ordered {
			data.Bits.Ordered[i] = 0x1d00ffff
		}

		state := New(data, forks, nil, params)
		if !state.IsValid() {
			t.Fatalf("height %d: expected a valid state", test.height)
		}
		if state.WorkAlgorithm() != test.expected {
			t.Errorf("height %d: expected %s, got %s", test.height, test.expected, state.WorkAlgorithm())
		}
	}
}

func TestNewQueryMap(t *testing.T) {
	mainnet := &chainconfig.MainnetParams
	bchMainnet := &chainconfig.BCHMainnetParams

	tests := []struct {
		name      string
		height    uint32
		params    *chainconfig.Params
		bits      Range
		version   Range
		timestamp Range
		retarget  uint32
		bip34     uint32
		bip9      uint32
	}{
		{
			name:      "early mainnet",
			height:    5,
			params:    mainnet,
			bits:      Range{Count: 1, High: 4},
			timestamp: Range{Count: 5, High: 4},
			retarget:  0,
			bip34:     Unrequested,
			bip9:      Unrequested,
		},
		{
			name:      "mainnet retarget height",
			height:    4032,
			params:    mainnet,
			bits:      Range{Count: 1, High: 4031},
			timestamp: Range{Count: 11, High: 4031},
			retarget:  2016,
			bip34:     Unrequested,
			bip9:      Unrequested,
		},
		{
			name:      "mainnet above the activation checkpoints",
			height:    500_000,
			params:    mainnet,
			bits:      Range{Count: 1, High: 499_999},
			timestamp: Range{Count: 11, High: 499_999},
			retarget:  499_968,
			bip34:     227_931,
			bip9:      419_328,
		},
		{
			name:      "cw-144 window",
			height:    600_000,
			params:    bchMainnet,
			bits:      Range{Count: cashWorkWindow, High: 599_999},
			timestamp: Range{Count: cashWorkWindow, High: 599_999},
			retarget:  598_752,
			bip34:     227_931,
			bip9:      419_328,
		},
		{
			name:      "aserti3-2d window",
			height:    700_000,
			params:    bchMainnet,
			bits:      Range{Count: 1, High: 699_999},
			timestamp: Range{Count: 11, High: 699_999},
			retarget:  699_552,
			bip34:     227_931,
			bip9:      419_328,
		},
	}

	for _, test := range tests {
		queryMap := NewQueryMap(test.height, test.params.Forks, test.params)
		if queryMap.Bits != test.bits {
			t.Errorf("%s: expected bits %+v, got %+v", test.name, test.bits, queryMap.Bits)
		}
		if queryMap.Version != test.version {
			t.Errorf("%s: expected version %+v, got %+v", test.name, test.version, queryMap.Version)
		}
		if queryMap.Timestamp != test.timestamp {
			t.Errorf("%s: expected timestamp %+v, got %+v", test.name, test.timestamp, queryMap.Timestamp)
		}
		if queryMap.TimestampRetarget != test.retarget {
			t.Errorf("%s: expected retarget height %d, got %d", test.name, test.retarget, queryMap.TimestampRetarget)
		}
		if queryMap.AllowCollisionsHeight != test.bip34 {
			t.Errorf("%s: expected allow collisions height %d, got %d", test.name, test.bip34, queryMap.AllowCollisionsHeight)
		}
		if queryMap.BIP9Bit0Height != test.bip9 {
			t.Errorf("%s: expected bip9 bit0 height %d, got %d", test.name, test.bip9, queryMap.BIP9Bit0Height)
		}
	}
}

func TestNewQueryMapGenesis(t *testing.T) {
	queryMap := NewQueryMap(0, chainconfig.MainnetParams.Forks, &chainconfig.MainnetParams)
	if len(queryMap.Heights()) != 0 {
		t.Fatalf("expected no heights, got %v", queryMap.Heights())
	}
}

func TestQueryMapVersionWindow(t *testing.T) {
	params := &chainconfig.MainnetParams
	withoutBIP90 := params.Forks &^ ruleforks.BIP90
	queryMap := NewQueryMap(2000, withoutBIP90, params)
	if queryMap.Version != (Range{Count: 1000, High: 1999}) {
		t.Fatalf("expected a 1000 version window, got %+v", queryMap.Version)
	}

	heights := queryMap.Heights()
	if len(heights) != 1001 || heights[0] != 0 || heights[1] != 1000 || heights[len(heights)-1] != 1999 {
		t.Fatalf("unexpected heights: %d starting %v", len(heights), heights[:2])
	}
}

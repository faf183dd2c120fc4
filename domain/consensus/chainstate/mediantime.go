package chainstate

import "slices"

// MedianTimePast returns the median of the last window timestamps. Fewer
// timestamps shrink the window, and no timestamps yield zero.
func MedianTimePast(timestamps []uint32, window uint32) uint32 {
	count := minCount(uint32(len(timestamps)), window)
	if count == 0 {
		return 0
	}

	sorted := slices.Clone(timestamps[uint32(len(timestamps))-count:])
	slices.Sort(sorted)
	return sorted[count/2]
}

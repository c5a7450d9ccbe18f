package levels

import (
	"fmt"
	"math"
)

// SummationLevel converts a desired total sound pressure level across a
// number of incoherently summing sound-field sources into the level each
// source must individually produce. The desired total is converted to
// acoustic intensity, split evenly across the sources, and converted back
// to SPL. For a single channel this is the identity.
func SummationLevel(totalSPL float64, channels int) (float64, error) {
	if channels < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidChannels, channels)
	}
	if channels == 1 {
		return totalSPL, nil
	}
	intensity := math.Pow(10, totalSPL/10) / float64(channels)
	return 10 * math.Log10(intensity), nil
}

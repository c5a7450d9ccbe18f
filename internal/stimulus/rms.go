package stimulus

import (
	"math"

	"github.com/tphakala/simd/f64"
)

// RMS returns the root-mean-square amplitude of sig, or 0 for an empty
// signal.
func RMS(sig []float64) float64 {
	if len(sig) == 0 {
		return 0
	}
	sumSquares := f64.DotProductUnsafe(sig, sig)
	return math.Sqrt(sumSquares / float64(len(sig)))
}

// Gain converts a level in dB to a linear magnitude.
func Gain(db float64) float64 {
	return math.Pow(10, db/20)
}

// normalizeRMS scales sig in place so its RMS sits at target dB FS. A
// signal already at the target, or all-zero, is left untouched.
func normalizeRMS(sig []float64, targetDB float64) {
	r := RMS(sig)
	if r == 0 {
		return
	}
	diff := targetDB - 20*math.Log10(r)
	if diff == 0 {
		return
	}
	f64.Scale(sig, sig, Gain(diff))
}

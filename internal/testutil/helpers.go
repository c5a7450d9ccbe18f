// Package testutil provides reusable test helpers for the threshold
// estimation packages.
package testutil

import (
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	LevelTolerance   = 1e-4
	DBTolerance      = 0.01
)

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// RMSdB returns the root-mean-square amplitude of s in dB full scale.
func RMSdB(s []float64) float64 {
	if len(s) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, v := range s {
		sum += v * v
	}
	return 20 * math.Log10(math.Sqrt(sum/float64(len(s))))
}

// Deinterleave splits a sample-major multi-channel buffer into one slice
// per channel.
func Deinterleave(t *testing.T, buf *audio.FloatBuffer) [][]float64 {
	t.Helper()
	channels := buf.Format.NumChannels
	require.Positive(t, channels, "buffer must have at least one channel")
	require.Zero(t, len(buf.Data)%channels, "data length must be a multiple of the channel count")

	frames := len(buf.Data) / channels
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			out[ch][i] = buf.Data[i*channels+ch]
		}
	}
	return out
}

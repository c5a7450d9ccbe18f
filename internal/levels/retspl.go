// Package levels converts abstract staircase levels into calibrated device
// output levels. The pipeline has three stages: a reference-equivalent
// threshold (RETSPL) correction for the test frequency, a sound-field
// summation correction for the number of presentation channels, and a
// measured calibration offset mapping physical SPL to device level.
package levels

import (
	"errors"
	"fmt"
	"sort"
)

// Common errors returned by the level pipeline.
var (
	// ErrUnknownFrequency indicates a frequency missing from the reference
	// table. The supported set is fixed; a miss is a configuration mismatch
	// upstream, never something to retry.
	ErrUnknownFrequency = errors.New("frequency not in reference table")

	// ErrUncalibrated indicates a device-level conversion was requested
	// before any calibration offset had been computed.
	ErrUncalibrated = errors.New("no calibration offset computed")

	// ErrInvalidChannels indicates a non-positive channel count.
	ErrInvalidChannels = errors.New("channel count must be at least 1")
)

// retspl holds reference-equivalent threshold sound pressure levels for
// binaural listening in a diffuse sound field, from ANSI S3.6 (Table 9a).
// Keys are test frequencies in Hz, values are corrections in dB SPL.
var retspl = map[float64]float64{
	20:    78.1,
	25:    68.7,
	31.5:  59.5,
	40:    51.1,
	50:    44,
	63:    37.5,
	80:    31.5,
	100:   26.5,
	125:   22.1,
	160:   17.9,
	200:   14.4,
	250:   11.4,
	315:   8.4,
	400:   5.8,
	500:   3.8,
	630:   2.1,
	750:   1.2,
	800:   1,
	1000:  0.8,
	1250:  1.9,
	1500:  1,
	1600:  0.5,
	2000:  -1.5,
	2500:  -3.1,
	3000:  -4,
	4000:  -3.8,
	6000:  1.4,
	6300:  2.5,
	8000:  6.8,
	9000:  8.4,
	10000: 9.8,
	11200: 11.5,
	14000: 23.2,
	16000: 43.7,
}

// RETSPL returns the reference-equivalent threshold correction in dB SPL
// for one of the supported test frequencies. No interpolation is performed;
// unsupported frequencies return ErrUnknownFrequency.
func RETSPL(freq float64) (float64, error) {
	v, ok := retspl[freq]
	if !ok {
		return 0, fmt.Errorf("%w: %g Hz", ErrUnknownFrequency, freq)
	}
	return v, nil
}

// Frequencies returns the supported test frequencies in ascending order.
func Frequencies() []float64 {
	freqs := make([]float64, 0, len(retspl))
	for f := range retspl {
		freqs = append(freqs, f)
	}
	sort.Float64s(freqs)
	return freqs
}

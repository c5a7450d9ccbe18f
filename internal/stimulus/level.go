package stimulus

import (
	"fmt"
	"math"

	"github.com/go-audio/audio"
	"github.com/tphakala/simd/f64"
)

// ApplyLevel scales buf by the linear magnitude of db (dB FS) in place.
// If any post-gain sample would exceed full scale the buffer is left
// unchanged and ErrClipping is returned, so the presentation can be
// aborted rather than played distorted.
func ApplyLevel(buf *audio.FloatBuffer, db float64) error {
	g := Gain(db)

	peak := 0.0
	for _, v := range buf.Data {
		if a := math.Abs(v * g); a > peak {
			peak = a
		}
	}
	if peak > 1 {
		return fmt.Errorf("%w: peak %.4f", ErrClipping, peak)
	}

	if len(buf.Data) > 0 {
		f64.Scale(buf.Data, buf.Data, g)
	}
	return nil
}

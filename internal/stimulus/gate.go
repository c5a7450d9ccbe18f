package stimulus

import "math"

// gate applies raised-cosine onset and offset ramps to sig in place,
// leaving a flat unity sustain region between them. The rising ramp is
// (cos(linspace(pi, 2*pi, ramp)) + 1) / 2 and the falling ramp is its
// time-reverse. Signals shorter than two ramps get ramps truncated to
// half the signal length.
func gate(sig []float64, ramp int) {
	if ramp*2 > len(sig) {
		ramp = len(sig) / 2
	}
	if ramp < 1 {
		return
	}
	if ramp == 1 {
		sig[0] = 0
		sig[len(sig)-1] = 0
		return
	}
	for i := 0; i < ramp; i++ {
		w := (math.Cos(math.Pi+math.Pi*float64(i)/float64(ramp-1)) + 1) / 2
		sig[i] *= w
		sig[len(sig)-1-i] *= w
	}
}

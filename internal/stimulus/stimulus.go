// Package stimulus synthesises the frequency-modulated warble tones
// presented during the task. Warble tones reduce standing-wave artifacts
// in sound-field testing; each presentation channel gets an independent
// random starting phase so the channels do not sum coherently at the
// listening position.
package stimulus

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/go-audio/audio"
)

// Defaults for stimulus synthesis. The target RMS matches the level the
// system is calibrated at: a mono 1 kHz warble tone scaled to -40 dB FS.
const (
	DefaultRampDuration = 0.04 // seconds per gate side
	DefaultTargetRMS    = -40  // dB FS
	DefaultModRate      = 5    // Hz
	DefaultModDepth     = 5    // percent of the carrier frequency
	DefaultSampleRate   = 48000
)

// phaseSeed seeds the package-level phase source so phase selection is
// reproducible across runs.
const phaseSeed = 217

// Common errors returned by the synthesizer.
var (
	// ErrInvalidParams indicates invalid synthesis parameters.
	ErrInvalidParams = errors.New("invalid stimulus parameters")

	// ErrTooManyChannels indicates the channel count exceeds the phase
	// candidate set, which is sampled without replacement.
	ErrTooManyChannels = errors.New("channel count exceeds phase candidate set")

	// ErrClipping indicates the leveled signal exceeds full scale. A
	// clipped presentation must be aborted, never silently attenuated.
	ErrClipping = errors.New("signal exceeds full scale after leveling")
)

// phaseCandidates are the vetted starting phases, in degrees. Channels
// draw from this set without replacement.
var phaseCandidates = []float64{0, 40, 80, 120, 150, -40, -80, -120, -150}

// defaultRand is the package-level phase source, used when Params.Rand is
// nil. The core is single-threaded per run, so an unlocked source is fine.
var defaultRand = rand.New(rand.NewSource(phaseSeed))

// MaxChannels is the largest supported presentation channel count, bounded
// by the phase candidate set.
const MaxChannels = 9

// Params describes one warble-tone stimulus.
type Params struct {
	// Duration of the tone in seconds. Non-positive durations produce an
	// empty buffer.
	Duration float64

	// SampleRate in samples per second.
	SampleRate int

	// CenterFreq is the carrier frequency in Hz.
	CenterFreq float64

	// ModRate is the modulation rate in Hz.
	ModRate float64

	// ModDepth is the modulation depth as a percentage of the carrier.
	ModDepth float64

	// Channels is the number of presentation channels, 1..MaxChannels.
	Channels int

	// RampDuration is the length of each raised-cosine gate side in
	// seconds. Zero uses DefaultRampDuration.
	RampDuration float64

	// TargetRMS is the per-channel RMS normalisation target in dB FS.
	// Zero uses DefaultTargetRMS.
	TargetRMS float64

	// Rand supplies the starting-phase selection. Nil uses the package
	// default, which is deterministically seeded. Tests inject a fixed
	// source here.
	Rand *rand.Rand
}

func (p *Params) validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidParams)
	}
	if p.CenterFreq <= 0 {
		return fmt.Errorf("%w: center frequency must be positive", ErrInvalidParams)
	}
	if p.ModRate <= 0 {
		return fmt.Errorf("%w: modulation rate must be positive", ErrInvalidParams)
	}
	if p.ModDepth < 0 {
		return fmt.Errorf("%w: modulation depth must not be negative", ErrInvalidParams)
	}
	if p.Channels < 1 {
		return fmt.Errorf("%w: channel count must be at least 1", ErrInvalidParams)
	}
	if p.RampDuration < 0 {
		return fmt.Errorf("%w: ramp duration must not be negative", ErrInvalidParams)
	}
	return nil
}

func (p *Params) rampSamples() int {
	ramp := p.RampDuration
	if ramp == 0 {
		ramp = DefaultRampDuration
	}
	return int(float64(p.SampleRate) * ramp)
}

func (p *Params) targetRMS() float64 {
	if p.TargetRMS == 0 {
		return DefaultTargetRMS
	}
	return p.TargetRMS
}

func (p *Params) rand() *rand.Rand {
	if p.Rand != nil {
		return p.Rand
	}
	return defaultRand
}

// Synthesize generates a multi-channel warble tone. Each channel is
// synthesised with its own starting phase, gated with raised-cosine onset
// and offset ramps, and normalised to the target RMS. The channels are
// stacked sample-major (interleaved) into the returned buffer.
func Synthesize(p Params) (*audio.FloatBuffer, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	format := &audio.Format{NumChannels: p.Channels, SampleRate: p.SampleRate}

	n := int(p.Duration * float64(p.SampleRate))
	if n <= 0 {
		return &audio.FloatBuffer{Format: format, Data: []float64{}}, nil
	}

	phases, err := randomPhases(p.Channels, p.rand())
	if err != nil {
		return nil, err
	}

	data := make([]float64, n*p.Channels)
	for ch := 0; ch < p.Channels; ch++ {
		sig := warble(n, p.SampleRate, p.CenterFreq, p.ModRate, p.ModDepth, phases[ch])
		gate(sig, p.rampSamples())
		normalizeRMS(sig, p.targetRMS())
		for i, v := range sig {
			data[i*p.Channels+ch] = v
		}
	}

	return &audio.FloatBuffer{Format: format, Data: data}, nil
}

// randomPhases draws channel starting phases, in radians, without
// replacement from the vetted candidate set.
func randomPhases(channels int, rng *rand.Rand) ([]float64, error) {
	if channels > len(phaseCandidates) {
		return nil, fmt.Errorf("%w: %d channels, %d candidates",
			ErrTooManyChannels, channels, len(phaseCandidates))
	}
	perm := rng.Perm(len(phaseCandidates))
	out := make([]float64, channels)
	for i := range out {
		out[i] = phaseCandidates[perm[i]] * math.Pi / 180
	}
	return out, nil
}

// warble synthesises one channel of a frequency-modulated tone:
//
//	y(t) = sin(wc*t + (B/wd)*(sin(wd*t - phi) + 1))
//
// where wc and wd are the carrier and modulator angular frequencies and B
// is the modulation index implied by the depth percentage.
func warble(n, fs int, fc, modRate, modDepth, phi float64) []float64 {
	wc := 2 * math.Pi * fc
	wd := 2 * math.Pi * modRate
	b := (modDepth / 100) * wc

	y := make([]float64, n)
	for i := range y {
		t := float64(i) / float64(fs)
		y[i] = math.Sin(wc*t + (b/wd)*(math.Sin(wd*t-phi)+1))
	}
	return y
}

package peat

import (
	"math/rand"

	"github.com/go-audio/audio"

	"github.com/mooretm/peat/internal/levels"
	"github.com/mooretm/peat/internal/staircase"
	"github.com/mooretm/peat/internal/stimulus"
)

// Session runs one subject through the configured test frequencies. Each
// frequency gets a fresh staircase; the session owns the trial history for
// the current frequency run and hands it outward once the run completes.
//
// A Session is owned by a single trial loop and must not be used
// concurrently.
type Session struct {
	cfg    Config
	cal    levels.Calibration
	stair  *staircase.Staircase
	queue  []float64
	freq   float64
	rng    *rand.Rand
	trials []Trial

	// Levels computed for the pending trial, attached to the trial record
	// when the response arrives.
	lastDesired float64
	lastDevice  float64
}

// NewSession validates cfg and creates a session. If cfg carries a stored
// calibration measurement (non-zero SLMReading), the calibration offset is
// computed immediately; otherwise level conversions fail with
// ErrUncalibrated until Calibrate is called.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	freqs := make([]float64, len(cfg.TestFrequencies))
	copy(freqs, cfg.TestFrequencies)
	steps := make([]float64, len(cfg.StepSizes))
	copy(steps, cfg.StepSizes)
	cfg.TestFrequencies = freqs
	cfg.StepSizes = steps

	s := &Session{cfg: cfg, queue: freqs}
	if cfg.SLMReading != 0 {
		s.cal.Offset(cfg.SLMReading, cfg.CalLevel)
	}
	return s, nil
}

// SetRand injects a deterministic random source for starting-phase
// selection. Nil restores the package default.
func (s *Session) SetRand(rng *rand.Rand) {
	s.rng = rng
}

// Config returns a copy of the session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Calibrate records a calibration measurement: the SPL read off the sound
// level meter while the calibration stimulus played at playbackLevel dB
// FS. Returns the stored offset.
func (s *Session) Calibrate(slmReading, playbackLevel float64) float64 {
	s.cfg.SLMReading = slmReading
	s.cfg.CalLevel = playbackLevel
	return s.cal.Offset(slmReading, playbackLevel)
}

// Calibrated reports whether a calibration offset is available.
func (s *Session) Calibrated() bool {
	return s.cal.Calibrated()
}

// ToDeviceLevel converts a desired physical SPL into a device level using
// the calibration offset.
func (s *Session) ToDeviceLevel(desiredSPL float64) (float64, error) {
	return s.cal.ToDeviceLevel(desiredSPL)
}

// NextFrequency advances to the next test frequency and starts a fresh
// staircase for it. It reports false once all frequencies are exhausted.
func (s *Session) NextFrequency() (float64, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	s.freq = s.queue[0]
	s.queue = s.queue[1:]

	// Config was validated at construction; a fresh staircase from the
	// same parameters cannot fail.
	stair, err := staircase.New(s.cfg.staircaseConfig())
	if err != nil {
		panic("peat: validated staircase config rejected: " + err.Error())
	}
	s.stair = stair
	s.trials = nil
	s.lastDesired = 0
	s.lastDevice = 0
	return s.freq, true
}

// Frequency returns the frequency currently under test.
func (s *Session) Frequency() float64 {
	return s.freq
}

// Remaining returns the number of frequencies not yet started.
func (s *Session) Remaining() int {
	return len(s.queue)
}

// CurrentLevel returns the staircase level for the next trial.
func (s *Session) CurrentLevel() float64 {
	return s.stair.CurrentLevel()
}

// Running reports whether the current frequency run is still collecting
// trials.
func (s *Session) Running() bool {
	return s.stair != nil && s.stair.Running()
}

// AddResponse feeds one trial outcome (+1 correct, -1 incorrect) to the
// staircase and appends the flattened trial record, carrying the physical
// levels computed by the preceding PresentationLevel call.
func (s *Session) AddResponse(outcome int) error {
	if err := s.stair.AddResponse(outcome); err != nil {
		return err
	}
	t, _ := s.stair.LastTrial()
	s.trials = append(s.trials, Trial{
		Index:       t.Index,
		Frequency:   s.freq,
		Level:       t.Level,
		Response:    t.Response,
		Reversal:    t.Reversal,
		DesiredSPL:  s.lastDesired,
		DeviceLevel: s.lastDevice,
	})
	return nil
}

// ReversalHistory returns the levels at which scored reversals occurred
// in the current frequency run.
func (s *Session) ReversalHistory() []float64 {
	return s.stair.Reversals()
}

// Threshold estimates the threshold for the current frequency run as the
// mean of the last n reversal levels.
func (s *Session) Threshold(n int) (float64, error) {
	return s.stair.Threshold(n)
}

// PresentationLevel computes the per-channel desired SPL and the
// calibrated device level for the pending trial, from the current
// staircase level, the current test frequency and the configured channel
// count. The values are remembered and attached to the trial record when
// the response is recorded.
func (s *Session) PresentationLevel() (desiredSPL, deviceLevel float64, err error) {
	desiredSPL, deviceLevel, err = s.cal.PresentationLevel(s.stair.CurrentLevel(), s.freq, s.cfg.Channels)
	if err != nil {
		return 0, 0, err
	}
	s.lastDesired = desiredSPL
	s.lastDevice = deviceLevel
	return desiredSPL, deviceLevel, nil
}

// Synthesize generates the stimulus for the current test frequency.
func (s *Session) Synthesize() (*audio.FloatBuffer, error) {
	return stimulus.Synthesize(stimulus.Params{
		Duration:   s.cfg.Duration,
		SampleRate: s.cfg.SampleRate,
		CenterFreq: s.freq,
		ModRate:    s.cfg.ModRate,
		ModDepth:   s.cfg.ModDepth,
		Channels:   s.cfg.Channels,
		TargetRMS:  s.cfg.TargetRMS,
		Rand:       s.rng,
	})
}

// Trials returns the flattened trial history for the current frequency
// run, with the physical levels that were in effect when each trial was
// presented.
func (s *Session) Trials() []Trial {
	out := make([]Trial, len(s.trials))
	copy(out, s.trials)
	return out
}

// LastTrial returns the most recently recorded trial.
func (s *Session) LastTrial() (Trial, bool) {
	if len(s.trials) == 0 {
		return Trial{}, false
	}
	return s.trials[len(s.trials)-1], true
}

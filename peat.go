package peat

import (
	"fmt"
	"math/rand"

	"github.com/go-audio/audio"

	"github.com/mooretm/peat/internal/levels"
	"github.com/mooretm/peat/internal/staircase"
	"github.com/mooretm/peat/internal/stimulus"
)

// Errors surfaced through the public API. Nothing here is retried
// automatically: adaptive-testing correctness requires every trial's
// outcome to be deterministic given its inputs, and a silent retry would
// corrupt the reversal sequence. All errors propagate to the caller,
// which decides user-facing behaviour.
var (
	// ErrInvalidConfig indicates invalid session configuration.
	ErrInvalidConfig = staircase.ErrInvalidConfig

	// ErrUnknownFrequency indicates a test frequency outside the fixed
	// reference-table set.
	ErrUnknownFrequency = levels.ErrUnknownFrequency

	// ErrUncalibrated indicates a device-level conversion before any
	// calibration offset was computed.
	ErrUncalibrated = levels.ErrUncalibrated

	// ErrClipping indicates the leveled signal exceeds full scale and the
	// presentation must be aborted.
	ErrClipping = stimulus.ErrClipping
)

// MaxChannels is the largest supported presentation channel count.
const MaxChannels = stimulus.MaxChannels

// Config holds the session parameters consumed at construction. All
// fields are validated once by Validate; nothing is re-checked per trial.
type Config struct {
	// Subject and Condition identify the run in persisted records.
	Subject   string `json:"subject"`
	Condition string `json:"condition"`

	// TestFrequencies are the frequencies to test, in order. Each must be
	// one of the supported reference-table frequencies.
	TestFrequencies []float64 `json:"test_freqs"`

	// Channels is the number of sound-field presentation channels.
	Channels int `json:"num_stim_chans"`

	// Duration is the stimulus duration in seconds.
	Duration float64 `json:"duration"`

	// SampleRate in samples per second.
	SampleRate int `json:"sample_rate"`

	// ModRate and ModDepth shape the warble tone: modulation rate in Hz
	// and depth as a percentage of the carrier.
	ModRate  float64 `json:"mod_rate"`
	ModDepth float64 `json:"mod_depth"`

	// TargetRMS is the synthesis RMS target in dB FS.
	TargetRMS float64 `json:"target_rms"`

	// StartLevel is the staircase level on the first trial of each
	// frequency run, in dB.
	StartLevel float64 `json:"starting_level"`

	// StepSizes are the staircase step magnitudes, used in order; the
	// last repeats once exhausted.
	StepSizes []float64 `json:"step_sizes"`

	// NUp and NDown define the tracking rule (default 1-up/2-down).
	NUp   int `json:"n_up"`
	NDown int `json:"n_down"`

	// TargetReversals terminates each frequency run.
	TargetReversals int `json:"num_reversals"`

	// RapidDescend enables the 1-up/1-down bootstrap phase.
	RapidDescend bool `json:"rapid_descend"`

	// MinLevel and MaxLevel clamp the staircase level.
	MinLevel float64 `json:"min_level"`
	MaxLevel float64 `json:"max_level"`

	// SLMReading and CalLevel describe the stored calibration
	// measurement: the SPL read off the sound level meter while the
	// calibration stimulus played at CalLevel dB FS. Both zero means no
	// calibration has been performed.
	SLMReading float64 `json:"slm_reading"`
	CalLevel   float64 `json:"cal_level_db"`
}

// DefaultConfig returns the standard session parameters: a 1-up/2-down
// staircase starting at 30 dB with 10/5/2 dB steps, five reversals, rapid
// descend enabled, and a 2-second 5%/5 Hz warble tone at -40 dB FS RMS.
func DefaultConfig() Config {
	return Config{
		TestFrequencies: []float64{500, 1000, 2000, 4000},
		Channels:        1,
		Duration:        2,
		SampleRate:      stimulus.DefaultSampleRate,
		ModRate:         stimulus.DefaultModRate,
		ModDepth:        stimulus.DefaultModDepth,
		TargetRMS:       stimulus.DefaultTargetRMS,
		StartLevel:      30,
		StepSizes:       []float64{10, 5, 2},
		NUp:             1,
		NDown:           2,
		TargetReversals: 5,
		RapidDescend:    true,
		MinLevel:        -50,
		MaxLevel:        90,
		CalLevel:        -30,
	}
}

// Validate checks the session configuration, including that every test
// frequency is in the reference table and the staircase parameters are
// well formed.
func (c *Config) Validate() error {
	if len(c.TestFrequencies) == 0 {
		return fmt.Errorf("%w: no test frequencies", ErrInvalidConfig)
	}
	for _, f := range c.TestFrequencies {
		if _, err := levels.RETSPL(f); err != nil {
			return err
		}
	}
	if c.Channels < 1 || c.Channels > MaxChannels {
		return fmt.Errorf("%w: channels must be 1-%d, got %d", ErrInvalidConfig, MaxChannels, c.Channels)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidConfig)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidConfig)
	}
	stairCfg := c.staircaseConfig()
	return stairCfg.Validate()
}

func (c *Config) staircaseConfig() staircase.Config {
	return staircase.Config{
		StartLevel:      c.StartLevel,
		StepSizes:       c.StepSizes,
		NUp:             c.NUp,
		NDown:           c.NDown,
		TargetReversals: c.TargetReversals,
		RapidDescend:    c.RapidDescend,
		MinLevel:        c.MinLevel,
		MaxLevel:        c.MaxLevel,
	}
}

// Trial is one observation within a frequency run, flattened for
// persistence.
type Trial struct {
	// Index is the 1-based trial number within the frequency run.
	Index int

	// Frequency is the test frequency in Hz.
	Frequency float64

	// Level is the staircase level presented on this trial.
	Level float64

	// Response is +1 for correct, -1 for incorrect.
	Response int

	// Reversal reports whether this trial recorded a scored reversal.
	Reversal bool

	// DesiredSPL is the per-channel physical level requested for this
	// trial, after RETSPL and sound-field correction.
	DesiredSPL float64

	// DeviceLevel is the device-native level after calibration.
	DeviceLevel float64
}

// SummationLevel converts a desired total SPL across incoherently summing
// sources into the per-channel level. Identity for a single channel.
func SummationLevel(totalSPL float64, channels int) (float64, error) {
	return levels.SummationLevel(totalSPL, channels)
}

// RETSPL returns the reference-equivalent threshold correction for one of
// the supported test frequencies.
func RETSPL(freq float64) (float64, error) {
	return levels.RETSPL(freq)
}

// Frequencies returns the supported test frequencies in ascending order.
func Frequencies() []float64 {
	return levels.Frequencies()
}

// ApplyLevel scales buf to a device level in dB FS, returning ErrClipping
// (with buf unchanged) if the result would exceed full scale.
func ApplyLevel(buf *audio.FloatBuffer, db float64) error {
	return stimulus.ApplyLevel(buf, db)
}

// Synthesize generates a multi-channel warble tone outside of any
// session, e.g. for calibration stimuli. rng may be nil for the
// deterministic package default.
func Synthesize(duration float64, sampleRate int, centerFreq, modRate, modDepth float64, channels int, rng *rand.Rand) (*audio.FloatBuffer, error) {
	return stimulus.Synthesize(stimulus.Params{
		Duration:   duration,
		SampleRate: sampleRate,
		CenterFreq: centerFreq,
		ModRate:    modRate,
		ModDepth:   modDepth,
		Channels:   channels,
		Rand:       rng,
	})
}

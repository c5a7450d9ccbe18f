// Package staircase implements the adaptive level-tracking procedure used
// for threshold estimation. The default 1-up/2-down rule tracks the level
// where the probability of a correct forced-choice response is 70.7%
// (Levitt, 1971): at convergence, down steps (two consecutive correct) and
// up steps (one incorrect) occur with equal long-run frequency only at
// that percentile.
//
// An optional rapid-descend bootstrap substitutes a 1-up/1-down rule until
// the first direction flip so the track approaches threshold quickly. The
// bootstrap flip is not scored as a reversal, so the final estimate is
// unbiased by it.
package staircase

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Common errors returned by the staircase.
var (
	// ErrInvalidConfig indicates invalid construction parameters.
	// Configuration is rejected up front, never discovered mid-run.
	ErrInvalidConfig = errors.New("invalid staircase configuration")

	// ErrInvalidOutcome indicates a response other than +1 or -1.
	ErrInvalidOutcome = errors.New("outcome must be +1 or -1")

	// ErrComplete indicates a response was added after the target number
	// of reversals had been reached.
	ErrComplete = errors.New("staircase already complete")

	// ErrNoReversals indicates a threshold was requested before any
	// reversal had been recorded.
	ErrNoReversals = errors.New("no reversals recorded")
)

// Direction of the most recent level change.
type Direction int

const (
	// None means the level has not changed yet, or did not change on the
	// most recent trial that moved it.
	None Direction = iota

	// Up means the most recent change increased the level.
	Up

	// Down means the most recent change decreased the level.
	Down
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

// Config holds staircase construction parameters.
type Config struct {
	// StartLevel is the level presented on the first trial, in dB.
	StartLevel float64

	// StepSizes are the step magnitudes used in order, one per scored
	// reversal. The last value is reused once the list is exhausted.
	StepSizes []float64

	// NUp is the number of consecutive incorrect responses required for
	// an up step.
	NUp int

	// NDown is the number of consecutive correct responses required for
	// a down step.
	NDown int

	// TargetReversals is the number of scored reversals after which the
	// staircase completes.
	TargetReversals int

	// RapidDescend enables the 1-up/1-down bootstrap phase, active until
	// the first direction flip.
	RapidDescend bool

	// MinLevel and MaxLevel clamp the level after every update.
	MinLevel float64
	MaxLevel float64
}

// Validate checks the configuration. Step sizes must be positive, the
// up/down counts and reversal target at least one, and the level bounds
// ordered.
func (c *Config) Validate() error {
	if len(c.StepSizes) == 0 {
		return fmt.Errorf("%w: no step sizes", ErrInvalidConfig)
	}
	for i, s := range c.StepSizes {
		if s <= 0 {
			return fmt.Errorf("%w: step size %d is %g, must be positive", ErrInvalidConfig, i, s)
		}
	}
	if c.NUp < 1 {
		return fmt.Errorf("%w: n-up must be at least 1", ErrInvalidConfig)
	}
	if c.NDown < 1 {
		return fmt.Errorf("%w: n-down must be at least 1", ErrInvalidConfig)
	}
	if c.TargetReversals < 1 {
		return fmt.Errorf("%w: target reversals must be at least 1", ErrInvalidConfig)
	}
	if c.MaxLevel <= c.MinLevel {
		return fmt.Errorf("%w: max level %g must exceed min level %g", ErrInvalidConfig, c.MaxLevel, c.MinLevel)
	}
	if c.StartLevel < c.MinLevel || c.StartLevel > c.MaxLevel {
		return fmt.Errorf("%w: start level %g outside [%g, %g]", ErrInvalidConfig, c.StartLevel, c.MinLevel, c.MaxLevel)
	}
	return nil
}

// Trial is one observation in a run.
type Trial struct {
	// Index is the 1-based trial number within the run.
	Index int

	// Level is the level that was presented on this trial.
	Level float64

	// Response is +1 for a correct response, -1 for incorrect.
	Response int

	// Reversal reports whether this trial recorded a scored reversal.
	Reversal bool
}

// Staircase is the adaptive tracking state machine. It is owned by a
// single trial loop; at most one AddResponse call may be in flight at a
// time. A run is abandoned by discarding the value.
type Staircase struct {
	cfg          Config
	level        float64
	stepIndex    int
	direction    Direction
	correct      int
	incorrect    int
	reversals    []float64
	trials       []Trial
	rapidDescend bool
	running      bool
}

// New creates a staircase at the configured start level. The configuration
// is validated once here and never re-checked per trial.
func New(cfg Config) (*Staircase, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	steps := make([]float64, len(cfg.StepSizes))
	copy(steps, cfg.StepSizes)
	cfg.StepSizes = steps

	return &Staircase{
		cfg:          cfg,
		level:        cfg.StartLevel,
		rapidDescend: cfg.RapidDescend,
		running:      true,
	}, nil
}

// AddResponse records the outcome of one trial (+1 correct, -1 incorrect)
// and updates the level according to the active tracking rule. While the
// rapid-descend bootstrap is active a 1-up/1-down rule substitutes for the
// configured rule; the first direction flip ends the bootstrap without
// scoring a reversal. Every later flip appends the pre-change level to the
// reversal history and advances to the next step size. The staircase
// completes on the trial that records the final required reversal.
func (s *Staircase) AddResponse(outcome int) error {
	if outcome != 1 && outcome != -1 {
		return fmt.Errorf("%w: got %d", ErrInvalidOutcome, outcome)
	}
	if !s.running {
		return ErrComplete
	}

	presented := s.level

	if outcome > 0 {
		s.correct++
		s.incorrect = 0
	} else {
		s.incorrect++
		s.correct = 0
	}

	nUp, nDown := s.cfg.NUp, s.cfg.NDown
	if s.rapidDescend {
		nUp, nDown = 1, 1
	}

	dir := None
	switch {
	case s.correct >= nDown:
		dir = Down
		s.level -= s.step()
		s.correct = 0
	case s.incorrect >= nUp:
		dir = Up
		s.level += s.step()
		s.incorrect = 0
	}

	if s.level < s.cfg.MinLevel {
		s.level = s.cfg.MinLevel
	}
	if s.level > s.cfg.MaxLevel {
		s.level = s.cfg.MaxLevel
	}

	reversal := false
	if dir != None {
		if s.direction != None && dir != s.direction {
			if s.rapidDescend {
				// The bootstrap flip only ends rapid descend.
				s.rapidDescend = false
			} else {
				reversal = true
				s.reversals = append(s.reversals, presented)
				if s.stepIndex < len(s.cfg.StepSizes)-1 {
					s.stepIndex++
				}
			}
		}
		s.direction = dir
	}

	s.trials = append(s.trials, Trial{
		Index:    len(s.trials) + 1,
		Level:    presented,
		Response: outcome,
		Reversal: reversal,
	})

	if len(s.reversals) >= s.cfg.TargetReversals {
		s.running = false
	}
	return nil
}

func (s *Staircase) step() float64 {
	return s.cfg.StepSizes[s.stepIndex]
}

// CurrentLevel returns the level to present on the next trial.
func (s *Staircase) CurrentLevel() float64 {
	return s.level
}

// Running reports whether the staircase is still collecting trials. It
// turns false exactly once, on the trial that records the final reversal.
func (s *Staircase) Running() bool {
	return s.running
}

// Direction returns the direction of the most recent level change.
func (s *Staircase) Direction() Direction {
	return s.direction
}

// RapidDescend reports whether the bootstrap phase is still active.
func (s *Staircase) RapidDescend() bool {
	return s.rapidDescend
}

// Reversals returns the levels at which scored reversals occurred, in
// order of occurrence.
func (s *Staircase) Reversals() []float64 {
	out := make([]float64, len(s.reversals))
	copy(out, s.reversals)
	return out
}

// Trials returns the trial history for this run.
func (s *Staircase) Trials() []Trial {
	out := make([]Trial, len(s.trials))
	copy(out, s.trials)
	return out
}

// LastTrial returns the most recent trial record.
func (s *Staircase) LastTrial() (Trial, bool) {
	if len(s.trials) == 0 {
		return Trial{}, false
	}
	return s.trials[len(s.trials)-1], true
}

// TrialCount returns the number of responses recorded so far.
func (s *Staircase) TrialCount() int {
	return len(s.trials)
}

// Threshold estimates the tracked threshold as the mean of the last n
// reversal levels. When fewer than n reversals have been recorded, all of
// them are used.
func (s *Staircase) Threshold(n int) (float64, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: reversal count must be at least 1", ErrInvalidConfig)
	}
	if len(s.reversals) == 0 {
		return 0, ErrNoReversals
	}
	if n > len(s.reversals) {
		n = len(s.reversals)
	}
	return stat.Mean(s.reversals[len(s.reversals)-n:], nil), nil
}

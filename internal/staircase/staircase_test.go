package staircase

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// defaultConfig is the standard clinical configuration used throughout
// these tests.
func defaultConfig() Config {
	return Config{
		StartLevel:      30,
		StepSizes:       []float64{10, 5, 2},
		NUp:             1,
		NDown:           2,
		TargetReversals: 5,
		RapidDescend:    true,
		MinLevel:        -50,
		MaxLevel:        90,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"valid", func(c *Config) {}, true},
		{"no_step_sizes", func(c *Config) { c.StepSizes = nil }, false},
		{"zero_step", func(c *Config) { c.StepSizes = []float64{10, 0, 2} }, false},
		{"negative_step", func(c *Config) { c.StepSizes = []float64{-5} }, false},
		{"zero_n_up", func(c *Config) { c.NUp = 0 }, false},
		{"zero_n_down", func(c *Config) { c.NDown = 0 }, false},
		{"zero_target_reversals", func(c *Config) { c.TargetReversals = 0 }, false},
		{"inverted_bounds", func(c *Config) { c.MinLevel = 90; c.MaxLevel = -50 }, false},
		{"equal_bounds", func(c *Config) { c.MinLevel = 10; c.MaxLevel = 10 }, false},
		{"start_above_max", func(c *Config) { c.StartLevel = 95 }, false},
		{"start_below_min", func(c *Config) { c.StartLevel = -60 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			if tt.wantOK {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestAddResponseInvalidOutcome(t *testing.T) {
	s, err := New(defaultConfig())
	require.NoError(t, err)

	for _, outcome := range []int{0, 2, -2, 100} {
		assert.ErrorIs(t, s.AddResponse(outcome), ErrInvalidOutcome, "outcome %d", outcome)
	}
	assert.Equal(t, 0, s.TrialCount(), "invalid outcomes must not record trials")
}

// TestRapidDescendSequence walks through the canonical response sequence:
// the bootstrap phase steps on every response, the first direction flip
// deactivates it without scoring a reversal, and afterwards two
// consecutive correct responses are required to step down.
func TestRapidDescendSequence(t *testing.T) {
	s, err := New(defaultConfig())
	require.NoError(t, err)

	// First correct response: rapid-descend 1-down with the first step.
	require.NoError(t, s.AddResponse(+1))
	assert.Equal(t, 20.0, s.CurrentLevel())
	assert.True(t, s.RapidDescend())

	steps := []struct {
		outcome       int
		wantLevel     float64
		wantRapid     bool
		wantReversals int
	}{
		{-1, 30, false, 0}, // flip ends the bootstrap, unscored
		{+1, 30, false, 0}, // one correct is no longer enough
		{+1, 20, false, 1}, // two correct step down; flip scored at 30
		{-1, 25, false, 2}, // up with next step size 5; scored at 20
		{+1, 25, false, 2},
		{+1, 23, false, 3}, // down with final step size 2; scored at 25
		{-1, 25, false, 4}, // scored at 23; step size pinned at 2
	}
	for i, step := range steps {
		require.NoError(t, s.AddResponse(step.outcome), "trial %d", i+2)
		assert.Equal(t, step.wantLevel, s.CurrentLevel(), "level after trial %d", i+2)
		assert.Equal(t, step.wantRapid, s.RapidDescend(), "rapid flag after trial %d", i+2)
		assert.Len(t, s.Reversals(), step.wantReversals, "reversals after trial %d", i+2)
	}

	assert.Equal(t, []float64{30, 20, 25, 23}, s.Reversals())
	assert.True(t, s.Running(), "four reversals of five must not complete the run")
}

// TestTermination verifies completion happens on the exact trial that
// records the final required reversal, and never before.
func TestTermination(t *testing.T) {
	cfg := defaultConfig()
	cfg.TargetReversals = 3
	s, err := New(cfg)
	require.NoError(t, err)

	// Alternate down/down/up after the bootstrap to generate one scored
	// reversal per direction flip.
	responses := []int{+1, -1, +1, +1, -1, +1, +1}
	for i, outcome := range responses {
		assert.True(t, s.Running(), "must still be running before trial %d", i+1)
		require.NoError(t, s.AddResponse(outcome))
	}

	assert.False(t, s.Running())
	assert.Len(t, s.Reversals(), 3)

	last, ok := s.LastTrial()
	require.True(t, ok)
	assert.True(t, last.Reversal, "final trial must carry the completing reversal")

	assert.ErrorIs(t, s.AddResponse(+1), ErrComplete)
}

// TestLevelStaysClamped fuzzes response sequences and checks the level
// never leaves the configured bounds.
func TestLevelStaysClamped(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		cfg := defaultConfig()
		cfg.MinLevel = -20
		cfg.MaxLevel = 40
		cfg.TargetReversals = 100 // keep it running
		s, err := New(cfg)
		require.NoError(t, err)

		for trial := 0; trial < 200 && s.Running(); trial++ {
			outcome := 1
			if rng.Intn(2) == 0 {
				outcome = -1
			}
			require.NoError(t, s.AddResponse(outcome))
			assert.GreaterOrEqual(t, s.CurrentLevel(), cfg.MinLevel)
			assert.LessOrEqual(t, s.CurrentLevel(), cfg.MaxLevel)
		}
	}
}

func TestStepSizePinnedAtLast(t *testing.T) {
	cfg := defaultConfig()
	cfg.StepSizes = []float64{10}
	cfg.TargetReversals = 10
	s, err := New(cfg)
	require.NoError(t, err)

	// Alternating responses after the bootstrap flip keep reversing with
	// the single (pinned) step size.
	require.NoError(t, s.AddResponse(+1)) // 20
	require.NoError(t, s.AddResponse(-1)) // 30, bootstrap over
	require.NoError(t, s.AddResponse(+1))
	require.NoError(t, s.AddResponse(+1)) // 20, reversal
	require.NoError(t, s.AddResponse(-1)) // 30, reversal
	require.NoError(t, s.AddResponse(+1))
	require.NoError(t, s.AddResponse(+1)) // 20, reversal

	assert.Equal(t, 20.0, s.CurrentLevel())
	assert.Equal(t, []float64{30, 20, 30}, s.Reversals())
}

func TestTrialHistory(t *testing.T) {
	s, err := New(defaultConfig())
	require.NoError(t, err)

	require.NoError(t, s.AddResponse(+1))
	require.NoError(t, s.AddResponse(-1))

	trials := s.Trials()
	require.Len(t, trials, 2)
	assert.Equal(t, Trial{Index: 1, Level: 30, Response: 1, Reversal: false}, trials[0])
	assert.Equal(t, Trial{Index: 2, Level: 20, Response: -1, Reversal: false}, trials[1])
}

func TestThreshold(t *testing.T) {
	s, err := New(defaultConfig())
	require.NoError(t, err)

	_, err = s.Threshold(5)
	assert.ErrorIs(t, err, ErrNoReversals)

	// Produce the reversal set {30, 20, 25, 23} from the canonical
	// sequence.
	for _, outcome := range []int{+1, -1, +1, +1, -1, +1, +1, -1} {
		require.NoError(t, s.AddResponse(outcome))
	}

	got, err := s.Threshold(2)
	require.NoError(t, err)
	assert.InDelta(t, 24.0, got, 1e-12) // mean of 25, 23

	// More than recorded uses everything.
	got, err = s.Threshold(10)
	require.NoError(t, err)
	assert.InDelta(t, 24.5, got, 1e-12) // mean of 30, 20, 25, 23

	_, err = s.Threshold(0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "up", Up.String())
	assert.Equal(t, "down", Down.String())
}

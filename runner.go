package peat

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/go-audio/audio"
)

// ErrNoResponse indicates the responder returned an interval outside 1-2.
var ErrNoResponse = errors.New("response must be interval 1 or 2")

// Presenter presents the two observation intervals of one trial, playing
// buf during interval stim (1 or 2) and leaving the other interval
// silent. Implementations own interval timing and any visual cues.
type Presenter interface {
	Present(ctx context.Context, buf *audio.FloatBuffer, stim int) error
}

// Responder collects which interval the listener chose (1 or 2). It
// blocks until a response is available or the context is cancelled.
type Responder interface {
	Interval(ctx context.Context, trial int) (int, error)
}

// Recorder persists one trial record. Records arrive in trial order,
// exactly once each.
type Recorder interface {
	Record(Trial) error
}

// RunObserver is notified as the runner advances. All methods are
// optional; a nil observer is valid.
type RunObserver interface {
	FrequencyStarted(freq float64, remaining int)
	FrequencyDone(freq float64, threshold float64)
}

// Runner drives the turn-based 2IAFC trial loop: level pipeline,
// synthesis, presentation, response collection, staircase update,
// persistence. Trials never overlap; the next one starts only after the
// previous response has been recorded.
type Runner struct {
	Session   *Session
	Presenter Presenter
	Responder Responder
	Recorder  Recorder

	// Rand assigns the stimulus interval. Nil uses an unseeded source.
	Rand *rand.Rand

	// Observer receives progress callbacks. May be nil.
	Observer RunObserver
}

// Run tests every remaining frequency in the session, one staircase each.
// It returns the first error from a collaborator or from the level
// pipeline; a clipped presentation aborts the run with ErrClipping.
func (r *Runner) Run(ctx context.Context) error {
	rng := r.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	trial := 0
	for {
		freq, ok := r.Session.NextFrequency()
		if !ok {
			return nil
		}
		if r.Observer != nil {
			r.Observer.FrequencyStarted(freq, r.Session.Remaining())
		}

		for r.Session.Running() {
			if err := ctx.Err(); err != nil {
				return err
			}
			trial++
			if err := r.trial(ctx, rng, trial); err != nil {
				return err
			}
		}

		if r.Observer != nil {
			threshold, err := r.Session.Threshold(r.Session.Config().TargetReversals)
			if err != nil {
				return err
			}
			r.Observer.FrequencyDone(freq, threshold)
		}
	}
}

func (r *Runner) trial(ctx context.Context, rng *rand.Rand, trial int) error {
	_, device, err := r.Session.PresentationLevel()
	if err != nil {
		return err
	}

	buf, err := r.Session.Synthesize()
	if err != nil {
		return err
	}
	if err := ApplyLevel(buf, device); err != nil {
		return err
	}

	stim := rng.Intn(2) + 1
	if err := r.Presenter.Present(ctx, buf, stim); err != nil {
		return err
	}

	choice, err := r.Responder.Interval(ctx, trial)
	if err != nil {
		return err
	}
	if choice != 1 && choice != 2 {
		return fmt.Errorf("%w: got %d", ErrNoResponse, choice)
	}

	outcome := -1
	if choice == stim {
		outcome = 1
	}
	if err := r.Session.AddResponse(outcome); err != nil {
		return err
	}

	if r.Recorder != nil {
		rec, _ := r.Session.LastTrial()
		if err := r.Recorder.Record(rec); err != nil {
			return err
		}
	}
	return nil
}

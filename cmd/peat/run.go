package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-audio/audio"

	"github.com/mooretm/peat"
	"github.com/mooretm/peat/internal/playback"
	"github.com/mooretm/peat/internal/storage"
)

// Inter-stimulus timing, matching the presentation cadence of the task.
const (
	intervalLeadIn   = 500 * time.Millisecond
	interStimulusGap = 500 * time.Millisecond
	intervalPadding  = 150 * time.Millisecond
)

// RunCmd runs the 2IAFC task for every configured test frequency.
type RunCmd struct {
	Subject   string `short:"s" help:"Subject identifier (overrides the parameter file)."`
	Condition string `short:"c" help:"Condition label (overrides the parameter file)."`
	Data      string `default:"Data" help:"Directory for trial CSV logs."`
}

// Run executes the task.
func (r *RunCmd) Run(g *Globals) error {
	cfg, err := storage.LoadParams(g.Params)
	if err != nil {
		return err
	}
	if r.Subject != "" {
		cfg.Subject = r.Subject
	}
	if r.Condition != "" {
		cfg.Condition = r.Condition
	}

	session, err := peat.NewSession(cfg)
	if err != nil {
		return err
	}
	if !session.Calibrated() {
		return fmt.Errorf("%w: run 'peat calibrate' first", peat.ErrUncalibrated)
	}

	player, err := playback.New(g.Device)
	if err != nil {
		return err
	}
	defer player.Close()

	runner := &peat.Runner{
		Session:   session,
		Presenter: &terminalPresenter{player: player, duration: cfg.Duration},
		Responder: &stdinResponder{in: bufio.NewReader(os.Stdin)},
		Recorder:  storage.NewCSVWriter(r.Data, cfg),
		Observer:  &progressPrinter{},
	}

	fmt.Println("When you are ready, press Enter to begin.")
	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		return err
	}

	if err := runner.Run(context.Background()); err != nil {
		return err
	}
	fmt.Println("\nTask complete. Please let the investigator know.")
	return nil
}

// terminalPresenter presents the two observation intervals with console
// cues, playing the stimulus in the assigned interval and leaving the
// other silent.
type terminalPresenter struct {
	player   *playback.Player
	duration float64
}

func (t *terminalPresenter) Present(ctx context.Context, buf *audio.FloatBuffer, stim int) error {
	hold := time.Duration(t.duration*float64(time.Second)) + intervalPadding

	time.Sleep(intervalLeadIn)
	for interval := 1; interval <= 2; interval++ {
		fmt.Printf("  [Interval %d]\n", interval)
		if interval == stim {
			if err := t.player.Play(ctx, buf); err != nil {
				return err
			}
		} else {
			time.Sleep(hold)
		}
		if interval == 1 {
			time.Sleep(interStimulusGap)
		}
	}
	return nil
}

// stdinResponder reads the listener's interval choice from standard
// input.
type stdinResponder struct {
	in *bufio.Reader
}

func (s *stdinResponder) Interval(_ context.Context, trial int) (int, error) {
	for {
		fmt.Printf("Trial %d - which interval had the tone? [1/2]: ", trial)
		line, err := s.in.ReadString('\n')
		if err != nil {
			return 0, err
		}
		switch strings.TrimSpace(line) {
		case "1":
			return 1, nil
		case "2":
			return 2, nil
		}
		fmt.Println("Please answer 1 or 2.")
	}
}

// progressPrinter reports per-frequency progress on the console.
type progressPrinter struct{}

func (progressPrinter) FrequencyStarted(freq float64, remaining int) {
	log.Printf("Testing %g Hz (%d to go after this)", freq, remaining)
}

func (progressPrinter) FrequencyDone(freq, threshold float64) {
	log.Printf("%g Hz done: threshold %.1f dB", freq, threshold)
}

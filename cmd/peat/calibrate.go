package main

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/mooretm/peat"
	"github.com/mooretm/peat/internal/playback"
	"github.com/mooretm/peat/internal/storage"
)

// CalibrateCmd presents the calibration stimulus in a play/adjust loop,
// then stores the sound-level-meter reading that pins device levels to
// physical SPL. The built-in stimulus is a mono 1 kHz warble tone at
// -40 dB FS RMS; a custom calibration WAV may be supplied instead.
type CalibrateCmd struct {
	Level float64 `default:"-30" help:"Playback level for the calibration stimulus, dB FS."`
	File  string  `type:"existingfile" optional:"" help:"Custom calibration WAV (default: built-in 1 kHz warble)."`
}

// Run executes the calibration loop.
func (c *CalibrateCmd) Run(g *Globals) error {
	cfg, err := storage.LoadParams(g.Params)
	if err != nil {
		return err
	}

	buf, err := c.stimulus(cfg)
	if err != nil {
		return err
	}
	if err := peat.ApplyLevel(buf, c.Level); err != nil {
		return err
	}

	player, err := playback.New(g.Device)
	if err != nil {
		return err
	}
	defer player.Close()

	in := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("Presenting calibration stimulus...")
		if err := player.Play(context.Background(), buf); err != nil {
			return err
		}

		fmt.Print("Enter the SLM reading in dB SPL (or 'r' to replay): ")
		line, err := in.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "r") {
			continue
		}

		reading, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return fmt.Errorf("invalid SLM reading %q: %w", line, err)
		}

		cfg.SLMReading = reading
		cfg.CalLevel = c.Level
		if err := storage.SaveParams(g.Params, cfg); err != nil {
			return err
		}
		fmt.Printf("Offset %.1f dB saved to %s\n", reading-c.Level, g.Params)
		return nil
	}
}

// stimulus returns the calibration buffer: the built-in warble tone, or a
// decoded custom WAV file.
func (c *CalibrateCmd) stimulus(cfg peat.Config) (*audio.FloatBuffer, error) {
	if c.File == "" {
		return peat.Synthesize(cfg.Duration, cfg.SampleRate, 1000, cfg.ModRate, cfg.ModDepth, 1, nil)
	}

	f, err := os.Open(c.File)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", c.File)
	}
	ints, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.File, err)
	}

	// Scale integer PCM to +/-1 full scale.
	scale := math.Pow(2, float64(dec.BitDepth)-1)
	buf := &audio.FloatBuffer{
		Format: ints.Format,
		Data:   make([]float64, len(ints.Data)),
	}
	for i, v := range ints.Data {
		buf.Data[i] = float64(v) / scale
	}
	return buf, nil
}

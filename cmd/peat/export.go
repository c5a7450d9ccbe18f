package main

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/mooretm/peat"
	"github.com/mooretm/peat/internal/playback"
	"github.com/mooretm/peat/internal/storage"
)

const (
	exportBitDepth = 16
	maxInt16       = 32767.0
	wavFormatPCM   = 1
)

// DevicesCmd lists the available playback devices.
type DevicesCmd struct{}

// Run lists devices.
func (DevicesCmd) Run(g *Globals) error {
	player, err := playback.New("")
	if err != nil {
		return err
	}
	defer player.Close()

	names, err := player.Devices()
	if err != nil {
		return err
	}
	for i, name := range names {
		fmt.Printf("%2d: %s\n", i, name)
	}
	return nil
}

// ExportCmd writes a warble-tone stimulus to a 16-bit PCM WAV file, e.g.
// for external calibration chains or inspection in an audio editor.
type ExportCmd struct {
	Freq     float64 `short:"f" default:"1000" help:"Center frequency in Hz."`
	Channels int     `default:"1" help:"Number of channels."`
	Level    float64 `help:"Output level in dB FS (0 keeps the synthesis RMS)."`
	Out      string  `arg:"" help:"Output WAV path."`
}

// Run synthesises and writes the stimulus.
func (e *ExportCmd) Run(g *Globals) error {
	cfg, err := storage.LoadParams(g.Params)
	if err != nil {
		return err
	}

	buf, err := peat.Synthesize(cfg.Duration, cfg.SampleRate, e.Freq, cfg.ModRate, cfg.ModDepth, e.Channels, nil)
	if err != nil {
		return err
	}
	if e.Level != 0 {
		if err := peat.ApplyLevel(buf, e.Level); err != nil {
			return err
		}
	}

	f, err := os.Create(e.Out)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, buf.Format.SampleRate, exportBitDepth, buf.Format.NumChannels, wavFormatPCM)
	ints := &audio.IntBuffer{
		Format:         buf.Format,
		SourceBitDepth: exportBitDepth,
		Data:           make([]int, len(buf.Data)),
	}
	for i, v := range buf.Data {
		ints.Data[i] = int(v * maxInt16)
	}
	if err := enc.Write(ints); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	fmt.Printf("Wrote %s: %g Hz, %d channel(s), %d Hz sample rate\n",
		e.Out, e.Freq, buf.Format.NumChannels, buf.Format.SampleRate)
	return nil
}

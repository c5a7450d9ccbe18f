// Command peat administers the adaptive threshold task from the terminal.
//
// Usage:
//
//	peat calibrate                 # play the calibration tone, store the SLM offset
//	peat run -s P1234 -c baseline  # run the 2IAFC task
//	peat devices                   # list playback devices
//	peat export -f 1000 out.wav    # write a stimulus WAV for inspection
//
// Session parameters persist in a JSON file between runs; trial records
// are appended to a datestamped CSV in the data directory.
package main

import (
	"github.com/alecthomas/kong"
)

var version = "2.0.0"

// Globals holds flags shared by every subcommand.
type Globals struct {
	Params string `short:"p" default:"peat_params.json" help:"Session parameter file."`
	Device string `short:"d" help:"Playback device name substring (default: system device)."`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Run       RunCmd       `cmd:"" help:"Run the 2IAFC threshold task."`
	Calibrate CalibrateCmd `cmd:"" help:"Present the calibration stimulus and store the SLM offset."`
	Devices   DevicesCmd   `cmd:"" help:"List available playback devices."`
	Export    ExportCmd    `cmd:"" help:"Write a warble-tone stimulus to a WAV file."`
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("peat"),
		kong.Description("P.E.A.T. - adaptive estimation of auditory thresholds"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}

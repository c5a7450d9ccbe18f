// Package playback presents stimulus buffers on an output audio device
// through the malgo (miniaudio) bindings. Level application and clipping
// checks happen upstream in the stimulus pipeline; this package only
// moves samples to the hardware.
package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/go-audio/audio"
)

// ErrDeviceNotFound indicates no playback device matched the requested
// name.
var ErrDeviceNotFound = errors.New("playback device not found")

// Player owns a malgo context and presents one buffer at a time. It is
// used by a single trial loop; presentations never overlap.
type Player struct {
	ctx        *malgo.AllocatedContext
	deviceName string
}

// New initialises the audio backend. deviceName selects an output device
// by case-insensitive substring; empty uses the system default.
func New(deviceName string) (*Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return &Player{ctx: ctx, deviceName: deviceName}, nil
}

// Close releases the audio backend.
func (p *Player) Close() {
	if p.ctx != nil {
		_ = p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
}

// Devices lists the names of the available playback devices.
func (p *Player) Devices() ([]string, error) {
	infos, err := p.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("enumerate playback devices: %w", err)
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

// Play presents buf and blocks until the last sample has been delivered
// to the device or ctx is cancelled.
func (p *Player) Play(ctx context.Context, buf *audio.FloatBuffer) error {
	channels := buf.Format.NumChannels
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = uint32(channels)
	cfg.SampleRate = uint32(buf.Format.SampleRate)
	cfg.Alsa.NoMMap = 1

	if p.deviceName != "" {
		id, err := p.findDevice(p.deviceName)
		if err != nil {
			return err
		}
		cfg.Playback.DeviceID = id
	}

	var once sync.Once
	done := make(chan struct{})
	pos := 0
	onSendFrames := func(pOutputSample, _ []byte, framecount uint32) {
		if len(pOutputSample) == 0 {
			return
		}
		out := unsafe.Slice((*float32)(unsafe.Pointer(&pOutputSample[0])), int(framecount)*channels)
		n := copy(out, samples[pos:])
		pos += n
		for i := n; i < len(out); i++ {
			out[i] = 0
		}
		if pos >= len(samples) {
			once.Do(func() { close(done) })
		}
	}

	device, err := malgo.InitDevice(p.ctx.Context, cfg, malgo.DeviceCallbacks{Data: onSendFrames})
	if err != nil {
		return fmt.Errorf("init playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// findDevice resolves a device name substring to a device id.
func (p *Player) findDevice(name string) (unsafe.Pointer, error) {
	infos, err := p.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("enumerate playback devices: %w", err)
	}
	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(name)) {
			return info.ID.Pointer(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

// TruncateChannels drops trailing channels from an interleaved buffer so
// it fits a device with fewer outputs. Extra channels are dropped, never
// added; buffers already within max are returned unchanged.
func TruncateChannels(buf *audio.FloatBuffer, max int) *audio.FloatBuffer {
	channels := buf.Format.NumChannels
	if max < 1 || channels <= max {
		return buf
	}
	frames := len(buf.Data) / channels
	data := make([]float64, frames*max)
	for i := 0; i < frames; i++ {
		copy(data[i*max:(i+1)*max], buf.Data[i*channels:i*channels+max])
	}
	return &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: max, SampleRate: buf.Format.SampleRate},
		Data:   data,
	}
}

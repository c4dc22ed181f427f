package recording

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/klauspost/compress/zstd"

	"essaim.dev/depthcam/camera"
)

// Player exposes a recording as a context holding a single device.
type Player struct {
	file    io.Closer
	decoder *zstd.Decoder
	header  Header
	device  *device
}

type Option func(*Player)

// WithClock replays frame sets at the pace of their recorded timestamps.
func WithClock(clk clock.Clock) Option {
	return func(p *Player) {
		p.device.clock = clk
	}
}

// Open plays the recording stored at path.
func Open(path string, opts ...Option) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open recording: %w", err)
	}

	p, err := NewPlayer(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.file = f

	return p, nil
}

func NewPlayer(r io.Reader, opts ...Option) (*Player, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not create decoder: %w", err)
	}

	br := bufio.NewReaderSize(decoder, 1<<16)
	hdr, err := readHeader(br)
	if err != nil {
		decoder.Close()
		return nil, err
	}

	p := &Player{
		decoder: decoder,
		header:  hdr,
		device: &device{
			header:  hdr,
			r:       br,
			enabled: make(map[camera.Stream]bool),
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

func (p *Player) Header() Header {
	return p.header
}

func (p *Player) DeviceCount() (int, error) {
	return 1, nil
}

func (p *Player) Device(index int) (camera.Device, error) {
	if index != 0 {
		return nil, camera.NewDeviceError("rs_get_device", "requested device is not present", index)
	}
	return p.device, nil
}

func (p *Player) Close() error {
	p.decoder.Close()
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

type device struct {
	header Header
	r      *bufio.Reader
	clock  clock.Clock

	mu       sync.Mutex
	enabled  map[camera.Stream]bool
	started  bool
	frames   map[camera.Stream]camera.Frame
	lastTime float64
	played   int
}

func (d *device) Info() (camera.Info, error) {
	return d.header.Info, nil
}

func (d *device) DepthScale() (float64, error) {
	return d.header.DepthScale, nil
}

// ApplyDepthControlPreset only validates the preset; the recording already
// carries processed depth.
func (d *device) ApplyDepthControlPreset(preset int) error {
	if preset < 0 || preset > 5 {
		return camera.NewDeviceError("rs_apply_depth_control_preset", "preset must be between 0 and 5", preset)
	}
	return nil
}

func (d *device) EnableStream(cfg camera.StreamConfig) error {
	for _, recorded := range d.header.Streams {
		if recorded.Stream != cfg.Stream {
			continue
		}
		if recorded.Width != cfg.Width || recorded.Height != cfg.Height || recorded.Format != cfg.Format {
			return camera.NewDeviceError("rs_enable_stream",
				fmt.Sprintf("recording has %s", recorded), cfg.Stream, cfg.Width, cfg.Height, cfg.Format, cfg.FPS)
		}

		d.mu.Lock()
		d.enabled[cfg.Stream] = true
		d.mu.Unlock()
		return nil
	}

	return camera.NewDeviceError("rs_enable_stream", "stream is not in the recording", cfg.Stream)
}

func (d *device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.started = true
	return nil
}

func (d *device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.started = false
	return nil
}

func (d *device) WaitForFrames(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return camera.NewDeviceError("rs_wait_for_frames", "device is not streaming")
	}

	frames, err := readFrames(d.r)
	if errors.Is(err, io.EOF) {
		return ErrEndOfRecording
	}
	if err != nil {
		return camera.NewDeviceError("rs_wait_for_frames", err.Error())
	}

	ts := frames[0].Timestamp
	if d.played > 0 {
		if err := d.pace(ctx, ts-d.lastTime); err != nil {
			return err
		}
	}

	d.frames = make(map[camera.Stream]camera.Frame, len(frames))
	for _, f := range frames {
		d.frames[f.Stream] = f
	}
	d.lastTime = ts
	d.played++

	return nil
}

func (d *device) pace(ctx context.Context, ms float64) error {
	if d.clock == nil || ms <= 0 {
		return nil
	}

	timer := d.clock.Timer(time.Duration(ms * float64(time.Millisecond)))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *device) Frame(s camera.Stream) (camera.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.frames[s]
	if !ok {
		return camera.Frame{}, camera.NewDeviceError("rs_get_frame_data", "requested stream is not available", s)
	}
	return f, nil
}

func (d *device) Intrinsics(s camera.Stream) (camera.Intrinsics, error) {
	for _, in := range d.header.Intrinsics {
		if in.Stream == s {
			return in.Intrinsics, nil
		}
	}
	return camera.Intrinsics{}, camera.NewDeviceError("rs_get_stream_intrinsics", "stream has no recorded intrinsics", s)
}

func (d *device) Extrinsics(from, to camera.Stream) (camera.Extrinsics, error) {
	for _, ex := range d.header.Extrinsics {
		if ex.From == from && ex.To == to {
			return ex.Extrinsics, nil
		}
	}
	return camera.Extrinsics{}, camera.NewDeviceError("rs_get_device_extrinsics", "streams have no recorded extrinsics", from, to)
}

// Package fake provides in-memory depth cameras producing synthetic frames.
package fake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"essaim.dev/depthcam/camera"
)

// Context holds a fixed list of fake devices.
type Context struct {
	Devices []*Device

	// Errors injects failures keyed by operation name.
	Errors map[string]error
}

func NewContext(devices ...*Device) *Context {
	return &Context{Devices: devices}
}

func (c *Context) DeviceCount() (int, error) {
	if err := c.Errors["rs_get_device_count"]; err != nil {
		return 0, err
	}
	return len(c.Devices), nil
}

func (c *Context) Device(index int) (camera.Device, error) {
	if err := c.Errors["rs_get_device"]; err != nil {
		return nil, err
	}
	if index < 0 || index >= len(c.Devices) {
		return nil, camera.NewDeviceError("rs_get_device", "requested device is not present", index)
	}
	return c.Devices[index], nil
}

func (c *Context) Close() error {
	return nil
}

// Device is a synthetic camera. Depth samples grow with the pixel position
// and the frame number; color is a moving gradient.
type Device struct {
	DeviceInfo camera.Info
	Scale      float64

	// Clock paces WaitForFrames at the enabled frame rate. Nil means frames
	// are available immediately.
	Clock clock.Clock

	// Errors injects failures keyed by operation name, for example
	// "rs_wait_for_frames".
	Errors map[string]error

	mu      sync.Mutex
	enabled map[camera.Stream]camera.StreamConfig
	started bool
	preset  int
	count   int
	next    time.Time
	frames  map[camera.Stream]camera.Frame
	calls   []string
}

func NewDevice() *Device {
	return &Device{
		DeviceInfo: camera.Info{
			Name:     "Intel RealSense R200 (fake)",
			Serial:   "2391011471",
			Firmware: "1.0.72.06",
		},
		Scale:   0.001,
		enabled: make(map[camera.Stream]camera.StreamConfig),
		preset:  -1,
	}
}

// Calls returns the operations invoked on the device, in order.
func (d *Device) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.calls...)
}

// Enabled returns the configuration of an enabled stream.
func (d *Device) Enabled(s camera.Stream) (camera.StreamConfig, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cfg, ok := d.enabled[s]
	return cfg, ok
}

// Preset returns the last applied depth control preset, or -1.
func (d *Device) Preset() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.preset
}

// FrameCount returns how many frame sets have been produced.
func (d *Device) FrameCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.count
}

func (d *Device) call(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, op)
	return d.Errors[op]
}

func (d *Device) Info() (camera.Info, error) {
	if err := d.call("rs_get_device_info"); err != nil {
		return camera.Info{}, err
	}
	return d.DeviceInfo, nil
}

func (d *Device) DepthScale() (float64, error) {
	if err := d.call("rs_get_device_depth_scale"); err != nil {
		return 0, err
	}
	return d.Scale, nil
}

func (d *Device) ApplyDepthControlPreset(preset int) error {
	if err := d.call("rs_apply_depth_control_preset"); err != nil {
		return err
	}
	if preset < 0 || preset > 5 {
		return camera.NewDeviceError("rs_apply_depth_control_preset", "preset must be between 0 and 5", preset)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.preset = preset
	return nil
}

func (d *Device) EnableStream(cfg camera.StreamConfig) error {
	if err := d.call("rs_enable_stream"); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return camera.NewDeviceError("rs_enable_stream", err.Error(), cfg.Stream, cfg.Width, cfg.Height, cfg.Format, cfg.FPS)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return camera.NewDeviceError("rs_enable_stream", "cannot enable a stream while the device is streaming", cfg.Stream)
	}
	d.enabled[cfg.Stream] = cfg
	return nil
}

func (d *Device) Start() error {
	if err := d.call("rs_start_device"); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.enabled) == 0 {
		return camera.NewDeviceError("rs_start_device", "no streams are enabled")
	}
	d.started = true
	return nil
}

func (d *Device) Stop() error {
	if err := d.call("rs_stop_device"); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.started = false
	d.next = time.Time{}
	return nil
}

func (d *Device) WaitForFrames(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.call("rs_wait_for_frames"); err != nil {
		return err
	}

	d.mu.Lock()
	started := d.started
	fps := d.rate()
	d.mu.Unlock()

	if !started {
		return camera.NewDeviceError("rs_wait_for_frames", "device is not streaming")
	}

	if err := d.pace(ctx, fps); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.frames = d.render(float64(d.count) * 1000 / float64(fps))
	d.count++
	return nil
}

func (d *Device) pace(ctx context.Context, fps int) error {
	if d.Clock == nil {
		return nil
	}

	d.mu.Lock()
	now := d.Clock.Now()
	if d.next.IsZero() {
		d.next = now
	}
	wait := d.next.Sub(now)
	d.next = d.next.Add(time.Second / time.Duration(fps))
	d.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := d.Clock.Timer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rate is the frame rate of the slowest enabled stream.
func (d *Device) rate() int {
	fps := 0
	for _, cfg := range d.enabled {
		if fps == 0 || cfg.FPS < fps {
			fps = cfg.FPS
		}
	}
	if fps == 0 {
		fps = 30
	}
	return fps
}

func (d *Device) Frame(s camera.Stream) (camera.Frame, error) {
	if err := d.call("rs_get_frame_data"); err != nil {
		return camera.Frame{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.frames[s]
	if !ok {
		return camera.Frame{}, camera.NewDeviceError("rs_get_frame_data", "requested stream is not available", s)
	}
	return f, nil
}

func (d *Device) Intrinsics(s camera.Stream) (camera.Intrinsics, error) {
	if err := d.call("rs_get_stream_intrinsics"); err != nil {
		return camera.Intrinsics{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cfg, ok := d.streamConfig(s)
	if !ok {
		return camera.Intrinsics{}, camera.NewDeviceError("rs_get_stream_intrinsics", "stream is not enabled", s)
	}

	fx := float64(cfg.Width) * 0.9
	if s == camera.StreamDepth || s == camera.StreamInfrared || s == camera.StreamInfrared2 {
		fx = float64(cfg.Width) * 0.75
	}
	return camera.Intrinsics{
		Width:  cfg.Width,
		Height: cfg.Height,
		Ppx:    float64(cfg.Width)/2 - 0.5,
		Ppy:    float64(cfg.Height)/2 - 0.5,
		Fx:     fx,
		Fy:     fx,
	}, nil
}

func (d *Device) Extrinsics(from, to camera.Stream) (camera.Extrinsics, error) {
	if err := d.call("rs_get_device_extrinsics"); err != nil {
		return camera.Extrinsics{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.streamConfig(from); !ok {
		return camera.Extrinsics{}, camera.NewDeviceError("rs_get_device_extrinsics", "stream is not enabled", from, to)
	}
	if _, ok := d.streamConfig(to); !ok {
		return camera.Extrinsics{}, camera.NewDeviceError("rs_get_device_extrinsics", "stream is not enabled", from, to)
	}

	ex := camera.Extrinsics{Rotation: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
	if from != to {
		ex.Translation = [3]float64{-0.0589, 0.0003, 0.0001}
	}
	return ex, nil
}

// streamConfig resolves derived streams to the geometry they share.
func (d *Device) streamConfig(s camera.Stream) (camera.StreamConfig, bool) {
	switch s {
	case camera.StreamRectifiedColor, camera.StreamDepthAlignedToColor, camera.StreamDepthAlignedToRectifiedColor:
		cfg, ok := d.enabled[camera.StreamColor]
		if ok && s != camera.StreamRectifiedColor {
			_, ok = d.enabled[camera.StreamDepth]
			cfg.Format = camera.FormatZ16
		}
		cfg.Stream = s
		return cfg, ok
	case camera.StreamColorAlignedToDepth:
		cfg, ok := d.enabled[camera.StreamDepth]
		if ok {
			_, ok = d.enabled[camera.StreamColor]
			cfg.Format = d.enabled[camera.StreamColor].Format
		}
		cfg.Stream = s
		return cfg, ok
	}

	cfg, ok := d.enabled[s]
	return cfg, ok
}

func (d *Device) render(timestamp float64) map[camera.Stream]camera.Frame {
	frames := make(map[camera.Stream]camera.Frame)

	for s, cfg := range d.enabled {
		frames[s] = d.synth(cfg, timestamp)
	}

	for _, s := range []camera.Stream{
		camera.StreamRectifiedColor,
		camera.StreamDepthAlignedToColor,
		camera.StreamDepthAlignedToRectifiedColor,
		camera.StreamColorAlignedToDepth,
	} {
		if cfg, ok := d.streamConfig(s); ok {
			frames[s] = d.synth(cfg, timestamp)
		}
	}

	return frames
}

func (d *Device) synth(cfg camera.StreamConfig, timestamp float64) camera.Frame {
	bpp := cfg.Format.BytesPerPixel()
	data := make([]byte, cfg.Width*cfg.Height*bpp)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			i := (y*cfg.Width + x) * bpp
			switch bpp {
			case 2:
				v := uint16(500 + x + y + d.count)
				data[i] = byte(v)
				data[i+1] = byte(v >> 8)
			default:
				for c := 0; c < bpp; c++ {
					data[i+c] = byte(x + y*c + d.count*(c+1))
				}
				if bpp == 4 {
					data[i+3] = 255
				}
			}
		}
	}

	return camera.Frame{
		Stream:    cfg.Stream,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    cfg.Format,
		Timestamp: timestamp,
		Data:      data,
	}
}

func (d *Device) String() string {
	return fmt.Sprintf("fake device %s", d.DeviceInfo.Serial)
}

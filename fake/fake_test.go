package fake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"essaim.dev/depthcam/camera"
)

var (
	depthCfg = camera.StreamConfig{Stream: camera.StreamDepth, Width: 8, Height: 6, Format: camera.FormatZ16, FPS: 60}
	colorCfg = camera.StreamConfig{Stream: camera.StreamColor, Width: 8, Height: 6, Format: camera.FormatBGR8, FPS: 60}
)

func startedDevice(t *testing.T) *Device {
	t.Helper()

	d := NewDevice()
	test.That(t, d.EnableStream(depthCfg), test.ShouldBeNil)
	test.That(t, d.EnableStream(colorCfg), test.ShouldBeNil)
	test.That(t, d.Start(), test.ShouldBeNil)
	return d
}

func TestContext(t *testing.T) {
	c := NewContext()
	n, err := c.DeviceCount()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 0)

	_, err = c.Device(0)
	var devErr *camera.DeviceError
	test.That(t, errors.As(err, &devErr), test.ShouldBeTrue)

	d := NewDevice()
	c = NewContext(d)
	got, err := c.Device(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, d)
}

func TestFrames(t *testing.T) {
	d := startedDevice(t)
	ctx := context.Background()

	test.That(t, d.WaitForFrames(ctx), test.ShouldBeNil)
	first, err := d.Frame(camera.StreamDepth)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first.Timestamp, test.ShouldEqual, 0.0)

	raw, err := first.Depth()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw[0], test.ShouldEqual, uint16(500))
	test.That(t, raw[len(raw)-1], test.ShouldEqual, uint16(500+7+5))

	test.That(t, d.WaitForFrames(ctx), test.ShouldBeNil)
	second, err := d.Frame(camera.StreamDepth)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second.Timestamp, test.ShouldAlmostEqual, 1000.0/60)
	test.That(t, d.FrameCount(), test.ShouldEqual, 2)

	for _, s := range []camera.Stream{camera.StreamColor, camera.StreamRectifiedColor, camera.StreamDepthAlignedToRectifiedColor} {
		f, err := d.Frame(s)
		test.That(t, err, test.ShouldBeNil)
		_, err = f.Image()
		test.That(t, err, test.ShouldBeNil)
	}

	_, err = d.Frame(camera.StreamInfrared)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWaitBeforeStart(t *testing.T) {
	d := NewDevice()
	err := d.WaitForFrames(context.Background())
	var devErr *camera.DeviceError
	test.That(t, errors.As(err, &devErr), test.ShouldBeTrue)
	test.That(t, devErr.Function, test.ShouldEqual, "rs_wait_for_frames")
}

func TestEnableAfterStart(t *testing.T) {
	d := startedDevice(t)
	test.That(t, d.EnableStream(depthCfg), test.ShouldNotBeNil)
}

func TestInjectedError(t *testing.T) {
	d := startedDevice(t)
	want := camera.NewDeviceError("rs_wait_for_frames", "UVC read failed")
	d.Errors = map[string]error{"rs_wait_for_frames": want}

	err := d.WaitForFrames(context.Background())
	test.That(t, err, test.ShouldEqual, want)
}

func TestPreset(t *testing.T) {
	d := NewDevice()
	test.That(t, d.Preset(), test.ShouldEqual, -1)
	test.That(t, d.ApplyDepthControlPreset(5), test.ShouldBeNil)
	test.That(t, d.Preset(), test.ShouldEqual, 5)
	test.That(t, d.ApplyDepthControlPreset(6), test.ShouldNotBeNil)
}

func TestCalibration(t *testing.T) {
	d := startedDevice(t)

	in, err := d.Intrinsics(camera.StreamColor)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, in.Width, test.ShouldEqual, 8)
	test.That(t, in.Ppx, test.ShouldEqual, 3.5)

	ex, err := d.Extrinsics(camera.StreamDepth, camera.StreamColor)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ex.Rotation[0], test.ShouldEqual, 1.0)
	test.That(t, ex.Translation[0], test.ShouldEqual, -0.0589)

	_, err = d.Intrinsics(camera.StreamInfrared)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPacing(t *testing.T) {
	mock := clock.NewMock()
	d := startedDevice(t)
	d.Clock = mock
	ctx := context.Background()

	// The first frame set is immediate.
	test.That(t, d.WaitForFrames(ctx), test.ShouldBeNil)

	done := make(chan error, 1)
	go func() { done <- d.WaitForFrames(ctx) }()

	for i := 0; i < 1000; i++ {
		select {
		case err := <-done:
			test.That(t, err, test.ShouldBeNil)
			test.That(t, d.FrameCount(), test.ShouldEqual, 2)
			return
		default:
			mock.Add(time.Millisecond)
		}
	}
	t.Fatal("frame set was not delivered")
}

func TestPacingCanceled(t *testing.T) {
	mock := clock.NewMock()
	d := startedDevice(t)
	d.Clock = mock

	ctx, cancel := context.WithCancel(context.Background())
	test.That(t, d.WaitForFrames(ctx), test.ShouldBeNil)

	done := make(chan error, 1)
	go func() { done <- d.WaitForFrames(ctx) }()
	cancel()

	err := <-done
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

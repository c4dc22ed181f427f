package capture

import (
	"bytes"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"essaim.dev/depthcam/camera"
	"essaim.dev/depthcam/fake"
)

func TestOpenNoDevice(t *testing.T) {
	var out bytes.Buffer
	_, err := Open(fake.NewContext(), &out, DepthBanner, zaptest.NewLogger(t).Sugar())
	test.That(t, errors.Is(err, camera.ErrNoDevice), test.ShouldBeTrue)
	test.That(t, out.String(), test.ShouldEqual, "There are 0 connected RealSense devices.\n")
}

func TestOpenCountError(t *testing.T) {
	c := fake.NewContext(fake.NewDevice())
	c.Errors = map[string]error{"rs_get_device_count": camera.NewDeviceError("rs_get_device_count", "usb failure")}

	_, err := Open(c, &bytes.Buffer{}, DepthBanner, zaptest.NewLogger(t).Sugar())
	var devErr *camera.DeviceError
	test.That(t, errors.As(err, &devErr), test.ShouldBeTrue)
	test.That(t, devErr.Message, test.ShouldEqual, "usb failure")
}

func TestSessionStart(t *testing.T) {
	dev := fake.NewDevice()
	var out bytes.Buffer
	sess, err := Open(fake.NewContext(dev), &out, DepthBanner, zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual, "There are 1 connected RealSense devices.\n")
	test.That(t, sess.DeviceCount(), test.ShouldEqual, 1)
	test.That(t, sess.Info().Serial, test.ShouldEqual, dev.DeviceInfo.Serial)
	test.That(t, sess.DepthScale(), test.ShouldEqual, 0.001)

	test.That(t, sess.Start(5, testDepthCfg, testColorCfg), test.ShouldBeNil)
	test.That(t, dev.Preset(), test.ShouldEqual, 5)
	cfg, ok := dev.Enabled(camera.StreamColor)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, cfg, test.ShouldResemble, testColorCfg)
	test.That(t, sess.Streams(), test.ShouldHaveLength, 2)

	test.That(t, sess.Start(5, testDepthCfg), test.ShouldNotBeNil)

	test.That(t, sess.Close(), test.ShouldBeNil)
	test.That(t, contains(dev.Calls(), "rs_stop_device"), test.ShouldBeTrue)
	test.That(t, sess.Close(), test.ShouldBeNil)
}

func TestSessionStartNoPreset(t *testing.T) {
	dev := fake.NewDevice()
	sess, err := Open(fake.NewContext(dev), &bytes.Buffer{}, DepthBanner, zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)

	test.That(t, sess.Start(NoPreset, testDepthCfg), test.ShouldBeNil)
	test.That(t, contains(dev.Calls(), "rs_apply_depth_control_preset"), test.ShouldBeFalse)
}

func TestSessionStartDeviceError(t *testing.T) {
	dev := fake.NewDevice()
	dev.Errors = map[string]error{"rs_enable_stream": camera.NewDeviceError("rs_enable_stream", "unsupported mode", "depth")}
	sess, err := Open(fake.NewContext(dev), &bytes.Buffer{}, DepthBanner, zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)

	err = sess.Start(NoPreset, testDepthCfg)
	var devErr *camera.DeviceError
	test.That(t, errors.As(err, &devErr), test.ShouldBeTrue)
	test.That(t, devErr.Function, test.ShouldEqual, "rs_enable_stream")
	test.That(t, contains(dev.Calls(), "rs_start_device"), test.ShouldBeFalse)

	// Never started, so nothing to stop.
	test.That(t, sess.Close(), test.ShouldBeNil)
	test.That(t, contains(dev.Calls(), "rs_stop_device"), test.ShouldBeFalse)
}

func TestSessionHeader(t *testing.T) {
	dev := fake.NewDevice()
	sess, err := Open(fake.NewContext(dev), &bytes.Buffer{}, DepthBanner, zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sess.Start(NoPreset, testDepthCfg, testColorCfg), test.ShouldBeNil)

	hdr, err := sess.Header()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hdr.Info, test.ShouldResemble, dev.DeviceInfo)
	test.That(t, hdr.DepthScale, test.ShouldEqual, 0.001)
	test.That(t, hdr.Streams, test.ShouldResemble, []camera.StreamConfig{testDepthCfg, testColorCfg})
	test.That(t, hdr.Intrinsics, test.ShouldHaveLength, 4)
	test.That(t, hdr.Extrinsics, test.ShouldHaveLength, 1)
}

//go:build realsense

// Package realsense implements a Go binding for the librealsense library.
package realsense

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lrealsense
#include <librealsense/rs.h>
#include <librealsense/rsutil.h>

static int api_version() { return RS_API_VERSION; }
*/
import "C"

import (
	"context"
	"unsafe"

	"essaim.dev/depthcam/camera"
)

// Context wraps an rs_context. camera.Stream and camera.Format values are
// passed through as rs_stream and rs_format.
type Context struct {
	ctx *C.rs_context
}

func NewContext() (*Context, error) {
	var e *C.rs_error
	ctx := C.rs_create_context(C.api_version(), &e)
	if err := toError(e); err != nil {
		return nil, err
	}

	return &Context{ctx: ctx}, nil
}

func (c *Context) DeviceCount() (int, error) {
	var e *C.rs_error
	n := C.rs_get_device_count(c.ctx, &e)
	return int(n), toError(e)
}

func (c *Context) Device(index int) (camera.Device, error) {
	var e *C.rs_error
	dev := C.rs_get_device(c.ctx, C.int(index), &e)
	if err := toError(e); err != nil {
		return nil, err
	}

	return &Device{dev: dev}, nil
}

func (c *Context) Close() error {
	var e *C.rs_error
	C.rs_delete_context(c.ctx, &e)
	return toError(e)
}

type Device struct {
	dev *C.rs_device
}

func (d *Device) Info() (camera.Info, error) {
	var e *C.rs_error

	name := C.rs_get_device_name(d.dev, &e)
	if err := toError(e); err != nil {
		return camera.Info{}, err
	}
	serial := C.rs_get_device_serial(d.dev, &e)
	if err := toError(e); err != nil {
		return camera.Info{}, err
	}
	firmware := C.rs_get_device_firmware_version(d.dev, &e)
	if err := toError(e); err != nil {
		return camera.Info{}, err
	}

	return camera.Info{
		Name:     C.GoString(name),
		Serial:   C.GoString(serial),
		Firmware: C.GoString(firmware),
	}, nil
}

func (d *Device) DepthScale() (float64, error) {
	var e *C.rs_error
	scale := C.rs_get_device_depth_scale(d.dev, &e)
	return float64(scale), toError(e)
}

func (d *Device) ApplyDepthControlPreset(preset int) error {
	if preset < 0 || preset > 5 {
		return camera.NewDeviceError("rs_apply_depth_control_preset", "preset must be between 0 and 5", preset)
	}
	C.rs_apply_depth_control_preset(d.dev, C.int(preset))
	return nil
}

func (d *Device) EnableStream(cfg camera.StreamConfig) error {
	var e *C.rs_error
	C.rs_enable_stream(d.dev, C.rs_stream(cfg.Stream), C.int(cfg.Width), C.int(cfg.Height),
		C.rs_format(cfg.Format), C.int(cfg.FPS), &e)
	return toError(e)
}

func (d *Device) Start() error {
	var e *C.rs_error
	C.rs_start_device(d.dev, &e)
	return toError(e)
}

func (d *Device) Stop() error {
	var e *C.rs_error
	C.rs_stop_device(d.dev, &e)
	return toError(e)
}

// WaitForFrames cannot interrupt the native call; the context is only checked
// before blocking.
func (d *Device) WaitForFrames(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var e *C.rs_error
	C.rs_wait_for_frames(d.dev, &e)
	return toError(e)
}

func (d *Device) Frame(s camera.Stream) (camera.Frame, error) {
	var e *C.rs_error
	cs := C.rs_stream(s)

	width := C.rs_get_stream_width(d.dev, cs, &e)
	if err := toError(e); err != nil {
		return camera.Frame{}, err
	}
	height := C.rs_get_stream_height(d.dev, cs, &e)
	if err := toError(e); err != nil {
		return camera.Frame{}, err
	}
	format := C.rs_get_stream_format(d.dev, cs, &e)
	if err := toError(e); err != nil {
		return camera.Frame{}, err
	}
	timestamp := C.rs_get_frame_timestamp(d.dev, cs, &e)
	if err := toError(e); err != nil {
		return camera.Frame{}, err
	}
	data := C.rs_get_frame_data(d.dev, cs, &e)
	if err := toError(e); err != nil {
		return camera.Frame{}, err
	}

	f := camera.Frame{
		Stream:    s,
		Width:     int(width),
		Height:    int(height),
		Format:    camera.Format(format),
		Timestamp: float64(timestamp),
	}
	size := f.Width * f.Height * f.Format.BytesPerPixel()
	if data != nil && size > 0 {
		f.Data = C.GoBytes(unsafe.Pointer(data), C.int(size))
	}

	return f, nil
}

func (d *Device) Intrinsics(s camera.Stream) (camera.Intrinsics, error) {
	var (
		e  *C.rs_error
		in C.rs_intrinsics
	)
	C.rs_get_stream_intrinsics(d.dev, C.rs_stream(s), &in, &e)
	if err := toError(e); err != nil {
		return camera.Intrinsics{}, err
	}

	out := camera.Intrinsics{
		Width:  int(in.width),
		Height: int(in.height),
		Ppx:    float64(in.ppx),
		Ppy:    float64(in.ppy),
		Fx:     float64(in.fx),
		Fy:     float64(in.fy),
		Model:  int(in.model),
	}
	for i := range out.Coeffs {
		out.Coeffs[i] = float64(in.coeffs[i])
	}

	return out, nil
}

func (d *Device) Extrinsics(from, to camera.Stream) (camera.Extrinsics, error) {
	var (
		e  *C.rs_error
		ex C.rs_extrinsics
	)
	C.rs_get_device_extrinsics(d.dev, C.rs_stream(from), C.rs_stream(to), &ex, &e)
	if err := toError(e); err != nil {
		return camera.Extrinsics{}, err
	}

	var out camera.Extrinsics
	for i := range out.Rotation {
		out.Rotation[i] = float64(ex.rotation[i])
	}
	for i := range out.Translation {
		out.Translation[i] = float64(ex.translation[i])
	}

	return out, nil
}

func toError(e *C.rs_error) error {
	if e == nil {
		return nil
	}
	defer C.rs_free_error(e)

	return &camera.DeviceError{
		Function: C.GoString(C.rs_get_failed_function(e)),
		Args:     C.GoString(C.rs_get_failed_args(e)),
		Message:  C.GoString(C.rs_get_error_message(e)),
	}
}

package camera

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoDevice is returned when no camera is connected.
var ErrNoDevice = errors.New("no connected device")

// Info is the static metadata of an opened device.
type Info struct {
	Name     string `json:"name"`
	Serial   string `json:"serial"`
	Firmware string `json:"firmware"`
}

// Intrinsics are the pinhole parameters of one stream.
type Intrinsics struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Ppx    float64    `json:"ppx"`
	Ppy    float64    `json:"ppy"`
	Fx     float64    `json:"fx"`
	Fy     float64    `json:"fy"`
	Model  int        `json:"model"`
	Coeffs [5]float64 `json:"coeffs"`
}

// Extrinsics is the rigid transform between two streams. Rotation is column
// major, translation is in meters.
type Extrinsics struct {
	Rotation    [9]float64 `json:"rotation"`
	Translation [3]float64 `json:"translation"`
}

// Context owns the handles to every connected device.
type Context interface {
	DeviceCount() (int, error)
	Device(index int) (Device, error)
	Close() error
}

// Device is one opened camera. Frames returned by Frame stay valid until the
// next call to WaitForFrames.
type Device interface {
	Info() (Info, error)
	DepthScale() (float64, error)
	ApplyDepthControlPreset(preset int) error

	EnableStream(cfg StreamConfig) error
	Start() error
	Stop() error

	// WaitForFrames blocks until a new synchronized frame set is available.
	WaitForFrames(ctx context.Context) error
	Frame(s Stream) (Frame, error)

	Intrinsics(s Stream) (Intrinsics, error)
	Extrinsics(from, to Stream) (Extrinsics, error)
}

// DeviceError is raised by the device layer. It names the failed call, the
// arguments it was given and the reason.
type DeviceError struct {
	Function string
	Args     string
	Message  string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s(%s): %s", e.Function, e.Args, e.Message)
}

// NewDeviceError builds a DeviceError with formatted arguments.
func NewDeviceError(function, message string, args ...any) *DeviceError {
	a := ""
	for i, arg := range args {
		if i > 0 {
			a += ", "
		}
		a += fmt.Sprint(arg)
	}
	return &DeviceError{Function: function, Args: a, Message: message}
}

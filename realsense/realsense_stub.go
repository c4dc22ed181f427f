//go:build !realsense

// Package realsense implements a Go binding for the librealsense library.
// Build with the realsense tag to link against it.
package realsense

import (
	"errors"
	"fmt"

	"essaim.dev/depthcam/camera"
)

func NewContext() (camera.Context, error) {
	return nil, fmt.Errorf("built without the realsense tag: %w", errors.ErrUnsupported)
}

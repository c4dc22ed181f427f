// Package depth converts raw depth buffers to metric units and renders them.
package depth

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ToMeters converts a row-major buffer of native depth units into a
// height x width matrix of meters. Every element is float64(raw[i]) * scale;
// zero (no reading) is not treated specially.
func ToMeters(raw []uint16, width, height int, scale float64) (*mat.Dense, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid depth resolution %dx%d", width, height)
	}
	if len(raw) != width*height {
		return nil, fmt.Errorf("depth buffer has %d samples, want %d", len(raw), width*height)
	}

	data := make([]float64, len(raw))
	for i, v := range raw {
		data[i] = float64(v)
	}

	m := mat.NewDense(height, width, data)
	m.Scale(scale, m)
	return m, nil
}

// OneMeter returns the native depth value that corresponds to one meter.
func OneMeter(scale float64) uint16 {
	if scale <= 0 {
		return 0
	}
	v := math.Round(1 / scale)
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}

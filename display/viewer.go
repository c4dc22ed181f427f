// Package display shows live frames in on-screen windows.
package display

import (
	"errors"
	"image"
	"image/draw"
)

// ErrClosed is returned by Show once the viewer has been closed by the user.
var ErrClosed = errors.New("viewer closed")

// Viewer displays named images, one window per name.
type Viewer interface {
	Show(name string, img image.Image) error

	// Done is closed when the user asks to quit.
	Done() <-chan struct{}
	Close() error
}

// Nop is a headless viewer.
type Nop struct{}

func (Nop) Show(string, image.Image) error { return nil }

func (Nop) Done() <-chan struct{} { return nil }

func (Nop) Close() error { return nil }

// toRGBA converts any image to a fresh *image.RGBA anchored at the origin.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

package camera

import (
	"encoding/binary"
	"fmt"
	"image"
)

// Frame is the raw buffer of one stream at one acquisition instant.
// Timestamp is in milliseconds, as reported by the device.
type Frame struct {
	Stream    Stream
	Width     int
	Height    int
	Format    Format
	Timestamp float64
	Data      []byte
}

func (f Frame) check() error {
	bpp := f.Format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("%s frame has unsupported format %s", f.Stream, f.Format)
	}
	if want := f.Width * f.Height * bpp; len(f.Data) != want {
		return fmt.Errorf("%s frame is %d bytes, want %d for %dx%d %s",
			f.Stream, len(f.Data), want, f.Width, f.Height, f.Format)
	}
	return nil
}

// Depth decodes a 16 bit frame into native depth units.
func (f Frame) Depth() ([]uint16, error) {
	if f.Format != FormatZ16 && f.Format != FormatY16 && f.Format != FormatDisparity16 {
		return nil, fmt.Errorf("%s frame is %s, not a 16 bit format", f.Stream, f.Format)
	}
	if err := f.check(); err != nil {
		return nil, err
	}

	depth := make([]uint16, f.Width*f.Height)
	for i := range depth {
		depth[i] = binary.LittleEndian.Uint16(f.Data[i*2:])
	}
	return depth, nil
}

// Image wraps the frame as a fixed-size image. 16 bit formats give an
// *image.Gray16, 8 bit mono an *image.Gray and color formats an *image.NRGBA.
func (f Frame) Image() (image.Image, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	rect := image.Rect(0, 0, f.Width, f.Height)

	switch f.Format {
	case FormatZ16, FormatY16, FormatDisparity16:
		img := image.NewGray16(rect)
		for i := 0; i < len(f.Data); i += 2 {
			// Gray16 is big endian, the device is little endian.
			img.Pix[i] = f.Data[i+1]
			img.Pix[i+1] = f.Data[i]
		}
		return img, nil

	case FormatY8:
		img := image.NewGray(rect)
		copy(img.Pix, f.Data)
		return img, nil

	case FormatRGB8, FormatBGR8, FormatRGBA8, FormatBGRA8:
		return f.nrgba(rect), nil
	}

	return nil, fmt.Errorf("%s frame format %s has no image form", f.Stream, f.Format)
}

func (f Frame) nrgba(rect image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(rect)
	bpp := f.Format.BytesPerPixel()
	swap := f.Format == FormatBGR8 || f.Format == FormatBGRA8

	for src, dst := 0, 0; src < len(f.Data); src, dst = src+bpp, dst+4 {
		r, g, b := f.Data[src], f.Data[src+1], f.Data[src+2]
		if swap {
			r, b = b, r
		}
		a := byte(255)
		if bpp == 4 {
			a = f.Data[src+3]
		}
		img.Pix[dst], img.Pix[dst+1], img.Pix[dst+2], img.Pix[dst+3] = r, g, b, a
	}
	return img
}

package depth

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// MetersImage renders a metric depth matrix as grayscale: 0 m is black,
// 1 m and beyond is white.
func MetersImage(m *mat.Dense) *image.Gray {
	rows, cols := m.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.Pix[y*img.Stride+x] = scaleTo255(m.At(y, x))
		}
	}

	return img
}

// RawImage wraps native depth units as a 16 bit grayscale image.
func RawImage(raw []uint16, width, height int) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for i, d := range raw {
		img.Pix[2*i] = uint8(d >> 8)
		img.Pix[2*i+1] = uint8(d)
	}
	return img
}

func scaleTo255(meters float64) uint8 {
	if meters <= 0 {
		return 0
	}
	if meters >= 1 {
		return 255
	}
	return uint8(meters*255 + 0.5)
}

package depth

import (
	"math"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestToMeters(t *testing.T) {
	raw := []uint16{0, 1, 1000, 1234, 65535, 42}
	scales := []float64{0.001, 0.0010000000474974513, 0.000125, 1, 3.3}

	for _, s := range scales {
		m, err := ToMeters(raw, 3, 2, s)
		test.That(t, err, test.ShouldBeNil)

		rows, cols := m.Dims()
		test.That(t, rows, test.ShouldEqual, 2)
		test.That(t, cols, test.ShouldEqual, 3)

		for i, r := range raw {
			test.That(t, m.At(i/3, i%3), test.ShouldEqual, float64(r)*s)
		}
	}
}

func TestToMetersZeroIsNotSpecial(t *testing.T) {
	m, err := ToMeters([]uint16{0}, 1, 1, 0.001)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.At(0, 0), test.ShouldEqual, 0.0)
}

func TestToMetersRepeatable(t *testing.T) {
	raw := make([]uint16, 640*480)
	for i := range raw {
		raw[i] = uint16(i * 7)
	}
	a, err := ToMeters(append([]uint16(nil), raw...), 640, 480, 0.001)
	test.That(t, err, test.ShouldBeNil)
	b, err := ToMeters(append([]uint16(nil), raw...), 640, 480, 0.001)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(a, b), test.ShouldBeTrue)
}

func TestToMetersInvalid(t *testing.T) {
	_, err := ToMeters([]uint16{1, 2, 3}, 2, 2, 0.001)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ToMeters(nil, 0, 0, 0.001)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestOneMeter(t *testing.T) {
	test.That(t, OneMeter(0.001), test.ShouldEqual, uint16(1000))
	test.That(t, OneMeter(0.000125), test.ShouldEqual, uint16(8000))
	test.That(t, OneMeter(1e-9), test.ShouldEqual, uint16(math.MaxUint16))
	test.That(t, OneMeter(0), test.ShouldEqual, uint16(0))
}

func TestMetersImage(t *testing.T) {
	m := mat.NewDense(1, 4, []float64{0, 0.5, 1, 7.5})
	img := MetersImage(m)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 4)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 1)
	test.That(t, img.GrayAt(0, 0).Y, test.ShouldEqual, uint8(0))
	test.That(t, img.GrayAt(1, 0).Y, test.ShouldEqual, uint8(128))
	test.That(t, img.GrayAt(2, 0).Y, test.ShouldEqual, uint8(255))
	test.That(t, img.GrayAt(3, 0).Y, test.ShouldEqual, uint8(255))
}

func TestRawImage(t *testing.T) {
	img := RawImage([]uint16{0x0102, 0xfffe}, 2, 1)
	test.That(t, img.Gray16At(0, 0).Y, test.ShouldEqual, uint16(0x0102))
	test.That(t, img.Gray16At(1, 0).Y, test.ShouldEqual, uint16(0xfffe))
}

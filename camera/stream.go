// Package camera describes the device boundary shared by every depth camera
// backend: streams, formats, frames, calibration and the device error type.
package camera

import (
	"fmt"
)

// Stream identifies one channel of a device's output.
type Stream int

const (
	StreamDepth Stream = iota
	StreamColor
	StreamInfrared
	StreamInfrared2
	StreamFisheye
	StreamPoints
	StreamRectifiedColor
	StreamColorAlignedToDepth
	StreamInfrared2AlignedToDepth
	StreamDepthAlignedToColor
	StreamDepthAlignedToRectifiedColor
	StreamDepthAlignedToInfrared2
)

var streamNames = [...]string{
	StreamDepth:                        "depth",
	StreamColor:                        "color",
	StreamInfrared:                     "infrared",
	StreamInfrared2:                    "infrared2",
	StreamFisheye:                      "fisheye",
	StreamPoints:                       "points",
	StreamRectifiedColor:               "rectified_color",
	StreamColorAlignedToDepth:          "color_aligned_to_depth",
	StreamInfrared2AlignedToDepth:      "infrared2_aligned_to_depth",
	StreamDepthAlignedToColor:          "depth_aligned_to_color",
	StreamDepthAlignedToRectifiedColor: "depth_aligned_to_rectified_color",
	StreamDepthAlignedToInfrared2:      "depth_aligned_to_infrared2",
}

func (s Stream) String() string {
	if s < 0 || int(s) >= len(streamNames) {
		return fmt.Sprintf("stream(%d)", int(s))
	}
	return streamNames[s]
}

// Native reports whether the stream is produced by the sensor itself rather
// than synthesized from other streams.
func (s Stream) Native() bool {
	return s <= StreamFisheye
}

func (s Stream) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(streamNames) {
		return nil, fmt.Errorf("unknown stream %d", int(s))
	}
	return []byte(streamNames[s]), nil
}

func (s *Stream) UnmarshalText(b []byte) error {
	for i, name := range streamNames {
		if name == string(b) {
			*s = Stream(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stream %q", string(b))
}

// Format is the pixel encoding of a stream.
type Format int

const (
	FormatAny Format = iota
	FormatZ16
	FormatDisparity16
	FormatXYZ32F
	FormatYUYV
	FormatRGB8
	FormatBGR8
	FormatRGBA8
	FormatBGRA8
	FormatY8
	FormatY16
)

var formatNames = [...]string{
	FormatAny:         "any",
	FormatZ16:         "z16",
	FormatDisparity16: "disparity16",
	FormatXYZ32F:      "xyz32f",
	FormatYUYV:        "yuyv",
	FormatRGB8:        "rgb8",
	FormatBGR8:        "bgr8",
	FormatRGBA8:       "rgba8",
	FormatBGRA8:       "bgra8",
	FormatY8:          "y8",
	FormatY16:         "y16",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("format(%d)", int(f))
	}
	return formatNames[f]
}

func (f Format) MarshalText() ([]byte, error) {
	if f < 0 || int(f) >= len(formatNames) {
		return nil, fmt.Errorf("unknown format %d", int(f))
	}
	return []byte(formatNames[f]), nil
}

func (f *Format) UnmarshalText(b []byte) error {
	for i, name := range formatNames {
		if name == string(b) {
			*f = Format(i)
			return nil
		}
	}
	return fmt.Errorf("unknown format %q", string(b))
}

// BytesPerPixel returns the size of one sample, or 0 for formats without a
// fixed pixel size.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatZ16, FormatDisparity16, FormatY16, FormatYUYV:
		return 2
	case FormatRGB8, FormatBGR8:
		return 3
	case FormatRGBA8, FormatBGRA8:
		return 4
	case FormatY8:
		return 1
	case FormatXYZ32F:
		return 12
	default:
		return 0
	}
}

// StreamConfig is the fixed resolution, format and rate of an enabled stream.
type StreamConfig struct {
	Stream Stream `yaml:"stream" json:"stream"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
	Format Format `yaml:"format" json:"format"`
	FPS    int    `yaml:"fps" json:"fps"`
}

func (c StreamConfig) Validate() error {
	if !c.Stream.Native() {
		return fmt.Errorf("stream %s cannot be enabled directly", c.Stream)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid %s resolution %dx%d", c.Stream, c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid %s frame rate %d", c.Stream, c.FPS)
	}
	if c.Format.BytesPerPixel() == 0 {
		return fmt.Errorf("unsupported %s format %s", c.Stream, c.Format)
	}
	return nil
}

func (c StreamConfig) String() string {
	return fmt.Sprintf("%s %dx%d %s@%d", c.Stream, c.Width, c.Height, c.Format, c.FPS)
}

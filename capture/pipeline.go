package capture

import (
	"context"
	"fmt"
	"image"
	"io"

	"essaim.dev/depthcam/camera"
	"essaim.dev/depthcam/depth"
	"essaim.dev/depthcam/display"
)

// Probe prints the depth at the center of every depth frame and shows the
// raw depth.
type Probe struct {
	Scale  float64
	Viewer display.Viewer
	Out    io.Writer
}

func (p *Probe) HandleFrames(_ context.Context, fs FrameSet) error {
	f, err := fs.Get(camera.StreamDepth)
	if err != nil {
		return err
	}

	raw, err := f.Depth()
	if err != nil {
		return err
	}

	meters, err := depth.ToMeters(raw, f.Width, f.Height, p.Scale)
	if err != nil {
		return err
	}

	row, col := f.Height/2, f.Width/2
	fmt.Fprintln(p.Out, raw[row*f.Width+col])
	fmt.Fprintf(p.Out, "%.6g\n", meters.At(row, col))

	return p.Viewer.Show("depth_raw", depth.RawImage(raw, f.Width, f.Height))
}

// CaptureStreams are the streams read by Capturer on every frame set.
var CaptureStreams = []camera.Stream{
	camera.StreamRectifiedColor,
	camera.StreamDepthAlignedToRectifiedColor,
	camera.StreamDepth,
	camera.StreamColor,
}

// Capturer shows the color image with its aligned depth, the raw depth and
// the aligned depth in meters, and saves color and aligned depth when a
// Saver is set.
type Capturer struct {
	Scale  float64
	Viewer display.Viewer
	Saver  *Saver
	Out    io.Writer
}

func (c *Capturer) HandleFrames(_ context.Context, fs FrameSet) error {
	colorFrame, err := fs.Get(camera.StreamRectifiedColor)
	if err != nil {
		return err
	}
	alignedFrame, err := fs.Get(camera.StreamDepthAlignedToRectifiedColor)
	if err != nil {
		return err
	}
	rawFrame, err := fs.Get(camera.StreamDepth)
	if err != nil {
		return err
	}
	stamped, err := fs.Get(camera.StreamColor)
	if err != nil {
		return err
	}

	colorImg, err := colorFrame.Image()
	if err != nil {
		return err
	}
	aligned, err := alignedFrame.Depth()
	if err != nil {
		return err
	}
	raw, err := rawFrame.Depth()
	if err != nil {
		return err
	}

	meters, err := depth.ToMeters(aligned, alignedFrame.Width, alignedFrame.Height, c.Scale)
	if err != nil {
		return err
	}

	name := Filename(stamped.Timestamp)
	fmt.Fprintf(c.Out, "%sms\n", name)

	alignedImg := depth.RawImage(aligned, alignedFrame.Width, alignedFrame.Height)
	for _, v := range []struct {
		name string
		img  image.Image
	}{
		{"color", colorImg},
		{"depth_aligned_with_color", alignedImg},
		{"depth_raw", depth.RawImage(raw, rawFrame.Width, rawFrame.Height)},
		{"depth_in_meter", depth.MetersImage(meters)},
	} {
		if err := c.Viewer.Show(v.name, v.img); err != nil {
			return fmt.Errorf("could not show %s: %w", v.name, err)
		}
	}

	if c.Saver != nil {
		if err := c.Saver.Save(stamped.Timestamp, colorImg, alignedImg); err != nil {
			return err
		}
	}

	return nil
}

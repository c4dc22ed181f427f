package capture

import (
	"context"
	"fmt"
	"io"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"essaim.dev/depthcam/camera"
	"essaim.dev/depthcam/config"
	"essaim.dev/depthcam/display"
	"essaim.dev/depthcam/fake"
	"essaim.dev/depthcam/realsense"
	"essaim.dev/depthcam/recording"
)

// OpenContext opens the camera backend selected by cfg.Source.
func OpenContext(cfg config.Config) (camera.Context, error) {
	switch cfg.Source {
	case config.SourceFake:
		d := fake.NewDevice()
		d.Clock = clock.New()
		return fake.NewContext(d), nil

	case config.SourceReplay:
		p, err := recording.Open(cfg.ReplayPath, recording.WithClock(clock.New()))
		if err != nil {
			return nil, err
		}
		return p, nil

	case config.SourceRealsense:
		c, err := realsense.NewContext()
		if err != nil {
			return nil, fmt.Errorf("could not create realsense context: %w", err)
		}
		return c, nil
	}

	return nil, fmt.Errorf("unknown source %q", cfg.Source)
}

// App runs one of the capture programs against an opened camera context,
// which it closes when done.
type App struct {
	Context camera.Context
	Config  config.Config
	In      io.Reader
	Out     io.Writer
	Logger  *zap.SugaredLogger
}

// RunDepth streams depth only and prints the center depth of every frame.
func (a *App) RunDepth(ctx context.Context, v display.Viewer) (err error) {
	defer func() { err = multierr.Append(err, a.Context.Close()) }()

	sess, err := Open(a.Context, a.Out, DepthBanner, a.Logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, sess.Close()) }()

	PrintDeviceInfo(a.Out, sess.Info(), DepthBanner)

	d := a.Config.Depth
	if err := sess.Start(NoPreset, camera.StreamConfig{
		Stream: camera.StreamDepth,
		Width:  d.Width,
		Height: d.Height,
		Format: camera.FormatZ16,
		FPS:    d.FPS,
	}); err != nil {
		return err
	}

	loop := &Loop{
		Device:  sess.Device(),
		Streams: []camera.Stream{camera.StreamDepth},
		Handler: &Probe{Scale: sess.DepthScale(), Viewer: v, Out: a.Out},
		Limit:   a.Config.MaxFrames,
		Logger:  a.Logger,
	}
	return a.run(ctx, sess, loop, v)
}

// RunCapture streams depth and color, prints the calibration, asks for
// confirmation and then shows, and optionally saves, every frame set.
func (a *App) RunCapture(ctx context.Context, v display.Viewer, save bool) (err error) {
	defer func() { err = multierr.Append(err, a.Context.Close()) }()

	sess, err := Open(a.Context, a.Out, CaptureBanner, a.Logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, sess.Close()) }()

	PrintDeviceInfo(a.Out, sess.Info(), CaptureBanner)
	fmt.Fprintf(a.Out, "Depth scale: %g\n", sess.DepthScale())
	fmt.Fprintf(a.Out, "Save: %t\n\n", save)

	d, c := a.Config.Depth, a.Config.Color
	if err := sess.Start(a.Config.Preset,
		camera.StreamConfig{Stream: camera.StreamDepth, Width: d.Width, Height: d.Height, Format: camera.FormatZ16, FPS: d.FPS},
		camera.StreamConfig{Stream: camera.StreamColor, Width: c.Width, Height: c.Height, Format: camera.FormatBGR8, FPS: c.FPS},
	); err != nil {
		return err
	}

	var saver *Saver
	if save {
		saver, err = NewSaver(a.Config.LogDir, a.Logger)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, saver.Close()) }()
	}

	dev := sess.Device()
	colorIn, err := dev.Intrinsics(camera.StreamColor)
	if err != nil {
		return fmt.Errorf("could not read color intrinsics: %w", err)
	}
	depthToColor, err := dev.Extrinsics(camera.StreamDepth, camera.StreamColor)
	if err != nil {
		return fmt.Errorf("could not read extrinsics: %w", err)
	}
	PrintCalibration(a.Out, colorIn, depthToColor)

	ok, err := Confirm(a.In, a.Out)
	if err != nil {
		return err
	}
	if !ok {
		a.Logger.Info("capture declined")
		return nil
	}

	loop := &Loop{
		Device:  dev,
		Streams: CaptureStreams,
		Handler: &Capturer{Scale: sess.DepthScale(), Viewer: v, Saver: saver, Out: a.Out},
		Limit:   a.Config.MaxFrames,
		Logger:  a.Logger,
	}
	if err := a.run(ctx, sess, loop, v); err != nil {
		return err
	}

	if saver != nil {
		a.Logger.Infow("saved frames", "count", saver.Saved(), "dir", a.Config.LogDir)
	}
	return nil
}

// run attaches the optional recorder and runs the loop until ctx is canceled
// or the viewer is closed.
func (a *App) run(ctx context.Context, sess *Session, loop *Loop, v display.Viewer) (err error) {
	if a.Config.RecordPath != "" {
		hdr, herr := sess.Header()
		if herr != nil {
			return herr
		}
		rec, rerr := recording.Create(a.Config.RecordPath, hdr)
		if rerr != nil {
			return rerr
		}
		defer func() {
			a.Logger.Infow("recorded frames", "count", rec.FrameSets(), "path", a.Config.RecordPath)
			err = multierr.Append(err, rec.Close())
		}()
		loop.Recorder = rec
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-v.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	return loop.Run(ctx)
}

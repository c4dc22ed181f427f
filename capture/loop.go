package capture

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"essaim.dev/depthcam/camera"
	"essaim.dev/depthcam/display"
	"essaim.dev/depthcam/recording"
)

// FrameSet holds one frame per requested stream, in request order. It is only
// valid until the next wait.
type FrameSet []camera.Frame

func (fs FrameSet) Get(s camera.Stream) (camera.Frame, error) {
	for _, f := range fs {
		if f.Stream == s {
			return f, nil
		}
	}
	return camera.Frame{}, fmt.Errorf("frame set has no %s frame", s)
}

// Handler consumes frame sets.
type Handler interface {
	HandleFrames(ctx context.Context, fs FrameSet) error
}

type HandlerFunc func(ctx context.Context, fs FrameSet) error

func (f HandlerFunc) HandleFrames(ctx context.Context, fs FrameSet) error {
	return f(ctx, fs)
}

// FrameWriter persists raw frame sets, see recording.Writer.
type FrameWriter interface {
	WriteFrames(frames []camera.Frame) error
}

// Loop pulls synchronized frame sets from a streaming device.
type Loop struct {
	Device  camera.Device
	Streams []camera.Stream
	Handler Handler

	// Recorder, when set, receives every frame set before the handler.
	Recorder FrameWriter

	// Limit stops the loop after that many frame sets. Zero means no limit.
	Limit int

	Logger *zap.SugaredLogger
}

// Run blocks until ctx is canceled, the frame limit is reached, a replayed
// recording ends or the viewer is closed; all of these return nil. Any device
// error is returned as is, wrapped, and ends the loop.
func (l *Loop) Run(ctx context.Context) error {
	n := 0
	defer func() {
		l.Logger.Infow("frame loop stopped", "frames", n)
	}()

	for l.Limit == 0 || n < l.Limit {
		if ctx.Err() != nil {
			return nil
		}

		if err := l.Device.WaitForFrames(ctx); err != nil {
			switch {
			case errors.Is(err, recording.ErrEndOfRecording):
				return nil
			case ctx.Err() != nil && errors.Is(err, ctx.Err()):
				return nil
			}
			return fmt.Errorf("could not wait for frames: %w", err)
		}

		fs := make(FrameSet, 0, len(l.Streams))
		for _, s := range l.Streams {
			f, err := l.Device.Frame(s)
			if err != nil {
				return fmt.Errorf("could not read %s frame: %w", s, err)
			}
			fs = append(fs, f)
		}

		if l.Recorder != nil {
			if err := l.Recorder.WriteFrames(fs); err != nil {
				return fmt.Errorf("could not record frames: %w", err)
			}
		}

		if err := l.Handler.HandleFrames(ctx, fs); err != nil {
			if errors.Is(err, display.ErrClosed) {
				return nil
			}
			return fmt.Errorf("could not handle frames: %w", err)
		}
		n++
	}

	return nil
}

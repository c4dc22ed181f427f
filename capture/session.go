// Package capture drives a depth camera: it opens the device session, runs
// the frame loop and turns frame sets into console output, windows and files.
package capture

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"essaim.dev/depthcam/camera"
	"essaim.dev/depthcam/recording"
)

// NoPreset leaves the device depth control options untouched.
const NoPreset = -1

// Session is an opened device, idle until Start and streaming after.
type Session struct {
	device camera.Device
	logger *zap.SugaredLogger

	count   int
	info    camera.Info
	scale   float64
	streams []camera.StreamConfig
	started bool
}

// Open selects device 0 of cctx and reads its metadata. The number of
// connected devices is reported on out in the wording of b; none is
// ErrNoDevice.
func Open(cctx camera.Context, out io.Writer, b Banner, logger *zap.SugaredLogger) (*Session, error) {
	count, err := cctx.DeviceCount()
	if err != nil {
		return nil, fmt.Errorf("could not count devices: %w", err)
	}
	PrintDeviceCount(out, count, b)
	if count == 0 {
		return nil, camera.ErrNoDevice
	}

	device, err := cctx.Device(0)
	if err != nil {
		return nil, fmt.Errorf("could not open device: %w", err)
	}

	info, err := device.Info()
	if err != nil {
		return nil, fmt.Errorf("could not read device info: %w", err)
	}

	scale, err := device.DepthScale()
	if err != nil {
		return nil, fmt.Errorf("could not read depth scale: %w", err)
	}

	logger.Infow("opened device", "name", info.Name, "serial", info.Serial, "firmware", info.Firmware, "depth_scale", scale)

	return &Session{
		device: device,
		logger: logger,
		count:  count,
		info:   info,
		scale:  scale,
	}, nil
}

func (s *Session) Device() camera.Device {
	return s.device
}

func (s *Session) Info() camera.Info {
	return s.info
}

func (s *Session) DepthScale() float64 {
	return s.scale
}

func (s *Session) DeviceCount() int {
	return s.count
}

// Streams returns the enabled stream configurations.
func (s *Session) Streams() []camera.StreamConfig {
	return s.streams
}

// Start applies preset unless it is NoPreset, enables every stream and starts
// streaming. It may only succeed once.
func (s *Session) Start(preset int, streams ...camera.StreamConfig) error {
	if s.started {
		return errors.New("session already streaming")
	}

	if preset != NoPreset {
		if err := s.device.ApplyDepthControlPreset(preset); err != nil {
			return fmt.Errorf("could not apply depth control preset: %w", err)
		}
	}

	for _, cfg := range streams {
		if err := s.device.EnableStream(cfg); err != nil {
			return fmt.Errorf("could not enable %s stream: %w", cfg.Stream, err)
		}
		s.logger.Debugw("enabled stream", "stream", cfg.String())
	}

	if err := s.device.Start(); err != nil {
		return fmt.Errorf("could not start device: %w", err)
	}

	s.streams = streams
	s.started = true
	s.logger.Infow("streaming", "streams", len(streams))
	return nil
}

// Header describes the streaming session for a recording.
func (s *Session) Header() (recording.Header, error) {
	hdr := recording.Header{
		Info:       s.info,
		DepthScale: s.scale,
		Streams:    s.streams,
	}

	enabled := make(map[camera.Stream]bool)
	for _, cfg := range s.streams {
		in, err := s.device.Intrinsics(cfg.Stream)
		if err != nil {
			return hdr, fmt.Errorf("could not read %s intrinsics: %w", cfg.Stream, err)
		}
		hdr.Intrinsics = append(hdr.Intrinsics, recording.StreamIntrinsics{Stream: cfg.Stream, Intrinsics: in})
		enabled[cfg.Stream] = true
	}

	if enabled[camera.StreamColor] {
		for _, derived := range []camera.Stream{camera.StreamRectifiedColor, camera.StreamDepthAlignedToRectifiedColor} {
			if in, err := s.device.Intrinsics(derived); err == nil {
				hdr.Intrinsics = append(hdr.Intrinsics, recording.StreamIntrinsics{Stream: derived, Intrinsics: in})
			}
		}
	}

	if enabled[camera.StreamDepth] && enabled[camera.StreamColor] {
		ex, err := s.device.Extrinsics(camera.StreamDepth, camera.StreamColor)
		if err != nil {
			return hdr, fmt.Errorf("could not read extrinsics: %w", err)
		}
		hdr.Extrinsics = append(hdr.Extrinsics, recording.StreamExtrinsics{
			From:       camera.StreamDepth,
			To:         camera.StreamColor,
			Extrinsics: ex,
		})
	}

	return hdr, nil
}

// Close stops streaming. The camera context stays open.
func (s *Session) Close() error {
	if !s.started {
		return nil
	}
	s.started = false

	if err := s.device.Stop(); err != nil {
		return fmt.Errorf("could not stop device: %w", err)
	}
	return nil
}

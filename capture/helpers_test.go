package capture

import (
	"image"
	"sync"

	"essaim.dev/depthcam/camera"
	"essaim.dev/depthcam/config"
)

// viewerStub remembers what was shown and can simulate the user closing the
// windows after a number of images.
type viewerStub struct {
	mu      sync.Mutex
	shown   []string
	last    map[string]image.Image
	closeAt int
	done    chan struct{}
	once    sync.Once
}

func newViewerStub() *viewerStub {
	return &viewerStub{last: make(map[string]image.Image), done: make(chan struct{})}
}

func (v *viewerStub) Show(name string, img image.Image) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.shown = append(v.shown, name)
	v.last[name] = img
	if v.closeAt > 0 && len(v.shown) >= v.closeAt {
		v.once.Do(func() { close(v.done) })
	}
	return nil
}

func (v *viewerStub) Done() <-chan struct{} { return v.done }

func (v *viewerStub) Close() error { return nil }

func (v *viewerStub) names() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return append([]string(nil), v.shown...)
}

func smallConfig() config.Config {
	cfg := config.Defaults()
	cfg.Source = config.SourceFake
	cfg.Display = false
	cfg.Depth = config.StreamConfig{Width: 8, Height: 6, FPS: 30}
	cfg.Color = config.StreamConfig{Width: 8, Height: 6, FPS: 30}
	return cfg
}

var testDepthCfg = camera.StreamConfig{Stream: camera.StreamDepth, Width: 8, Height: 6, Format: camera.FormatZ16, FPS: 30}

var testColorCfg = camera.StreamConfig{Stream: camera.StreamColor, Width: 8, Height: 6, Format: camera.FormatBGR8, FPS: 30}

func contains(calls []string, op string) bool {
	for _, c := range calls {
		if c == op {
			return true
		}
	}
	return false
}

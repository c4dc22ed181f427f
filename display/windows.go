package display

import (
	"fmt"
	"image"
	"image/draw"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/size"
)

// Windows is a Viewer backed by shiny. It must be created inside the function
// given to driver.Main.
type Windows struct {
	screen screen.Screen
	logger *zap.SugaredLogger

	mu      sync.Mutex
	windows map[string]*window
	wg      sync.WaitGroup

	done     chan struct{}
	doneOnce sync.Once
}

type window struct {
	name string
	size image.Point
	w    screen.Window
	buf  screen.Buffer
	tex  screen.Texture
}

type uploadEvent struct {
	Pixels []uint8
	Size   image.Point
}

type releaseEvent struct{}

func NewWindows(s screen.Screen, logger *zap.SugaredLogger) *Windows {
	return &Windows{
		screen:  s,
		logger:  logger,
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}
}

func (v *Windows) Done() <-chan struct{} {
	return v.done
}

func (v *Windows) stop() {
	v.doneOnce.Do(func() { close(v.done) })
}

// Show uploads img to the window called name, opening it on first use.
func (v *Windows) Show(name string, img image.Image) error {
	select {
	case <-v.done:
		return ErrClosed
	default:
	}

	rgba := toRGBA(img)
	drawCaption(rgba, name)

	win, err := v.window(name, rgba.Bounds().Size())
	if err != nil {
		return err
	}

	win.w.Send(uploadEvent{Pixels: rgba.Pix, Size: rgba.Bounds().Size()})
	return nil
}

func (v *Windows) window(name string, sz image.Point) (*window, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if win, ok := v.windows[name]; ok {
		return win, nil
	}

	w, err := v.screen.NewWindow(&screen.NewWindowOptions{
		Title:  name,
		Width:  sz.X,
		Height: sz.Y,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create window: %w", err)
	}

	tex, err := v.screen.NewTexture(sz)
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("could not create texture: %w", err)
	}

	buf, err := v.screen.NewBuffer(sz)
	if err != nil {
		tex.Release()
		w.Release()
		return nil, fmt.Errorf("could not create buffer: %w", err)
	}

	win := &window{name: name, size: sz, w: w, buf: buf, tex: tex}
	v.windows[name] = win

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		v.handleEvents(win)
	}()

	v.logger.Debugw("opened window", "name", name, "width", sz.X, "height", sz.Y)
	return win, nil
}

func (v *Windows) handleEvents(win *window) {
	defer win.w.Release()
	defer win.tex.Release()
	defer win.buf.Release()

	sizeEvent := size.Event{WidthPx: win.size.X, HeightPx: win.size.Y}
	for {
		event := win.w.NextEvent()

		switch e := event.(type) {
		case releaseEvent:
			return

		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				v.stop()
				return
			}

		case key.Event:
			if e.Code == key.CodeEscape {
				v.stop()
			}

		case size.Event:
			sizeEvent = e

		case uploadEvent:
			if e.Size != win.size {
				v.logger.Warnw("dropping frame with unexpected size", "window", win.name, "size", e.Size, "want", win.size)
				continue
			}
			copy(win.buf.RGBA().Pix, e.Pixels)
			win.tex.Upload(image.Point{}, win.buf, win.buf.Bounds())
		}

		win.w.Scale(sizeEvent.Bounds(), win.tex, win.tex.Bounds(), draw.Src, nil)
		win.w.Publish()
	}
}

// Close releases every window and waits for their event loops to end.
func (v *Windows) Close() error {
	v.mu.Lock()
	windows := v.windows
	v.windows = make(map[string]*window)
	v.mu.Unlock()

	for _, win := range windows {
		win.w.Send(releaseEvent{})
	}
	v.wg.Wait()
	v.stop()

	return nil
}

// Package recording stores frame sets in a zstd compressed archive and plays
// them back as a camera.
package recording

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"

	"essaim.dev/depthcam/camera"
)

const magic = "DCREC001"

// maxHeaderSize bounds the JSON header so a corrupt archive cannot request a
// huge allocation.
const maxHeaderSize = 1 << 20

// ErrEndOfRecording is returned by a playing device after its last frame set.
var ErrEndOfRecording = errors.New("end of recording")

// Header describes the device a recording was made with.
type Header struct {
	Info       camera.Info           `json:"info"`
	DepthScale float64               `json:"depth_scale"`
	Streams    []camera.StreamConfig `json:"streams"`
	Intrinsics []StreamIntrinsics    `json:"intrinsics,omitempty"`
	Extrinsics []StreamExtrinsics    `json:"extrinsics,omitempty"`
}

type StreamIntrinsics struct {
	Stream     camera.Stream     `json:"stream"`
	Intrinsics camera.Intrinsics `json:"intrinsics"`
}

type StreamExtrinsics struct {
	From       camera.Stream     `json:"from"`
	To         camera.Stream     `json:"to"`
	Extrinsics camera.Extrinsics `json:"extrinsics"`
}

// frameHeader precedes every frame payload.
type frameHeader struct {
	Stream    uint8
	Format    uint8
	Width     uint16
	Height    uint16
	Timestamp float64
	Size      uint32
}

// Writer appends frame sets to a recording.
type Writer struct {
	file    io.Closer
	encoder *zstd.Encoder
	buf     *bufio.Writer

	frames int
}

// Create writes a new recording to path.
func Create(path string, hdr Header) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create recording: %w", err)
	}

	w, err := NewWriter(f, hdr)
	if err != nil {
		return nil, multierr.Combine(err, f.Close())
	}
	w.file = f

	return w, nil
}

func NewWriter(w io.Writer, hdr Header) (*Writer, error) {
	encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("could not create encoder: %w", err)
	}

	rw := &Writer{
		encoder: encoder,
		buf:     bufio.NewWriterSize(encoder, 1<<16),
	}

	b, err := json.Marshal(hdr)
	if err != nil {
		return nil, fmt.Errorf("could not encode recording header: %w", err)
	}

	if _, err := rw.buf.WriteString(magic); err != nil {
		return nil, fmt.Errorf("could not write recording header: %w", err)
	}
	if err := binary.Write(rw.buf, binary.LittleEndian, uint32(len(b))); err != nil {
		return nil, fmt.Errorf("could not write recording header: %w", err)
	}
	if _, err := rw.buf.Write(b); err != nil {
		return nil, fmt.Errorf("could not write recording header: %w", err)
	}

	return rw, nil
}

// WriteFrames appends one synchronized frame set.
func (w *Writer) WriteFrames(frames []camera.Frame) error {
	if len(frames) == 0 || len(frames) > 255 {
		return fmt.Errorf("invalid frame set size %d", len(frames))
	}

	if err := w.buf.WriteByte(byte(len(frames))); err != nil {
		return fmt.Errorf("could not write frame set: %w", err)
	}

	for _, f := range frames {
		fh := frameHeader{
			Stream:    uint8(f.Stream),
			Format:    uint8(f.Format),
			Width:     uint16(f.Width),
			Height:    uint16(f.Height),
			Timestamp: f.Timestamp,
			Size:      uint32(len(f.Data)),
		}
		if err := binary.Write(w.buf, binary.LittleEndian, fh); err != nil {
			return fmt.Errorf("could not write %s frame: %w", f.Stream, err)
		}
		if _, err := w.buf.Write(f.Data); err != nil {
			return fmt.Errorf("could not write %s frame: %w", f.Stream, err)
		}
	}

	w.frames++
	return nil
}

// FrameSets returns the number of frame sets written so far.
func (w *Writer) FrameSets() int {
	return w.frames
}

func (w *Writer) Close() error {
	err := w.buf.Flush()
	err = multierr.Append(err, w.encoder.Close())
	if w.file != nil {
		err = multierr.Append(err, w.file.Close())
	}
	return err
}

func readHeader(r io.Reader) (Header, error) {
	var hdr Header

	m := make([]byte, len(magic))
	if _, err := io.ReadFull(r, m); err != nil {
		return hdr, fmt.Errorf("could not read recording magic: %w", err)
	}
	if string(m) != magic {
		return hdr, fmt.Errorf("not a recording: bad magic %q", m)
	}

	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return hdr, fmt.Errorf("could not read recording header: %w", err)
	}
	if size > maxHeaderSize {
		return hdr, fmt.Errorf("recording header too large: %d bytes", size)
	}

	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return hdr, fmt.Errorf("could not read recording header: %w", err)
	}
	if err := json.Unmarshal(b, &hdr); err != nil {
		return hdr, fmt.Errorf("could not decode recording header: %w", err)
	}

	return hdr, nil
}

// readFrames reads one frame set. It returns io.EOF only on a clean boundary.
func readFrames(r *bufio.Reader) ([]camera.Frame, error) {
	n, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.New("empty frame set")
	}

	frames := make([]camera.Frame, 0, n)
	for i := 0; i < int(n); i++ {
		var fh frameHeader
		if err := binary.Read(r, binary.LittleEndian, &fh); err != nil {
			return nil, fmt.Errorf("could not read frame header: %w", noEOF(err))
		}

		f := camera.Frame{
			Stream:    camera.Stream(fh.Stream),
			Format:    camera.Format(fh.Format),
			Width:     int(fh.Width),
			Height:    int(fh.Height),
			Timestamp: fh.Timestamp,
		}
		if want := f.Width * f.Height * f.Format.BytesPerPixel(); int(fh.Size) != want {
			return nil, fmt.Errorf("%s frame is %d bytes, want %d", f.Stream, fh.Size, want)
		}

		f.Data = make([]byte, fh.Size)
		if _, err := io.ReadFull(r, f.Data); err != nil {
			return nil, fmt.Errorf("could not read %s frame: %w", f.Stream, noEOF(err))
		}
		frames = append(frames, f)
	}

	return frames, nil
}

func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

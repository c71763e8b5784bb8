package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/Faultbox/cavegen/internal/scatter"
	"github.com/Faultbox/cavegen/pkg/math"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// record is one JSON line.
type record struct {
	Category    scatter.Category `json:"category"`
	Variant     int              `json:"variant"`
	Position    [3]float32       `json:"position"`
	Normal      [3]float32       `json:"normal"`
	Orientation [4]float32       `json:"orientation"` // x, y, z, w
}

func toRecord(p scatter.Placement) record {
	q := p.Orientation
	return record{
		Category:    p.Category,
		Variant:     p.Variant,
		Position:    p.Position.Array(),
		Normal:      p.Normal.Array(),
		Orientation: [4]float32{q.X, q.Y, q.Z, q.W},
	}
}

func (r record) placement() scatter.Placement {
	return scatter.Placement{
		Category:    r.Category,
		Variant:     r.Variant,
		Position:    math.Vec3{X: r.Position[0], Y: r.Position[1], Z: r.Position[2]},
		Normal:      math.Vec3{X: r.Normal[0], Y: r.Normal[1], Z: r.Normal[2]},
		Orientation: math.Quat{X: r.Orientation[0], Y: r.Orientation[1], Z: r.Orientation[2], W: r.Orientation[3]},
	}
}

// PlacementWriter writes placements as JSON lines. Paths ending in .zst
// are zstd-compressed.
type PlacementWriter struct {
	f     *os.File
	enc   *zstd.Encoder
	w     *bufio.Writer
	count int
}

// NewPlacementWriter creates (or truncates) path.
func NewPlacementWriter(path string) (*PlacementWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	pw := &PlacementWriter{f: f}
	var dst io.Writer = f
	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		pw.enc = enc
		dst = enc
	}
	pw.w = bufio.NewWriterSize(dst, 64*1024)
	return pw, nil
}

// Instantiate appends one placement.
func (w *PlacementWriter) Instantiate(p scatter.Placement) error {
	b, err := json.Marshal(toRecord(p))
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of placements written.
func (w *PlacementWriter) Count() int {
	return w.count
}

// Close flushes and closes the file.
func (w *PlacementWriter) Close() error {
	errFlush := w.w.Flush()
	var errEnc error
	if w.enc != nil {
		errEnc = w.enc.Close()
	}
	errClose := w.f.Close()
	return errors.Join(errFlush, errEnc, errClose)
}

// ReadPlacements reads a file written by PlacementWriter. Compression is
// detected from the content.
func ReadPlacements(path string) ([]scatter.Placement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)
	var src io.Reader = br
	if head, _ := br.Peek(len(zstdMagic)); bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		src = dec
	}

	var out []scatter.Placement
	sc := bufio.NewScanner(src)
	line := 0
	for sc.Scan() {
		line++
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var r record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("export: %s line %d: %w", path, line, err)
		}
		out = append(out, r.placement())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

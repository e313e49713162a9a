// Package testutil provides test doubles shared by package tests.
package testutil

import (
	"errors"
	"fmt"

	"github.com/gogpu/dotmap/canvas"
)

// ErrCompositeFailed is returned by a Recorder with FailComposite set.
var ErrCompositeFailed = errors.New("testutil: composite failed")

// RecordedBatch is a snapshot of one composited batch.
type RecordedBatch struct {
	Paint canvas.Paint
	Ops   []canvas.Op
}

// Recorder is a Canvas that records batches instead of drawing them.
type Recorder struct {
	W, H    int
	Batches []RecordedBatch

	// Encoded lists the formats passed to successful Encode calls.
	Encoded []string
	// Written lists "FORMAT path" for successful WriteFile calls.
	Written []string

	FailComposite bool
	formats       canvas.FormatTable
}

// NewRecorder creates a recorder with the default capability table.
func NewRecorder(w, h int) *Recorder {
	return &Recorder{W: w, H: h, formats: canvas.DefaultFormats()}
}

// Width implements canvas.Canvas.
func (r *Recorder) Width() int { return r.W }

// Height implements canvas.Canvas.
func (r *Recorder) Height() int { return r.H }

// Composite implements canvas.Canvas.
func (r *Recorder) Composite(b *canvas.Batch) error {
	if r.FailComposite {
		return ErrCompositeFailed
	}
	ops := append([]canvas.Op(nil), b.Ops()...)
	r.Batches = append(r.Batches, RecordedBatch{Paint: b.Paint, Ops: ops})
	return nil
}

// Encode implements canvas.Canvas.
func (r *Recorder) Encode(format string) ([]byte, error) {
	f, err := r.formats.Require(format, canvas.CapBlob)
	if err != nil {
		return nil, err
	}
	r.Encoded = append(r.Encoded, f.Name)
	return []byte(f.Name), nil
}

// WriteFile implements canvas.Canvas.
func (r *Recorder) WriteFile(format, path string) error {
	f, err := r.formats.Require(format, canvas.CapWrite)
	if err != nil {
		return err
	}
	r.Written = append(r.Written, fmt.Sprintf("%s %s", f.Name, path))
	return nil
}

// Formats implements canvas.Canvas.
func (r *Recorder) Formats() canvas.FormatTable { return r.formats }

// Ops returns every recorded operation across all batches.
func (r *Recorder) Ops() []canvas.Op {
	var ops []canvas.Op
	for _, b := range r.Batches {
		ops = append(ops, b.Ops...)
	}
	return ops
}

var _ canvas.Canvas = (*Recorder)(nil)

// Package signature captures freehand strokes into a raster image.
// Input arrives as pointer coordinates — mouse and touch sources look
// identical by the time they get here. All strokes drawn between Clear
// calls accumulate into one signature; there is no undo.
package signature

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
)

// Canvas dimensions, matching the capture surface in the UI.
const (
	Width  = 350
	Height = 140
)

const strokeWidth = 3

// Point is a pointer-device coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pad is a stateful capture surface over a fixed-size raster canvas.
type Pad struct {
	mu       sync.Mutex
	dc       *gg.Context
	origin   Point // canvas origin in client space
	drawing  bool
	last     Point
	snapshot []byte // PNG of the canvas at the last End
}

// NewPad creates an empty, transparent capture surface.
func NewPad() *Pad {
	return &Pad{dc: newCanvas()}
}

func newCanvas() *gg.Context {
	dc := gg.NewContext(Width, Height)
	dc.SetColor(color.Transparent)
	dc.Clear()
	return dc
}

// SetOrigin sets the canvas origin in client space. Subsequent points
// are translated from client coordinates into canvas-local ones.
func (p *Pad) SetOrigin(x, y float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.origin = Point{X: x, Y: y}
}

func (p *Pad) toCanvas(client Point) Point {
	return Point{X: client.X - p.origin.X, Y: client.Y - p.origin.Y}
}

// Begin starts a new path at a client-space coordinate.
func (p *Pad) Begin(client Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = p.toCanvas(client)
	p.drawing = true
}

// Extend appends a line segment from the last point while capture is
// active. No-op when not drawing.
func (p *Pad) Extend(client Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.drawing {
		return
	}
	pt := p.toCanvas(client)
	p.dc.SetRGB(0, 0, 0)
	p.dc.SetLineWidth(strokeWidth)
	p.dc.SetLineCap(gg.LineCapRound)
	p.dc.DrawLine(p.last.X, p.last.Y, pt.X, pt.Y)
	p.dc.Stroke()
	p.last = pt
}

// End closes capture and snapshots the canvas as the current signature.
// Returns the PNG bytes, or nil if capture was not active.
func (p *Pad) End() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.drawing {
		return nil, nil
	}
	p.drawing = false

	var buf bytes.Buffer
	if err := p.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("snapshot signature: %w", err)
	}
	p.snapshot = buf.Bytes()
	return p.snapshot, nil
}

// Clear wipes the canvas and discards the snapshot.
func (p *Pad) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dc = newCanvas()
	p.drawing = false
	p.snapshot = nil
}

// Signature returns the current snapshot PNG and whether one exists.
func (p *Pad) Signature() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot, p.snapshot != nil
}

// DataURI returns the snapshot as a portable data URI, the form the
// browser canvas hands around.
func (p *Pad) DataURI() (string, bool) {
	snap, ok := p.Signature()
	if !ok {
		return "", false
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(snap), true
}

// Package render lays out composed message text, with per-character
// word wrap, onto a raster canvas and composites an optional hand-drawn
// signature. The render is two-phase: a synchronous text pass produces
// the draft surface, then the signature image is decoded and attached
// before the final PNG is produced.
package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // accept jpeg signatures from imported backups
	"image/png"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/fankeji/debtbook/internal/domain"
)

// Layout constants, in logical (unscaled) pixels.
const (
	Width         = 600
	Padding       = 40
	LineHeight    = 35
	FontSize      = 20
	Scale         = 2 // supersampling factor for crisper output
	signatureArea = 140
	footerGap     = 60
	sigWidth      = 140
	watermarkSize = 14
	captionSize   = 12
)

const (
	watermarkText = "有借有还 App 生成"
	captionText   = "签署人手写签名："
)

// MIMEType is the media type the image is offered under.
const MIMEType = "image/png"

// Renderer rasterizes messages. Safe for concurrent use.
type Renderer struct {
	mu      sync.Mutex
	body    font.Face // serif body face at FontSize
	bodyHi  font.Face // body face at FontSize*Scale
	mark    font.Face // bold watermark face at watermarkSize*Scale
	caption font.Face // caption face at captionSize*Scale
	now     func() time.Time
}

// New creates a renderer using the embedded faces. fontPath optionally
// points at a serif TTF with CJK coverage to use for body text instead.
func New(fontPath string) (*Renderer, error) {
	body := goregular.TTF
	if fontPath != "" {
		data, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("load body font: %w", err)
		}
		body = data
	}

	bodyFace, err := newFace(body, FontSize)
	if err != nil {
		return nil, err
	}
	bodyHiFace, err := newFace(body, FontSize*Scale)
	if err != nil {
		return nil, err
	}
	markFace, err := newFace(gobold.TTF, watermarkSize*Scale)
	if err != nil {
		return nil, err
	}
	captionFace, err := newFace(goregular.TTF, captionSize*Scale)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		body:    bodyFace,
		bodyHi:  bodyHiFace,
		mark:    markFace,
		caption: captionFace,
		now:     time.Now,
	}, nil
}

func newFace(ttf []byte, points float64) (font.Face, error) {
	ft, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    points,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build face: %w", err)
	}
	return face, nil
}

// ─── Layout ─────────────────────────────────────────────────────────────────

// Wrap splits text on explicit line breaks into paragraphs and greedily
// wraps each paragraph's characters into lines bounded by the content
// width. Empty paragraphs survive as blank lines.
func (r *Renderer) Wrap(text string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(1, 1)
	dc.SetFontFace(r.body)
	limit := float64(Width - 2*Padding)

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if para == "" {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, ch := range para {
			if w, _ := dc.MeasureString(line + string(ch)); w > limit && line != "" {
				lines = append(lines, line)
				line = string(ch)
			} else {
				line += string(ch)
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// heightFor computes the logical canvas height for a line count.
func heightFor(lineCount int, withSignature bool) int {
	h := Padding*2 + lineCount*LineHeight + footerGap
	if withSignature {
		h += signatureArea
	}
	return h
}

// ─── Rendering ──────────────────────────────────────────────────────────────

// Result is a finished render: the encoded raster plus its dimensions
// and download name.
type Result struct {
	PNG               []byte
	Width             int // physical pixels (logical × Scale)
	Height            int
	SignatureAttached bool
	Filename          string
}

// Render rasterizes the composed text for a record. sig, when non-nil,
// holds the signature image as PNG bytes or a data URI; it is reserved
// space and composited only for outgoing records. Signature decoding is
// asynchronous — finalization waits for it, and a decode failure or ctx
// cancellation degrades to text-only output rather than hanging.
func (r *Renderer) Render(ctx context.Context, rec domain.DebtRecord, text string, sig []byte) (Result, error) {
	lines := r.Wrap(text)
	withSig := len(sig) > 0 && rec.Type == domain.Outgoing
	height := heightFor(len(lines), withSig)

	// Kick off the attach phase before painting the draft.
	var sigCh chan decodedSignature
	if withSig {
		sigCh = make(chan decodedSignature, 1)
		go func() { sigCh <- decodeSignature(sig) }()
	}

	r.mu.Lock()
	dc := gg.NewContext(Width*Scale, Height(height))
	dc.SetHexColor("#ffffff")
	dc.Clear()

	// Watermark caption, top center.
	dc.SetFontFace(r.mark)
	dc.SetHexColor("#e5e7eb")
	dc.DrawStringAnchored(watermarkText, Width*Scale/2, 20*Scale, 0.5, 0.5)

	// Body text, left aligned, top to bottom.
	dc.SetFontFace(r.bodyHi)
	dc.SetHexColor("#1f2937")
	ascent := float64(r.bodyHi.Metrics().Ascent.Ceil())
	y := float64(Padding)
	for _, line := range lines {
		if line != "" {
			dc.DrawString(line, Padding*Scale, y*Scale+ascent)
		}
		y += LineHeight
	}
	r.mu.Unlock()

	result := Result{
		Width:    Width * Scale,
		Height:   height * Scale,
		Filename: fmt.Sprintf("借款承诺书_%d.png", r.now().UnixMilli()),
	}

	if withSig {
		select {
		case d := <-sigCh:
			if d.err == nil {
				r.attachSignature(dc, d.img, y)
				result.SignatureAttached = true
			}
			// Decode failure: keep the text-only draft.
		case <-ctx.Done():
			// Never hang on a signature that won't load.
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return Result{}, fmt.Errorf("encode render: %w", err)
	}
	result.PNG = buf.Bytes()
	return result, nil
}

// Height converts a logical height to physical pixels.
func Height(logical int) int { return logical * Scale }

// attachSignature composites the signature right-aligned below the text
// block at textBottom, with its caption label to the left.
func (r *Renderer) attachSignature(dc *gg.Context, img image.Image, textBottom float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := img.Bounds()
	if b.Dx() == 0 {
		return
	}
	factor := float64(sigWidth) / float64(b.Dx())
	sigH := float64(b.Dy()) * factor
	sigX := float64(Width - Padding - sigWidth)
	sigY := textBottom + 30

	dc.Push()
	dc.Translate(sigX*Scale, sigY*Scale)
	dc.Scale(factor*Scale, factor*Scale)
	dc.DrawImage(img, 0, 0)
	dc.Pop()

	dc.SetFontFace(r.caption)
	dc.SetHexColor("#9ca3af")
	dc.DrawStringAnchored(captionText, (sigX-10)*Scale, (sigY+sigH/2)*Scale, 1, 0.5)
}

type decodedSignature struct {
	img image.Image
	err error
}

// decodeSignature accepts raw image bytes or a base64 data URI.
func decodeSignature(sig []byte) decodedSignature {
	data := sig
	if bytes.HasPrefix(sig, []byte("data:")) {
		i := bytes.IndexByte(sig, ',')
		if i < 0 {
			return decodedSignature{err: domain.ErrBadSignature}
		}
		decoded, err := base64.StdEncoding.DecodeString(string(sig[i+1:]))
		if err != nil {
			return decodedSignature{err: fmt.Errorf("%w: %v", domain.ErrBadSignature, err)}
		}
		data = decoded
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return decodedSignature{err: fmt.Errorf("%w: %v", domain.ErrBadSignature, err)}
	}
	return decodedSignature{img: img}
}

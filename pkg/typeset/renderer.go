// renderer.go - Shadowed, centered text rendering onto a canvas.
// Each line is rasterized once into an alpha mask, stamped in the shadow
// color at every offset of a (2r+1)x(2r+1) neighborhood except the center,
// then stamped once in the text color. A line that fails to rasterize is
// retried once and then skipped; the outcome of every line is reported.
package typeset

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/xob0t/storycard/internal/logging"
	"github.com/xob0t/storycard/pkg/fonts"
)

// ShadowRadius is the largest shadow offset in each axis.
const ShadowRadius = 3

// RasterizeFunc renders text with face into an alpha mask whose coordinates
// are relative to the baseline origin.
type RasterizeFunc func(face font.Face, text string) (*image.Alpha, error)

// Style holds the colors used for one image.
type Style struct {
	Text   color.Color
	Shadow color.Color
}

// Renderer draws laid-out text. It holds no per-image state and may be
// shared between goroutines as long as RasterizeFunc is safe to share.
type Renderer struct {
	rasterize RasterizeFunc
	logger    *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithRasterizer replaces the glyph rasterizer.
func WithRasterizer(fn RasterizeFunc) Option {
	return func(r *Renderer) { r.rasterize = fn }
}

// WithLogger sets the logger. Nil selects the shared logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// NewRenderer creates a Renderer using the x/image font drawer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{rasterize: Rasterize}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.Or(r.logger)
	return r
}

// Render lays out text for h, centers it on dst and draws it with a shadow.
// It never fails: problems are recorded per line in the returned Report.
func (r *Renderer) Render(dst draw.Image, h *fonts.Handle, text string, style Style) *Report {
	report := &Report{
		FontName:     h.Name,
		FontSize:     h.Size,
		FontDegraded: h.Degraded,
		TextColor:    hexColor(style.Text),
	}

	face, err := h.NewFace()
	if err != nil {
		r.logger.Warn("font face unavailable, using built-in font", "font", h.Name, "error", err)
		face, _ = fonts.Builtin(h.Size, h.Script).NewFace()
	}
	defer face.Close()

	b := dst.Bounds()
	lines := Layout(text, FaceMeasurer{Face: face}, b.Dx()-2*MarginX)
	ascent := face.Metrics().Ascent.Ceil()
	for _, p := range Place(lines, h.Size, ascent, b.Dx(), b.Dy()) {
		if p.Blank() {
			continue
		}
		p.X += b.Min.X
		p.Baseline += b.Min.Y
		report.Lines = append(report.Lines, r.drawLine(dst, face, h, p, style))
	}

	if n := report.Skipped(); n > 0 {
		r.logger.Warn("text lines skipped", "skipped", n, "lines", len(report.Lines))
	}
	return report
}

func (r *Renderer) drawLine(dst draw.Image, face font.Face, h *fonts.Handle, p Placement, style Style) LineResult {
	res := LineResult{Index: p.Index, Text: p.Text, Status: StatusOK}

	err := r.stamp(dst, face, p, style)
	if err != nil {
		r.logger.Warn("line draw failed, retrying", "line", p.Index, "error", err)
		if err2 := r.stamp(dst, face, p, style); err2 != nil {
			r.logger.Warn("line skipped", "line", p.Index, "error", err2)
			res.Status = StatusSkipped
			res.Err = err2.Error()
			return res
		}
		res.Status = StatusDegraded
		res.Err = err.Error()
		return res
	}
	if !h.CoversAll(p.Text) {
		res.Status = StatusDegraded
	}
	r.logger.Debug("line drawn", "line", p.Index, "x", p.X, "baseline", p.Baseline, "status", res.Status)
	return res
}

// stamp rasterizes the line once and composites the shadow ring and the
// main text. Nothing is drawn when rasterization fails.
func (r *Renderer) stamp(dst draw.Image, face font.Face, p Placement, style Style) error {
	mask, err := r.rasterize(face, p.Text)
	if err != nil {
		return err
	}
	mb := mask.Bounds()
	origin := image.Pt(p.X, p.Baseline)

	shadow := image.NewUniform(style.Shadow)
	for dy := -ShadowRadius; dy <= ShadowRadius; dy++ {
		for dx := -ShadowRadius; dx <= ShadowRadius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			rect := mb.Add(origin.Add(image.Pt(dx, dy)))
			draw.DrawMask(dst, rect, shadow, image.Point{}, mask, mb.Min, draw.Over)
		}
	}
	draw.DrawMask(dst, mb.Add(origin), image.NewUniform(style.Text), image.Point{}, mask, mb.Min, draw.Over)
	return nil
}

// Rasterize draws text into a tight alpha mask using font.Drawer. Panics
// from the face are reported as errors.
func Rasterize(face font.Face, text string) (mask *image.Alpha, err error) {
	defer func() {
		if v := recover(); v != nil {
			mask, err = nil, fmt.Errorf("rasterize %q: %v", text, v)
		}
	}()

	bounds, _ := font.BoundString(face, text)
	rect := image.Rect(
		bounds.Min.X.Floor(), bounds.Min.Y.Floor(),
		bounds.Max.X.Ceil(), bounds.Max.Y.Ceil(),
	)
	mask = image.NewAlpha(rect)
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{},
	}
	d.DrawString(text)
	return mask, nil
}

func hexColor(c color.Color) string {
	if c == nil {
		return ""
	}
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// Package generator composes story images: gradient background, decorative
// overlay and centered, shadowed text, written as 1080x1920 PNG files.
//
// All output follows one pipeline: render an *image.RGBA in memory, then
// serialize it atomically into the output directory.
package generator

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/xob0t/storycard/internal/logging"
	"github.com/xob0t/storycard/internal/util"
	"github.com/xob0t/storycard/pkg/fonts"
	"github.com/xob0t/storycard/pkg/typeset"
)

// Request describes one image.
type Request struct {
	Text string
	// Palette holds the gradient stops and the overlay colors. Empty
	// selects a random default palette for the gradient and the first
	// default palette for the overlay.
	Palette   Palette
	Direction Direction
	// Seed makes the image reproducible. Zero draws a random seed.
	Seed uint64
}

// FontResolver picks a font for a size and sample text. *fonts.Resolver
// implements it.
type FontResolver interface {
	Resolve(ctx context.Context, size float64, sample string) *fonts.Handle
}

// Policy decides what a batch does when one item fails.
type Policy int

const (
	// FailFast stops at the first failed item and removes every file the
	// batch already wrote.
	FailFast Policy = iota
	// BestEffort renders every item and reports failures per item.
	BestEffort
)

func (p Policy) String() string {
	if p == BestEffort {
		return "best-effort"
	}
	return "fail-fast"
}

// ParsePolicy maps "best-effort" to BestEffort and anything else to
// FailFast.
func ParsePolicy(s string) Policy {
	switch s {
	case "best-effort", "besteffort", "continue":
		return BestEffort
	}
	return FailFast
}

// Result is the outcome of one batch item.
type Result struct {
	Index  int             `json:"index"`
	Path   string          `json:"path,omitempty"`
	Report *typeset.Report `json:"report,omitempty"`
	Err    error           `json:"-"`
}

// Batch is the outcome of ComposeBatch. All files share Stamp.
type Batch struct {
	Stamp   int64    `json:"stamp"`
	Results []Result `json:"results"`
}

// Paths lists the written files in index order.
func (b *Batch) Paths() []string {
	var out []string
	for _, r := range b.Results {
		if r.Path != "" {
			out = append(out, r.Path)
		}
	}
	return out
}

// Composer turns requests into image files. It is safe for concurrent use.
type Composer struct {
	fonts    FontResolver
	renderer *typeset.Renderer
	outDir   string
	prefix   string
	workers  int
	policy   Policy
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithOutputDir sets the directory images are written to.
func WithOutputDir(dir string) Option {
	return func(c *Composer) { c.outDir = dir }
}

// WithPrefix sets the file name prefix.
func WithPrefix(p string) Option {
	return func(c *Composer) { c.prefix = p }
}

// WithWorkers bounds how many batch items render at once. Values below 1
// select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Composer) { c.workers = n }
}

// WithPolicy sets the batch failure policy.
func WithPolicy(p Policy) Option {
	return func(c *Composer) { c.policy = p }
}

// WithClock replaces time.Now for batch stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithRenderer replaces the text renderer.
func WithRenderer(r *typeset.Renderer) Option {
	return func(c *Composer) { c.renderer = r }
}

// WithLogger sets the logger. Nil selects the shared logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) { c.logger = l }
}

// NewComposer creates a Composer that resolves fonts through r.
func NewComposer(r FontResolver, opts ...Option) *Composer {
	c := &Composer{
		fonts:  r,
		outDir: "output",
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.Or(c.logger)
	if c.renderer == nil {
		c.renderer = typeset.NewRenderer(typeset.WithLogger(c.logger))
	}
	if c.workers < 1 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// OutputDir returns the directory images are written to.
func (c *Composer) OutputDir() string { return c.outDir }

// Render runs the in-memory pipeline for req: gradient, overlay, font
// resolution, layout and text. All randomness comes from rng.
func (c *Composer) Render(ctx context.Context, req Request, rng *rand.Rand) (*image.RGBA, *typeset.Report) {
	dir := req.Direction
	if dir == DirectionRandom {
		dir = Direction(rng.IntN(3))
	}
	gradient, overlay := req.Palette, req.Palette
	if len(gradient) == 0 {
		gradient = PickPalette(rng)
		overlay = DefaultPalettes[0]
	}

	img := RenderGradient(gradient, dir)
	ApplyOverlay(img, overlay, rng)

	size := typeset.FontSize(req.Text)
	h := c.fonts.Resolve(ctx, size, req.Text)

	text := PickTextColor(rng)
	report := c.renderer.Render(img, h, req.Text, typeset.Style{
		Text:   text.Opaque(),
		Shadow: ShadowColor(text).Opaque(),
	})
	return img, report
}

// Compose renders one request into its own file and returns the result.
func (c *Composer) Compose(ctx context.Context, req Request) (Result, error) {
	b, err := c.ComposeBatch(ctx, []Request{req})
	if err != nil {
		return Result{}, err
	}
	return b.Results[0], nil
}

// ComposeBatch renders reqs concurrently. Every file carries the same stamp,
// captured once, and the item's zero-padded index.
//
// Under FailFast the first failure cancels the remaining items, removes
// every file already written and is returned as an *ItemError. Under
// BestEffort the batch always completes and the returned error joins the
// per-item failures.
func (c *Composer) ComposeBatch(ctx context.Context, reqs []Request) (*Batch, error) {
	if err := util.EnsureDir(c.outDir); err != nil {
		return nil, outputError("create output dir", c.outDir, err)
	}

	b := &Batch{
		Stamp:   c.now().UnixMilli(),
		Results: make([]Result, len(reqs)),
	}
	c.logger.Info("batch started", "items", len(reqs), "stamp", b.Stamp, "policy", c.policy)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(c.workers, max(len(reqs), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				b.Results[i] = c.composeItem(runCtx, b.Stamp, i, reqs[i])
				if b.Results[i].Err != nil && c.policy == FailFast {
					cancel()
				}
			}
		}()
	}
	for i := range reqs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if c.policy == BestEffort {
		var errs []error
		for _, r := range b.Results {
			if r.Err != nil {
				errs = append(errs, &ItemError{Index: r.Index, Err: r.Err})
			}
		}
		c.logger.Info("batch finished", "written", len(b.Paths()), "failed", len(errs))
		return b, errors.Join(errs...)
	}

	if first := firstFailure(b.Results, ctx); first != nil {
		c.removeWritten(b)
		c.logger.Warn("batch aborted", "item", first.Index, "error", first.Err)
		return nil, first
	}
	c.logger.Info("batch finished", "written", len(b.Paths()))
	return b, nil
}

func (c *Composer) composeItem(ctx context.Context, stamp int64, index int, req Request) Result {
	res := Result{Index: index}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	seed := req.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	img, report := c.Render(ctx, req, rand.New(rand.NewPCG(seed, uint64(index))))
	res.Report = report

	path := filepath.Join(c.outDir, Filename(c.prefix, stamp, index))
	if err := writePNG(path, img); err != nil {
		res.Err = err
		return res
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	res.Path = path
	c.logger.Info("image written",
		"path", path,
		"font", report.FontName,
		"size", report.FontSize,
		"lines", len(report.Lines),
		"skipped", report.Skipped(),
	)
	return res
}

// firstFailure returns the lowest-index real failure. Items cancelled
// because a sibling failed are not reported unless the caller's context
// itself ended.
func firstFailure(results []Result, parent context.Context) *ItemError {
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		if errors.Is(r.Err, context.Canceled) && parent.Err() == nil {
			continue
		}
		return &ItemError{Index: r.Index, Err: r.Err}
	}
	return nil
}

func (c *Composer) removeWritten(b *Batch) {
	for i := range b.Results {
		if p := b.Results[i].Path; p != "" {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				c.logger.Warn("could not remove partial batch output", "path", p, "error", err)
			}
			b.Results[i].Path = ""
		}
	}
}

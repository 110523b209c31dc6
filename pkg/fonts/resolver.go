// resolver.go - Script-aware font resolution with a per-process cache.
// Text without a special script takes the first loadable general font.
// Text that needs a script font tries the on-disk Store, then each Provider's
// candidates through the capability probe, then the built-in font.
package fonts

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-text/typesetting/language"

	"github.com/xob0t/storycard/internal/logging"
)

// DefaultTimeout bounds one uncached source search.
const DefaultTimeout = 20 * time.Second

type cacheKey struct {
	script language.Script
	size   float64
}

// Resolver picks fonts for text. It is safe for concurrent use; concurrent
// first resolutions of the same key may search in parallel, but only the
// first result is cached and returned from then on.
type Resolver struct {
	providers []Provider
	store     *Store
	timeout   time.Duration
	logger    *slog.Logger
	probe     probeFunc

	mu      sync.RWMutex
	handles map[cacheKey]*Handle
	// sources caches the parsed font per script; nil means built-in.
	sources map[language.Script]*loadedFont
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProviders sets the ordered provider list.
func WithProviders(p ...Provider) Option {
	return func(r *Resolver) { r.providers = p }
}

// WithStore sets the on-disk script font cache. A nil store disables it.
func WithStore(s *Store) Option {
	return func(r *Resolver) { r.store = s }
}

// WithTimeout bounds uncached searches. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithLogger sets the logger. Nil selects the shared logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func withProbe(p probeFunc) Option {
	return func(r *Resolver) { r.probe = p }
}

// NewResolver returns a Resolver. Without WithProviders it uses only the
// BundledProvider.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		providers: []Provider{BundledProvider{}},
		timeout:   DefaultTimeout,
		probe:     probe,
		handles:   make(map[cacheKey]*Handle),
		sources:   make(map[language.Script]*loadedFont),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.Or(r.logger)
	return r
}

// Resolve returns a handle at size suitable for sample. It never fails: when
// nothing better is available it returns the built-in font, marked Degraded
// if sample needed a script font.
func (r *Resolver) Resolve(ctx context.Context, size float64, sample string) *Handle {
	script := DetectScript(sample)
	key := cacheKey{script: script, size: size}

	r.mu.RLock()
	h, ok := r.handles[key]
	r.mu.RUnlock()
	if ok {
		return h
	}

	lf, cacheable := r.source(ctx, script)
	if lf == nil {
		h = Builtin(size, script)
		if h.Degraded {
			r.logger.Warn("font resolution degraded, using built-in font",
				"script", ScriptName(script), "size", size)
		}
	} else {
		h = newHandle(lf, size, script)
	}
	if !cacheable {
		return h
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.handles[key]; ok {
		return existing
	}
	r.handles[key] = h
	return h
}

// Reset drops every cached handle and source, e.g. after providers change.
// The on-disk Store is left alone.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.handles = make(map[cacheKey]*Handle)
	r.sources = make(map[language.Script]*loadedFont)
	r.mu.Unlock()
}

// source returns the font for script and whether the result may be cached.
// Results cut short by cancellation or timeout are not cached.
func (r *Resolver) source(ctx context.Context, script language.Script) (*loadedFont, bool) {
	r.mu.RLock()
	lf, ok := r.sources[script]
	r.mu.RUnlock()
	if ok {
		return lf, true
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var err error
	if script == NoScript {
		lf, err = r.general(ctx)
	} else {
		lf, err = r.scripted(ctx, script)
	}
	if err != nil {
		r.logger.Warn("font search interrupted", "script", ScriptName(script), "error", err)
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sources[script]; ok {
		return existing, true
	}
	r.sources[script] = lf
	return lf, true
}

// general returns the first candidate that loads and parses. Providers
// marked script-only are skipped.
func (r *Resolver) general(ctx context.Context) (*loadedFont, error) {
	var found *loadedFont
	err := r.each(ctx, true, func(lf *loadedFont) bool {
		found = lf
		return true
	})
	return found, err
}

func (r *Resolver) scripted(ctx context.Context, script language.Script) (*loadedFont, error) {
	info, ok := scripts[script]
	if !ok {
		return nil, nil
	}

	if lf := r.fromStore(script); lf != nil {
		return lf, nil
	}

	var found *loadedFont
	err := r.each(ctx, false, func(lf *loadedFont) bool {
		if !r.probe(lf, info, probeMinSize) {
			r.logger.Debug("font failed probe", "font", lf.name, "script", info.name)
			return false
		}
		found = lf
		return true
	})
	if err != nil || found == nil {
		return nil, err
	}

	if r.store != nil {
		if err := r.store.Save(script, found.data); err != nil {
			r.logger.Warn("could not cache script font", "script", info.name, "error", err)
		}
		// Prefer the stored copy so concurrent populations converge.
		if lf := r.fromStore(script); lf != nil {
			return lf, nil
		}
	}
	return found, nil
}

// fromStore loads a previously validated font. A stored file that no longer
// parses is evicted.
func (r *Resolver) fromStore(script language.Script) *loadedFont {
	if r.store == nil {
		return nil
	}
	data, err := r.store.Load(script)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("font cache unreadable", "path", r.store.Path(script), "error", err)
		}
		return nil
	}
	lf, err := parseFont(r.store.Path(script), data)
	if err != nil {
		r.logger.Warn("evicting corrupt cached font", "path", r.store.Path(script), "error", err)
		if err := r.store.Evict(script); err != nil {
			r.logger.Warn("could not evict cached font", "error", err)
		}
		return nil
	}
	return lf
}

// each walks every candidate of every provider in order and calls accept on
// each one that loads and parses, stopping when accept returns true. It
// returns ctx.Err() when the context ends first.
func (r *Resolver) each(ctx context.Context, general bool, accept func(*loadedFont) bool) error {
	for _, p := range r.providers {
		if so, ok := p.(scriptOnly); ok && general && so.ScriptOnly() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		cands, err := p.Candidates(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			r.logger.Debug("font provider failed", "provider", p.Name(), "error", err)
		}
		for _, c := range cands {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := c.Load(ctx)
			if err != nil {
				r.logger.Debug("font candidate unavailable", "font", c.Name, "error", err)
				continue
			}
			lf, err := parseFont(c.Name, data)
			if err != nil {
				r.logger.Debug("font candidate unparseable", "font", c.Name, "error", err)
				continue
			}
			if accept(lf) {
				return nil
			}
		}
	}
	return ctx.Err()
}

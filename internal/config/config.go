// Package config binds command-line flags and environment variables and
// wires the font resolver and image composer from them.
package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xob0t/storycard/pkg/fonts"
	"github.com/xob0t/storycard/pkg/generator"
)

// Config holds every runtime setting.
type Config struct {
	OutputDir     string
	FontPath      string
	FontCache     string
	FontDirs      []string
	FontURL       string
	DownloadFonts bool
	ProbeTimeout  time.Duration
	Workers       int
	Policy        string
	LogLevel      string
	Port          string
}

// FromEnv returns defaults overridden by STORYCARD_* variables and PORT.
func FromEnv() Config {
	return Config{
		OutputDir:     envString("STORYCARD_OUTPUT_DIR", "output"),
		FontPath:      envString("STORYCARD_FONT", ""),
		FontCache:     envString("STORYCARD_FONT_CACHE", fonts.DefaultStoreDir()),
		FontDirs:      splitList(envString("STORYCARD_FONT_DIRS", "")),
		FontURL:       envString("STORYCARD_FONT_URL", ""),
		DownloadFonts: envBool("STORYCARD_DOWNLOAD_FONTS", false),
		ProbeTimeout:  envDuration("STORYCARD_PROBE_TIMEOUT", fonts.DefaultTimeout),
		Workers:       envInt("STORYCARD_WORKERS", 0),
		Policy:        envString("STORYCARD_POLICY", "fail-fast"),
		LogLevel:      envString("STORYCARD_LOG_LEVEL", "info"),
		Port:          envString("PORT", "8080"),
	}
}

// Bind registers flags on fs, using the current values as defaults.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.OutputDir, "out", c.OutputDir, "Output directory for generated images")
	fs.StringVar(&c.FontPath, "font", c.FontPath, "Custom TTF/OTF font tried before the bundled font")
	fs.StringVar(&c.FontCache, "font-cache", c.FontCache, "Directory caching validated script fonts (empty disables)")
	fs.Func("font-dir", "Extra directory scanned for fonts (repeatable)", func(v string) error {
		c.FontDirs = append(c.FontDirs, v)
		return nil
	})
	fs.StringVar(&c.FontURL, "font-url", c.FontURL, "Fallback URL for downloading the Ethiopic font")
	fs.BoolVar(&c.DownloadFonts, "download-fonts", c.DownloadFonts, "Allow downloading a script font when none is installed")
	fs.DurationVar(&c.ProbeTimeout, "probe-timeout", c.ProbeTimeout, "Upper bound for one uncached font search")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Images rendered concurrently (0 = number of CPUs)")
	fs.StringVar(&c.Policy, "policy", c.Policy, `Batch failure policy: "fail-fast" or "best-effort"`)
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
}

// BindServe registers the server-only flags.
func (c *Config) BindServe(fs *flag.FlagSet) {
	c.Bind(fs)
	fs.StringVar(&c.Port, "port", c.Port, "HTTP port")
	fs.StringVar(&c.Port, "p", c.Port, "HTTP port (shorthand)")
}

// Level parses LogLevel. Unknown values select info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}

// Providers returns the font providers in resolution order: runtime
// uploads, the bundled fonts, installed system fonts and, when enabled, the
// network download. mem may be nil.
func (c Config) Providers(mem *fonts.MemoryProvider) []fonts.Provider {
	var out []fonts.Provider
	if mem != nil {
		out = append(out, mem)
	}
	out = append(out,
		fonts.BundledProvider{CustomPath: c.FontPath},
		fonts.NewSystemProvider(c.FontDirs...),
	)
	if c.DownloadFonts {
		out = append(out, fonts.NewDownloadProvider(c.FontURL))
	}
	return out
}

// Resolver builds the font resolver.
func (c Config) Resolver(mem *fonts.MemoryProvider, logger *slog.Logger) *fonts.Resolver {
	opts := []fonts.Option{
		fonts.WithProviders(c.Providers(mem)...),
		fonts.WithTimeout(c.ProbeTimeout),
		fonts.WithLogger(logger),
	}
	if c.FontCache != "" {
		opts = append(opts, fonts.WithStore(fonts.NewStore(c.FontCache)))
	}
	return fonts.NewResolver(opts...)
}

// Composer builds the image composer around r.
func (c Config) Composer(r generator.FontResolver, logger *slog.Logger) *generator.Composer {
	return generator.NewComposer(r,
		generator.WithOutputDir(c.OutputDir),
		generator.WithWorkers(c.Workers),
		generator.WithPolicy(generator.ParsePolicy(strings.ToLower(c.Policy))),
		generator.WithLogger(logger),
	)
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.ProbeTimeout < 0 {
		return fmt.Errorf("probe timeout must be >= 0, got %s", c.ProbeTimeout)
	}
	if p := strings.ToLower(c.Policy); p != "fail-fast" && generator.ParsePolicy(p) != generator.BestEffort {
		return fmt.Errorf("unknown policy %q", c.Policy)
	}
	return nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// splitList splits an OS path list (":" or ";" separated).
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range filepath.SplitList(v) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// storycard - Gradient story-card image generation.
//
// Usage:
//
//	storycard [options] [text...]
//	storycard -f batch.json [options]
//	storycard fonts --text <sample> [--size <pt>]
//	storycard serve [--port 8080]
//	storycard init
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/xob0t/storycard/clients/server"
	"github.com/xob0t/storycard/internal/config"
	"github.com/xob0t/storycard/internal/logging"
	"github.com/xob0t/storycard/pkg/fonts"
	"github.com/xob0t/storycard/pkg/generator"
	"github.com/xob0t/storycard/pkg/request"
	"github.com/xob0t/storycard/pkg/typeset"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	var err error
	switch cmd {
	case "init":
		err = runInit(args[1:], os.Stdout)
	case "fonts":
		err = runFonts(ctx, args[1:], os.Stdout, os.Stderr)
	case "serve":
		err = server.RunServe(args[1:])
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		// Default: generate mode (all flags on root).
		err = run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
	}
	if err != nil {
		fatal(err)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := config.FromEnv()
	fs := flag.NewFlagSet("storycard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.Bind(fs)

	var (
		batchPath string
		colors    string
		direction string
		seed      uint64
	)
	fs.StringVar(&batchPath, "f", "", "Path to batch.json or .storycard bundle")
	fs.StringVar(&batchPath, "file", "", "Path to batch.json or .storycard bundle")
	fs.StringVar(&colors, "colors", "", `Comma-separated gradient colors, e.g. "#ff6b6b,#ffce54"`)
	fs.StringVar(&direction, "direction", "", "Gradient direction: vertical, horizontal, diagonal or random")
	fs.Uint64Var(&seed, "seed", 0, "Random seed for reproducible output (0 = random)")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.NewLogger(stderr)
	logging.SetLogger(logger)

	// Load the batch.
	bundle := &request.Bundle{Batch: &request.Batch{}}
	switch {
	case batchPath != "":
		var err error
		if bundle, err = request.LoadBatch(batchPath); err != nil {
			return err
		}
	case fs.NArg() > 0:
		bundle.Batch.Text = strings.Join(fs.Args(), " ")
	default:
		text, err := readInput(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		bundle.Batch.Text = text
	}

	// Flags override the batch defaults.
	b := bundle.Batch
	if colors != "" {
		b.Colors = generator.ParseHexPalette(colors)
	}
	if direction != "" {
		b.Direction = direction
	}
	if seed != 0 {
		b.Seed = seed
	}

	warnings, err := request.Validate(b)
	for _, w := range warnings {
		fmt.Fprintf(stderr, "Warning: %s\n", w)
	}
	if errors.Is(err, request.ErrNoTexts) {
		fs.Usage()
		return err
	}

	uploads := fonts.NewMemoryProvider()
	for _, f := range bundle.Fonts {
		if _, err := uploads.Add(f.Name, f.Data); err != nil {
			fmt.Fprintf(stderr, "Warning: bundled font %s ignored: %v\n", f.Name, err)
		}
	}
	composer := cfg.Composer(cfg.Resolver(uploads, logger), logger)

	batch, err := composer.ComposeBatch(ctx, request.Merge(b, logger))
	if batch != nil {
		printBatch(stdout, stderr, batch)
	}
	return err
}

// readInput reads piped input. An interactive terminal yields "".
func readInput(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok {
		st, err := f.Stat()
		if err != nil || st.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	data, err := io.ReadAll(r)
	return string(data), err
}

func printBatch(stdout, stderr io.Writer, b *generator.Batch) {
	for _, r := range b.Results {
		if r.Err != nil {
			fmt.Fprintf(stderr, "Error: image %03d: %v\n", r.Index, r.Err)
			continue
		}
		fmt.Fprintln(stdout, r.Path)
		rep := r.Report
		if rep == nil {
			continue
		}
		if rep.FontDegraded {
			fmt.Fprintf(stderr, "Warning: image %03d: no font covers this script, used %s\n", r.Index, rep.FontName)
		}
		for _, l := range rep.Lines {
			if l.Status == typeset.StatusSkipped {
				fmt.Fprintf(stderr, "Warning: image %03d: line %d skipped: %s\n", r.Index, l.Index, l.Err)
			}
		}
	}
	fmt.Fprintf(stderr, "Done: %d image(s)\n", len(b.Paths()))
}

func runFonts(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg := config.FromEnv()
	fs := flag.NewFlagSet("fonts", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.Bind(fs)
	var (
		text string
		size float64
	)
	fs.StringVar(&text, "text", "Hello", "Sample text to resolve a font for")
	fs.Float64Var(&size, "size", 0, "Font size in points (0 = size chosen for the text)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if size <= 0 {
		size = typeset.FontSize(text)
	}

	logger := cfg.NewLogger(stderr)
	h := cfg.Resolver(nil, logger).Resolve(ctx, size, text)

	fmt.Fprintf(stdout, "font:     %s\n", h.Name)
	fmt.Fprintf(stdout, "size:     %g\n", h.Size)
	fmt.Fprintf(stdout, "script:   %s\n", fonts.ScriptName(h.Script))
	fmt.Fprintf(stdout, "scripts:  %s\n", scriptList(text))
	fmt.Fprintf(stdout, "degraded: %t\n", h.Degraded)
	fmt.Fprintf(stdout, "covers:   %t\n", h.CoversAll(text))
	return nil
}

// scriptList names every script found in text, in order of appearance.
func scriptList(text string) string {
	var names []string
	for _, s := range fonts.ScriptsIn(text) {
		names = append(names, s.String())
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func runInit(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	var out string
	var force bool
	fs.StringVar(&out, "o", "batch.json", "Output path for the sample batch")
	fs.BoolVar(&force, "force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(out); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", out)
	}
	if err := os.WriteFile(out, []byte(request.ExampleJSON()), 0644); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}

	fmt.Fprintf(stdout, "Created: %s\n", out)
	fmt.Fprintf(stdout, "Run: storycard -f %s\n", out)
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `storycard - Gradient Story Cards (Pure Go)

USAGE:
    storycard [options] [text...]
    storycard -f <batch.json|bundle.storycard> [options]
    storycard fonts --text <sample> [--size <pt>]
    storycard serve [--port 8080]
    storycard init [-o batch.json]

INPUT:
    text...                Text for the images. "1." / "2)" at a line start
                           begins a new image; a blank line ends one.
    -f, --file <path>      Batch JSON or .storycard bundle (ZIP with
                           batch.json and fonts/)
    (stdin)                Read when no text or file is given

STYLE:
    --colors <list>        Gradient colors, e.g. "#ff6b6b,#ffce54"
    --direction <dir>      vertical, horizontal, diagonal or random
    --seed <n>             Reproducible decoration and colors

OUTPUT:
    --out <dir>            Output directory (default: output)
    --workers <n>          Concurrent renders (default: CPUs)
    --policy <p>           fail-fast (default) or best-effort

FONTS:
    --font <path>          Custom font tried before the bundled one
    --font-dir <dir>       Extra directory to scan (repeatable)
    --font-cache <dir>     Validated script fonts (default: ~/.storycard/fonts)
    --download-fonts       Allow downloading Noto Sans Ethiopic
    --probe-timeout <d>    Bound for one font search (default: 20s)

ENVIRONMENT:
    STORYCARD_OUTPUT_DIR, STORYCARD_FONT, STORYCARD_FONT_DIRS,
    STORYCARD_FONT_CACHE, STORYCARD_FONT_URL, STORYCARD_DOWNLOAD_FONTS,
    STORYCARD_PROBE_TIMEOUT, STORYCARD_WORKERS, STORYCARD_POLICY,
    STORYCARD_LOG_LEVEL, PORT

EXAMPLES:
    storycard init && storycard -f batch.json
    storycard "Small steps every day add up."
    printf '1. First\n2. Second\n' | storycard --direction diagonal
    storycard fonts --text "ሰላም ለዓለም"
    storycard serve -p 9000
`)
}

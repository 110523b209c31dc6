// download.go - Network download of a script font.

package fonts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/xob0t/storycard/internal/util"
)

// Noto Sans Ethiopic locations on Google Fonts.
const (
	DefaultCSSURL      = "https://fonts.googleapis.com/css2?family=Noto+Sans+Ethiopic:wght@400"
	DefaultFallbackURL = "https://fonts.gstatic.com/s/notosansethiopic/v50/7cHPv50vjIepfJVOZZgcpQ5B9FBTH9KGNfhSTgtoow1KVnIvyBoMSzUMacb-T35OK6Dj.ttf"
)

var cssTTFURL = regexp.MustCompile(`url\((https://[^)]+\.ttf)\)`)

// DownloadProvider fetches a script font over HTTP. It first asks a Google
// Fonts CSS endpoint for the current TTF URL and falls back to a fixed URL.
// It is consulted only when a script-capable font is required.
type DownloadProvider struct {
	CSSURL      string
	FallbackURL string
	Client      *http.Client
}

// NewDownloadProvider returns a provider for Noto Sans Ethiopic. An empty
// fallbackURL selects DefaultFallbackURL.
func NewDownloadProvider(fallbackURL string) DownloadProvider {
	if fallbackURL == "" {
		fallbackURL = DefaultFallbackURL
	}
	return DownloadProvider{CSSURL: DefaultCSSURL, FallbackURL: fallbackURL}
}

func (p DownloadProvider) Name() string { return "download" }

func (p DownloadProvider) ScriptOnly() bool { return true }

func (p DownloadProvider) Candidates(context.Context) ([]Candidate, error) {
	return []Candidate{{Name: "download:noto-sans-ethiopic", Load: p.fetch}}, nil
}

func (p DownloadProvider) fetch(ctx context.Context) ([]byte, error) {
	var errs []error
	if p.CSSURL != "" {
		data, err := p.fetchViaCSS(ctx)
		if err == nil {
			return data, nil
		}
		errs = append(errs, err)
	}
	if p.FallbackURL != "" {
		data, err := util.GetBytes(ctx, p.Client, p.FallbackURL)
		if err == nil {
			return data, nil
		}
		errs = append(errs, fmt.Errorf("fallback url: %w", err))
	}
	if len(errs) == 0 {
		return nil, errors.New("download: no url configured")
	}
	return nil, errors.Join(errs...)
}

func (p DownloadProvider) fetchViaCSS(ctx context.Context) ([]byte, error) {
	css, err := util.GetBytes(ctx, p.Client, p.CSSURL)
	if err != nil {
		return nil, fmt.Errorf("css lookup: %w", err)
	}
	m := cssTTFURL.FindSubmatch(css)
	if m == nil {
		return nil, errors.New("css lookup: no TTF url in stylesheet")
	}
	data, err := util.GetBytes(ctx, p.Client, string(m[1]))
	if err != nil {
		return nil, fmt.Errorf("css font url: %w", err)
	}
	return data, nil
}

package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/xob0t/storycard/internal/logging"
	"github.com/xob0t/storycard/pkg/fonts"
	"github.com/xob0t/storycard/pkg/generator"
)

func newTestRouter(t *testing.T) (*gin.Engine, *srv) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	uploads := fonts.NewMemoryProvider()
	resolver := fonts.NewResolver(
		fonts.WithProviders(uploads, fonts.BundledProvider{}),
		fonts.WithLogger(logging.Nop()),
	)
	composer := generator.NewComposer(resolver,
		generator.WithOutputDir(t.TempDir()),
		generator.WithWorkers(2),
		generator.WithLogger(logging.Nop()),
	)
	s := newServer(composer, resolver, uploads, logging.Nop())
	r := gin.New()
	s.RegisterRoutes(r)
	return r, s
}

func do(r http.Handler, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type generateResponse struct {
	Success    bool     `json:"success"`
	ImagePaths []string `json:"image_paths"`
	Count      int      `json:"count"`
	Reports    []struct {
		Font     string  `json:"font"`
		FontSize float64 `json:"font_size"`
	} `json:"reports"`
	Warnings []string `json:"warnings"`
	Error    string   `json:"error"`
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/health", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("health = %d %s", w.Code, w.Body)
	}
}

func TestGenerate(t *testing.T) {
	r, s := newTestRouter(t)
	body := bytes.NewBufferString(`{"texts": ["first card", "second card"], "gradient_colors": ["#ff0000", "nope"], "seed": 7}`)
	w := do(r, http.MethodPost, "/api/generate", body, "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	var resp generateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Count != 2 || len(resp.ImagePaths) != 2 || len(resp.Reports) != 2 {
		t.Fatalf("response = %+v", resp)
	}
	if len(resp.Warnings) != 1 {
		t.Errorf("warnings = %q, want one for the bad color", resp.Warnings)
	}
	for _, p := range resp.ImagePaths {
		if !filepath.IsAbs(p) || filepath.Dir(p) != mustAbs(t, s.composer.OutputDir()) {
			t.Errorf("path %q not in output dir", p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing file: %v", err)
		}
	}
	if resp.Reports[0].Font == "" {
		t.Errorf("report font = %q", resp.Reports[0].Font)
	}
}

func mustAbs(t *testing.T, p string) string {
	t.Helper()
	abs, err := filepath.Abs(p)
	if err != nil {
		t.Fatal(err)
	}
	return abs
}

func TestGenerateRejects(t *testing.T) {
	r, s := newTestRouter(t)
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"texts": [`},
		{"no texts", `{"texts": ["", "   "]}`},
		{"empty object", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/generate", bytes.NewBufferString(tt.body), "application/json")
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), `"success":false`) {
				t.Errorf("body = %s", w.Body)
			}
		})
	}
	if entries, _ := os.ReadDir(s.composer.OutputDir()); len(entries) != 0 {
		t.Errorf("rejected requests wrote %d files", len(entries))
	}
}

func TestGetImage(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/generate", bytes.NewBufferString(`{"texts": ["thumb"]}`), "application/json")
	var resp generateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || len(resp.ImagePaths) != 1 {
		t.Fatalf("generate: %v %s", err, w.Body)
	}
	name := filepath.Base(resp.ImagePaths[0])

	w = do(r, http.MethodGet, "/api/images/"+name, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("full image status = %d", w.Code)
	}
	cfg, err := png.DecodeConfig(w.Body)
	if err != nil || cfg.Width != generator.Width || cfg.Height != generator.Height {
		t.Errorf("full image = %+v, %v", cfg, err)
	}

	w = do(r, http.MethodGet, "/api/images/"+name+"?w=108", nil, "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("thumbnail status = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	cfg, err = png.DecodeConfig(w.Body)
	if err != nil || cfg.Width != 108 || cfg.Height != 192 {
		t.Errorf("thumbnail = %+v, %v", cfg, err)
	}

	tests := []struct {
		target string
		code   int
	}{
		{"/api/images/notes.txt", http.StatusBadRequest},
		{"/api/images/storycard_1_999.png", http.StatusNotFound},
		{"/api/images/" + name + "?w=0", http.StatusBadRequest},
		{"/api/images/" + name + "?w=abc", http.StatusBadRequest},
		{"/api/images/" + name + "?w=99999", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := do(r, http.MethodGet, tt.target, nil, ""); w.Code != tt.code {
			t.Errorf("GET %s = %d, want %d", tt.target, w.Code, tt.code)
		}
	}
}

func multipartFont(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestFontLifecycle(t *testing.T) {
	r, s := newTestRouter(t)

	body, ct := multipartFont(t, "file", "../../Custom.ttf", goregular.TTF)
	w := do(r, http.MethodPost, "/api/fonts", body, ct)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d %s", w.Code, w.Body)
	}
	var f fonts.MemoryFont
	if err := json.Unmarshal(w.Body.Bytes(), &f); err != nil {
		t.Fatal(err)
	}
	if f.ID == "" || f.Name != "Custom.ttf" || f.Size != len(goregular.TTF) {
		t.Errorf("font = %+v", f)
	}

	h := s.resolver.Resolve(t.Context(), 120, "hello")
	if h.Name != "memory:Custom.ttf" {
		t.Errorf("resolved %q, want uploaded font first", h.Name)
	}

	w = do(r, http.MethodGet, "/api/fonts", nil, "")
	var list []fonts.MemoryFont
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list) != 1 || list[0].ID != f.ID {
		t.Errorf("list = %s (%v)", w.Body, err)
	}

	if w := do(r, http.MethodDelete, "/api/fonts/"+f.ID, nil, ""); w.Code != http.StatusOK {
		t.Errorf("delete = %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/api/fonts/"+f.ID, nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
	if h := s.resolver.Resolve(t.Context(), 120, "hello"); h.Name == "memory:Custom.ttf" {
		t.Error("resolver still returns deleted font")
	}
}

func TestUploadFontRejects(t *testing.T) {
	r, _ := newTestRouter(t)

	body, ct := multipartFont(t, "file", "junk.ttf", []byte("not a font"))
	if w := do(r, http.MethodPost, "/api/fonts", body, ct); w.Code != http.StatusBadRequest {
		t.Errorf("junk upload = %d, want 400", w.Code)
	}

	body, ct = multipartFont(t, "other", "x.ttf", goregular.TTF)
	if w := do(r, http.MethodPost, "/api/fonts", body, ct); w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"Font.ttf":           "Font.ttf",
		"../../etc/font.otf": "font.otf",
		"":                   "font",
		"/":                  "font",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

// Package server provides the storycard HTTP API.
package server

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/xob0t/storycard/internal/config"
	"github.com/xob0t/storycard/internal/logging"
	"github.com/xob0t/storycard/pkg/fonts"
	"github.com/xob0t/storycard/pkg/generator"
	"github.com/xob0t/storycard/pkg/request"
	"github.com/xob0t/storycard/pkg/typeset"
)

const (
	maxFontUpload  = 10 << 20
	maxThumbnail   = 2000
	maxRequestBody = 4 << 20
)

// ── Server ──

type srv struct {
	composer *generator.Composer
	resolver *fonts.Resolver
	uploads  *fonts.MemoryProvider
	logger   *slog.Logger
}

func newServer(c *generator.Composer, r *fonts.Resolver, uploads *fonts.MemoryProvider, logger *slog.Logger) *srv {
	return &srv{composer: c, resolver: r, uploads: uploads, logger: logging.Or(logger)}
}

// RegisterRoutes mounts the API under /api.
func (s *srv) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.POST("/generate", s.handleGenerate)
		api.GET("/images/:name", s.handleGetImage)
		api.POST("/fonts", s.handleUploadFont)
		api.GET("/fonts", s.handleListFonts)
		api.DELETE("/fonts/:id", s.handleDeleteFont)
	}
}

// RunServe parses serve flags and blocks serving the API.
func RunServe(args []string) error {
	cfg := config.FromEnv()
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfg.BindServe(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.NewLogger(os.Stderr)
	logging.SetLogger(logger)

	uploads := fonts.NewMemoryProvider()
	resolver := cfg.Resolver(uploads, logger)
	s := newServer(cfg.Composer(resolver, logger), resolver, uploads, logger)

	r := gin.Default()
	s.RegisterRoutes(r)

	addr := ":" + cfg.Port
	logger.Info("storycard API listening", "addr", "http://localhost"+addr, "output", cfg.OutputDir)
	return r.Run(addr)
}

// ── Handlers ──

func (s *srv) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *srv) handleGenerate(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)
	b, err := request.DecodeBatch(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	warnings, err := request.Validate(b)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	batch, err := s.composer.ComposeBatch(c.Request.Context(), request.Merge(b, s.logger))
	if batch == nil {
		s.logger.Error("generate failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	paths := batch.Paths()
	reports := make([]*typeset.Report, 0, len(batch.Results))
	var failures []gin.H
	for _, r := range batch.Results {
		if r.Err != nil {
			failures = append(failures, gin.H{"index": r.Index, "error": r.Err.Error()})
			continue
		}
		reports = append(reports, r.Report)
	}

	resp := gin.H{
		"success":     true,
		"image_paths": paths,
		"count":       len(paths),
		"stamp":       batch.Stamp,
		"reports":     reports,
	}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	if len(failures) > 0 {
		resp["failures"] = failures
	}
	c.JSON(http.StatusOK, resp)
}

func (s *srv) handleGetImage(c *gin.Context) {
	name := c.Param("name")
	if _, _, _, ok := generator.ParseFilename(name); !ok || filepath.Base(name) != name {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image name"})
		return
	}
	path := filepath.Join(s.composer.OutputDir(), name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}

	w := c.Query("w")
	if w == "" {
		c.File(path)
		return
	}
	width, err := strconv.Atoi(w)
	if err != nil || width < 1 || width > maxThumbnail {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("w must be between 1 and %d", maxThumbnail)})
		return
	}

	img, err := imaging.Open(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Resize(img, width, 0, imaging.Lanczos), imaging.PNG); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *srv) handleUploadFont(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file"})
		return
	}
	if header.Size > maxFontUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "font too large"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxFontUpload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(data) > maxFontUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "font too large"})
		return
	}

	f, err := s.uploads.Add(sanitizeFilename(header.Filename), data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Cached handles may have been resolved without this font.
	s.resolver.Reset()
	s.logger.Info("font uploaded", "id", f.ID, "name", f.Name, "size", f.Size)
	c.JSON(http.StatusCreated, f)
}

func (s *srv) handleListFonts(c *gin.Context) {
	c.JSON(http.StatusOK, s.uploads.List())
}

func (s *srv) handleDeleteFont(c *gin.Context) {
	id := c.Param("id")
	if !s.uploads.Remove(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "font not found"})
		return
	}
	s.resolver.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

// ── Helpers ──

// sanitizeFilename keeps the base name of an uploaded file.
func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		return "font"
	}
	return name
}

// Package server is an optional HTTP front end exposing the depth and
// embedding operations over multipart upload, for callers that keep one
// process warm instead of invoking the CLIs per image.
package server

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/chartkit/chartvision/config"
	"github.com/chartkit/chartvision/depth"
	"github.com/chartkit/chartvision/embedding"
	"github.com/chartkit/chartvision/vision"
)

var errUnauthorized = errors.New("unauthorized")

type Server struct {
	depth *depth.Generator
	embed *embedding.Embedder
}

func New(d *depth.Generator, e *embedding.Embedder) *Server {
	return &Server{depth: d, embed: e}
}

func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.POST("/depth", s.DepthHandler)
	r.POST("/embed", s.EmbedHandler)
	r.GET("/health", s.HealthHandler)
	return r
}

func authenticate(c *gin.Context) error {
	expectedToken := config.C().Token
	if expectedToken == "" {
		return nil
	}
	auth := c.GetHeader("Authorization")
	providedToken := ""
	if len(auth) > 7 && auth[:7] == "Bearer " {
		providedToken = auth[7:]
	}
	if subtle.ConstantTimeCompare([]byte(providedToken), []byte(expectedToken)) != 1 {
		return errUnauthorized
	}
	return nil
}

func statusFor(err error) int {
	switch vision.KindOf(err) {
	case vision.KindInput, vision.KindDecode:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DepthHandler accepts a multipart "file" upload and replies with the depth
// map PNG bytes.
func (s *Server) DepthHandler(c *gin.Context) {
	if err := authenticate(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	tmpDir, err := os.MkdirTemp("", "chartvision-depth-")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create working directory"})
		return
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, filepath.Base(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, inPath); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	outPath := filepath.Join(tmpDir, "depth.png")
	res, err := s.depth.Generate(inPath, outPath)
	if err != nil {
		slog.Error("Depth map generation failed", slog.String("error", err.Error()))
		c.JSON(statusFor(err), vision.DocFor(err))
		return
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read generated depth map"})
		return
	}
	c.Header("X-Model", res.Model)
	c.Data(http.StatusOK, "image/png", data)
}

// EmbedHandler accepts a multipart "file" upload and replies with the
// embedding JSON document.
func (s *Server) EmbedHandler(c *gin.Context) {
	if err := authenticate(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	res, err := s.embed.Generate(base64.StdEncoding.EncodeToString(data))
	if err != nil {
		slog.Error("Embedding generation failed", slog.String("error", err.Error()))
		c.JSON(statusFor(err), vision.DocFor(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

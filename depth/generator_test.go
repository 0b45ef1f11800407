package depth

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chartkit/chartvision/onnx"
	"github.com/chartkit/chartvision/vision"
)

func writeChart(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	// solid background with a few hard vertical lines so the edge map has
	// something to find
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 240, G: 240, B: 240, A: 255}
			if x%8 == 0 {
				c = color.NRGBA{R: 10, G: 10, B: 10, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func newFallbackGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := New(onnx.ModeFallback)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func TestGenerateFallbackDimensions(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "chart.png")
	out := filepath.Join(dir, "depth.png")
	writeChart(t, in, 64, 48)

	g := newFallbackGenerator(t)
	res, err := g.Generate(in, out)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, in, res.Input)
	require.Equal(t, out, res.Output)
	require.Equal(t, fallbackModelName, res.Model)
	require.Nil(t, res.DepthRange)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, 64, decoded.Bounds().Dx())
	require.Equal(t, 48, decoded.Bounds().Dy())
	_, ok := decoded.(*image.Gray)
	require.True(t, ok, "depth map should be an 8-bit grayscale PNG")
}

func TestGenerateMissingInput(t *testing.T) {
	g := newFallbackGenerator(t)
	_, err := g.Generate("/nonexistent/chart.png", filepath.Join(t.TempDir(), "depth.png"))
	require.Error(t, err)
	require.Equal(t, vision.KindInput, vision.KindOf(err))
}

func TestGenerateCreatesOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "chart.png")
	out := filepath.Join(dir, "depthmaps", "depth_chart.png")
	writeChart(t, in, 32, 32)

	g := newFallbackGenerator(t)
	_, err := g.Generate(in, out)
	require.NoError(t, err)
	_, err = os.Stat(out)
	require.NoError(t, err)
}

func TestRasterizeConstantFieldIsZero(t *testing.T) {
	raw := make([]float32, 4*4)
	for i := range raw {
		raw[i] = 7.5
	}
	gray, lo, hi := rasterize(raw, 4, 4, 6, 5)
	require.Equal(t, 6, gray.Bounds().Dx())
	require.Equal(t, 5, gray.Bounds().Dy())
	require.Equal(t, 7.5, lo)
	require.Equal(t, 7.5, hi)
	for _, p := range gray.Pix {
		require.Equal(t, uint8(0), p)
	}
}

func TestRasterizeRange(t *testing.T) {
	raw := []float32{
		-2, -2, 10, 10,
		-2, -2, 10, 10,
		-2, -2, 10, 10,
		-2, -2, 10, 10,
	}
	gray, lo, hi := rasterize(raw, 4, 4, 4, 4)
	require.Equal(t, -2.0, lo)
	require.Equal(t, 10.0, hi)

	var minPix, maxPix uint8 = 255, 0
	for _, p := range gray.Pix {
		if p < minPix {
			minPix = p
		}
		if p > maxPix {
			maxPix = p
		}
	}
	require.Equal(t, uint8(0), minPix)
	require.Equal(t, uint8(255), maxPix)
}

func TestEdgeMapFindsLines(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			c := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if x == 16 {
				c = color.NRGBA{A: 255}
			}
			img.Set(x, y, c)
		}
	}
	edges := edgeMap(img, edgeLowThreshold, edgeHighThreshold)

	found := false
	for _, p := range edges.Pix {
		if p == 255 {
			found = true
			break
		}
	}
	require.True(t, found, "a hard vertical line should produce edge pixels")
}

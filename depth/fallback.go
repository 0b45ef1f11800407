package depth

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/chartkit/chartvision/vision"
)

// Hysteresis thresholds and blur width of the edge simulation. The sigma
// corresponds to a 15-pixel Gaussian kernel.
const (
	edgeLowThreshold  = 50
	edgeHighThreshold = 150
	fallbackBlurSigma = 2.6
)

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// generateFallback produces a depth-like texture without any model: edge
// map, inverted, blurred. The result is labeled as a simulation and carries
// no depth range.
func (g *Generator) generateFallback(img image.Image, inputPath, outputPath string) (*Result, error) {
	gray := imaging.Grayscale(img)
	edges := edgeMap(gray, edgeLowThreshold, edgeHighThreshold)
	blurred := imaging.Blur(imaging.Invert(edges), fallbackBlurSigma)

	if err := vision.WritePNG(outputPath, toGray(blurred)); err != nil {
		return nil, err
	}
	return &Result{
		Success: true,
		Input:   inputPath,
		Output:  outputPath,
		Model:   fallbackModelName,
	}, nil
}

// edgeMap approximates a Canny edge image: Sobel gradient magnitude with
// low/high hysteresis, where weak edges survive only when connected to a
// strong one.
func edgeMap(img *image.NRGBA, low, high float64) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lum[y*w+x] = float64(img.Pix[y*img.Stride+x*4])
		}
	}

	mag := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := lum[(y+ky)*w+(x+kx)]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			mag[y*w+x] = math.Hypot(gx, gy)
		}
	}

	const (
		weakMark   = 1
		strongMark = 2
	)
	state := make([]uint8, w*h)
	var queue []int
	for i, m := range mag {
		if m >= high {
			state[i] = strongMark
			queue = append(queue, i)
		} else if m >= low {
			state[i] = weakMark
		}
	}
	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				if j := ny*w + nx; state[j] == weakMark {
					state[j] = strongMark
					queue = append(queue, j)
				}
			}
		}
	}

	out := imaging.New(w, h, color.Black)
	for i, s := range state {
		if s == strongMark {
			o := i * 4
			out.Pix[o] = 255
			out.Pix[o+1] = 255
			out.Pix[o+2] = 255
		}
	}
	return out
}

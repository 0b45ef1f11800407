// Package depth turns chart images into grayscale depth-map PNGs, either
// through a pretrained monocular depth model or through an edge-based
// simulation when the ONNX Runtime is unavailable.
package depth

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/floats"

	"github.com/chartkit/chartvision/config"
	"github.com/chartkit/chartvision/hub"
	"github.com/chartkit/chartvision/onnx"
	"github.com/chartkit/chartvision/vision"
)

// Generator owns the model session for the lifetime of the process. In
// fallback mode it holds no resources and Close is a no-op.
type Generator struct {
	mode    onnx.Mode
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// New builds a generator for the given runtime mode. In real mode the model
// weights are fetched into the configured cache and the session is created
// up front; any failure here is a startup failure for the caller.
func New(mode onnx.Mode) (*Generator, error) {
	g := &Generator{mode: mode}
	if mode == onnx.ModeFallback {
		return g, nil
	}

	cfg := config.C()
	modelPath, err := hub.Ensure(cfg.DepthModelUrl, cfg.ModelDir, cfg.DepthModelFile)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch depth model: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	inputTensor, err := ort.NewTensor(ort.NewShape(1, 3, InputSize, InputSize),
		make([]float32, 3*InputSize*InputSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, InputSize, InputSize))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		opts,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX Runtime session: %w", err)
	}

	g.session = session
	g.input = inputTensor
	g.output = outputTensor
	return g, nil
}

func (g *Generator) Close() {
	if g.input != nil {
		g.input.Destroy()
	}
	if g.output != nil {
		g.output.Destroy()
	}
	if g.session != nil {
		g.session.Destroy()
	}
}

// Generate produces a depth map for the image at inputPath and writes it to
// outputPath as an 8-bit grayscale PNG with the source dimensions.
func (g *Generator) Generate(inputPath, outputPath string) (*Result, error) {
	img, err := vision.DecodeFile(inputPath)
	if err != nil {
		return nil, err
	}
	if g.mode == onnx.ModeFallback {
		return g.generateFallback(img, inputPath, outputPath)
	}
	return g.generateReal(img, inputPath, outputPath)
}

func (g *Generator) generateReal(img image.Image, inputPath, outputPath string) (*Result, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	copy(g.input.GetData(), preprocess(img))
	if err := g.session.Run(); err != nil {
		return nil, vision.Errorf(vision.KindInference, "depth map generation failed: %v", err)
	}

	gray, lo, hi := rasterize(g.output.GetData(), InputSize, InputSize, w, h)
	if err := vision.WritePNG(outputPath, gray); err != nil {
		return nil, err
	}
	return &Result{
		Success:    true,
		Input:      inputPath,
		Output:     outputPath,
		DepthRange: []float64{lo, hi},
		Model:      modelName,
	}, nil
}

// preprocess resizes to the model input size and lays the pixels out as
// planar CHW float32, normalized per channel.
func preprocess(img image.Image) []float32 {
	resized := imaging.Resize(img, InputSize, InputSize, imaging.Lanczos)

	out := make([]float32, 3*InputSize*InputSize)
	rBase := 0
	gBase := InputSize * InputSize
	bBase := 2 * InputSize * InputSize
	for y := range InputSize {
		for x := range InputSize {
			o := y*resized.Stride + x*4
			fr := float32(resized.Pix[o]) / 255.0
			fg := float32(resized.Pix[o+1]) / 255.0
			fb := float32(resized.Pix[o+2]) / 255.0

			out[rBase] = (fr - inputMean[0]) / inputStd[0]
			out[gBase] = (fg - inputMean[1]) / inputStd[1]
			out[bBase] = (fb - inputMean[2]) / inputStd[2]

			rBase++
			gBase++
			bBase++
		}
	}
	return out
}

// rasterize resizes the raw depth field back to the source dimensions with a
// bicubic filter and rescales it linearly to [0,255]. A constant field maps
// to a uniformly black image instead of dividing by zero. The returned range
// is the raw pre-rescale minimum and maximum.
func rasterize(raw []float32, srcW, srcH, dstW, dstH int) (*image.Gray, float64, float64) {
	field := make([]float64, len(raw))
	for i, v := range raw {
		field[i] = float64(v)
	}
	lo := floats.Min(field)
	hi := floats.Max(field)
	if hi <= lo {
		return image.NewGray(image.Rect(0, 0, dstW, dstH)), lo, hi
	}

	// 16-bit intermediate so the rescale survives the resize.
	g16 := image.NewGray16(image.Rect(0, 0, srcW, srcH))
	scale := 65535.0 / (hi - lo)
	for i, v := range field {
		val := uint16(math.Round((v - lo) * scale))
		g16.Pix[2*i] = uint8(val >> 8)
		g16.Pix[2*i+1] = uint8(val)
	}

	resized := imaging.Resize(g16, dstW, dstH, imaging.CatmullRom)
	return toGray(resized), lo, hi
}

func toGray(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = img.Pix[y*img.Stride+x*4]
		}
	}
	return out
}

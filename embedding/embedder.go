// Package embedding turns a chart image into a fixed-length unit vector for
// similarity search, through a pretrained vision-language model or a
// hash-seeded deterministic fallback.
package embedding

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/floats"

	"github.com/chartkit/chartvision/config"
	"github.com/chartkit/chartvision/hub"
	"github.com/chartkit/chartvision/onnx"
	"github.com/chartkit/chartvision/vision"
)

// Dimensions is the embedding length in both modes.
const Dimensions = 1024

// ImageSize is the fixed spatial size of the model input.
const ImageSize = 224

const (
	modelName         = "OpenCLIP ViT-H/14"
	fallbackModelName = "Fallback 1024D (hash-seeded, non-semantic)"
)

var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// Result is the embedding JSON document.
type Result struct {
	Embedding  []float64 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
	Model      string    `json:"model"`
}

// Embedder owns the model session for the lifetime of the process. In
// fallback mode it holds no resources and Close is a no-op.
type Embedder struct {
	mode    onnx.Mode
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// New builds an embedder for the given runtime mode. In real mode the model
// weights are fetched into the configured cache and the session is created
// up front; any failure here is a startup failure for the caller.
func New(mode onnx.Mode) (*Embedder, error) {
	e := &Embedder{mode: mode}
	if mode == onnx.ModeFallback {
		return e, nil
	}

	cfg := config.C()
	modelPath, err := hub.Ensure(cfg.ClipModelUrl, cfg.ModelDir, cfg.ClipModelFile)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch embedding model: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	inputTensor, err := ort.NewTensor(ort.NewShape(1, 3, ImageSize, ImageSize),
		make([]float32, 3*ImageSize*ImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, Dimensions))
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

	e.session = session
	e.input = inputTensor
	e.output = outputTensor
	return e, nil
}

func (e *Embedder) Close() {
	if e.input != nil {
		e.input.Destroy()
	}
	if e.output != nil {
		e.output.Destroy()
	}
	if e.session != nil {
		e.session.Destroy()
	}
}

// Generate embeds the image given as a data-URL base64 payload, a raw base64
// payload, or a filesystem path. The returned vector has Dimensions elements
// and unit L2 norm in both modes.
func (e *Embedder) Generate(input string) (*Result, error) {
	img, err := vision.DecodeInput(input)
	if err != nil {
		return nil, err
	}
	rgb := vision.ToNRGBA(img)

	if e.mode == onnx.ModeFallback {
		return e.generateFallback(rgb), nil
	}

	copy(e.input.GetData(), preprocess(rgb))
	if err := e.session.Run(); err != nil {
		return nil, vision.Errorf(vision.KindInference, "failed to generate embedding: %v", err)
	}

	features := e.output.GetData()
	vec := make([]float64, len(features))
	for i, v := range features {
		vec[i] = float64(v)
	}
	normalize(vec)
	return &Result{Embedding: vec, Dimensions: len(vec), Model: modelName}, nil
}

// preprocess resizes to the model input size and lays the pixels out as
// planar CHW float32 with CLIP normalization.
func preprocess(img *image.NRGBA) []float32 {
	resized := imaging.Resize(img, ImageSize, ImageSize, imaging.Lanczos)

	out := make([]float32, 3*ImageSize*ImageSize)
	rBase := 0
	gBase := ImageSize * ImageSize
	bBase := 2 * ImageSize * ImageSize
	for y := range ImageSize {
		for x := range ImageSize {
			o := y*resized.Stride + x*4
			fr := float32(resized.Pix[o]) / 255.0
			fg := float32(resized.Pix[o+1]) / 255.0
			fb := float32(resized.Pix[o+2]) / 255.0

			out[rBase] = (fr - clipMean[0]) / clipStd[0]
			out[gBase] = (fg - clipMean[1]) / clipStd[1]
			out[bBase] = (fb - clipMean[2]) / clipStd[2]

			rBase++
			gBase++
			bBase++
		}
	}
	return out
}

func normalize(vec []float64) {
	if n := floats.Norm(vec, 2); n > 0 {
		floats.Scale(1/n, vec)
	}
}

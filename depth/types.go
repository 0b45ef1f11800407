package depth

// InputSize is the fixed spatial size the depth model was exported with.
const InputSize = 384

const (
	modelName         = "MiDaS DPT-Hybrid"
	fallbackModelName = "Fallback Edge-based Depth Simulation"
)

// DPT checkpoints are trained on inputs scaled to [-1, 1].
var (
	inputMean = [3]float32{0.5, 0.5, 0.5}
	inputStd  = [3]float32{0.5, 0.5, 0.5}
)

// Result describes one successfully generated depth map.
type Result struct {
	Success bool   `json:"success"`
	Input   string `json:"input"`
	Output  string `json:"output"`
	// DepthRange is the raw model output range before rescaling to [0,255].
	// Absent in fallback mode, which has no continuous depth field.
	DepthRange []float64 `json:"depth_range,omitempty"`
	Model      string    `json:"model"`
}

// FileResult is one batch entry: the payload is either a *Result or a
// vision.ErrorDoc, mirroring the per-file contract of the single operation.
type FileResult struct {
	File   string `json:"file"`
	Result any    `json:"result"`
}

type BatchResult struct {
	BatchResults   []FileResult `json:"batch_results"`
	TotalProcessed int          `json:"total_processed"`
	SuccessCount   int          `json:"success_count"`
}

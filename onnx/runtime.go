// Package onnx resolves the ONNX Runtime shared library and decides, once
// per process, whether the real pretrained models can be used at all.
package onnx

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/chartkit/chartvision/config"
)

// Mode tags which inference path a process runs. It is resolved exactly once
// at startup; operations dispatch on it instead of probing capabilities.
type Mode int

const (
	// ModeReal runs pretrained models through the ONNX Runtime.
	ModeReal Mode = iota
	// ModeFallback runs the non-ML simulation paths.
	ModeFallback
)

func (m Mode) String() string {
	if m == ModeReal {
		return "real"
	}
	return "fallback"
}

var (
	setupOnce sync.Once
	mode      Mode
)

// Setup locates the runtime library and initializes the ONNX environment.
// A missing library or a failed initialization selects ModeFallback; it is
// never fatal. The result is cached for the lifetime of the process.
func Setup() Mode {
	setupOnce.Do(func() {
		path := libPath()
		if path == "" {
			slog.Warn("ONNX Runtime library not found, falling back to simulation mode")
			mode = ModeFallback
			return
		}
		ort.SetSharedLibraryPath(path)
		if err := ort.InitializeEnvironment(); err != nil {
			slog.Warn("Failed to initialize ONNX Runtime environment, falling back to simulation mode",
				slog.String("error", err.Error()))
			mode = ModeFallback
			return
		}
		slog.Info("Using ONNX Runtime library", slog.String("path", path))
		mode = ModeReal
	})
	return mode
}

// Teardown destroys the ONNX environment if Setup initialized one.
func Teardown() {
	if mode == ModeReal {
		ort.DestroyEnvironment()
	}
}

func libPath() string {
	if config.C().Libonnx != "" {
		return config.C().Libonnx
	}
	if p := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); p != "" {
		return p
	}
	var candidates []string
	switch runtime.GOOS {
	case "linux":
		candidates = []string{
			filepath.Join("onnxlibs", "libonnxruntime.so"),
			"/usr/local/lib/libonnxruntime.so",
			"/usr/lib/libonnxruntime.so",
		}
	case "darwin":
		candidates = []string{
			"/usr/local/lib/libonnxruntime.dylib",
			"/opt/homebrew/lib/libonnxruntime.dylib",
		}
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

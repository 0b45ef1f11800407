package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Host  string `toml:"host" mapstructure:"host"`
	Port  string `toml:"port" mapstructure:"port"`
	Token string `toml:"token" mapstructure:"token"`

	Libonnx  string `toml:"libonnx" mapstructure:"libonnx"`
	ModelDir string `toml:"model_dir" mapstructure:"model_dir"`

	DepthModelUrl  string `toml:"depth_model_url" mapstructure:"depth_model_url"`
	DepthModelFile string `toml:"depth_model_file" mapstructure:"depth_model_file"`
	ClipModelUrl   string `toml:"clip_model_url" mapstructure:"clip_model_url"`
	ClipModelFile  string `toml:"clip_model_file" mapstructure:"clip_model_file"`
}

var (
	cfg = Config{
		Host:           "0.0.0.0",
		Port:           "8000",
		Token:          "",
		ModelDir:       "models",
		DepthModelUrl:  "https://huggingface.co/Intel/dpt-hybrid-midas/resolve/main/onnx/model.onnx?download=true",
		DepthModelFile: "dpt_hybrid.onnx",
		ClipModelUrl:   "https://huggingface.co/immich-app/ViT-H-14__laion2b-s32b-b79k/resolve/main/visual/model.onnx?download=true",
		ClipModelFile:  "vit_h_14_visual.onnx",
	}
	loadOnce sync.Once
)

// C returns the process configuration. Defaults are overlaid with
// config.toml (or the file named by CHARTVISION_CONFIG) on first use.
func C() Config {
	loadOnce.Do(func() {
		_ = godotenv.Load()
		path := os.Getenv("CHARTVISION_CONFIG")
		if path == "" {
			path = "config.toml"
		}
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				panic(err)
			}
			if err := toml.Unmarshal(data, &cfg); err != nil {
				panic(err)
			}
		}
	})
	return cfg
}

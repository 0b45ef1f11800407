package depth

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/chartkit/chartvision/vision"
)

// GenerateBatch runs Generate over every recognized image in inputDir,
// strictly sequentially, writing each map to outputDir as
// depth_<stem>.png. A missing directory or one without recognized images is
// a structured input error; per-file failures land in their batch entry.
func (g *Generator) GenerateBatch(inputDir, outputDir string) (*BatchResult, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, vision.Errorf(vision.KindInput, "input directory does not exist: %s", inputDir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !vision.RecognizedImage(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	if len(files) == 0 {
		return nil, vision.Errorf(vision.KindInput, "no image files found in input directory")
	}

	batch := &BatchResult{}
	for _, name := range files {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		outPath := filepath.Join(outputDir, "depth_"+stem+".png")

		entry := FileResult{File: name}
		res, err := g.Generate(filepath.Join(inputDir, name), outPath)
		if err != nil {
			entry.Result = vision.DocFor(err)
		} else {
			entry.Result = res
			batch.SuccessCount++
		}
		batch.BatchResults = append(batch.BatchResults, entry)
	}
	batch.TotalProcessed = len(batch.BatchResults)
	return batch, nil
}

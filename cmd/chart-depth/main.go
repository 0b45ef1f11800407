// Command chart-depth generates grayscale depth-map PNGs from chart images,
// printing one JSON document describing the outcome.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/chartkit/chartvision/depth"
	"github.com/chartkit/chartvision/onnx"
	"github.com/chartkit/chartvision/vision"
)

func main() {
	app := &cli.App{
		Name:  "chart-depth",
		Usage: "generate depth maps from chart images",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Usage: "input image file or directory", Required: true},
			&cli.StringFlag{Name: "output", Usage: "output file or directory (optional for single files)"},
			&cli.BoolFlag{Name: "batch", Usage: "process all images in the input directory"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		printJSON(vision.DocFor(err))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	mode := onnx.Setup()
	defer onnx.Teardown()

	gen, err := depth.New(mode)
	if err != nil {
		return fmt.Errorf("failed to initialize depth model: %w", err)
	}
	defer gen.Close()

	input := c.String("input")
	output := c.String("output")

	if c.Bool("batch") {
		if output == "" {
			output = filepath.Join(filepath.Dir(filepath.Clean(input)), "depthmaps")
		}
		res, err := gen.GenerateBatch(input, output)
		if err != nil {
			printJSON(vision.DocFor(err))
			return nil
		}
		printJSON(res)
		return nil
	}

	if output == "" {
		stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		output = filepath.Join(filepath.Dir(input), "depthmaps", "depth_"+stem+".png")
	}
	res, err := gen.Generate(input, output)
	if err != nil {
		printJSON(vision.DocFor(err))
		return nil
	}
	printJSON(res)
	return nil
}

func printJSON(doc any) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		fmt.Printf("{\"error\": %q, \"kind\": \"internal\"}\n", err.Error())
		return
	}
	fmt.Println(string(data))
}

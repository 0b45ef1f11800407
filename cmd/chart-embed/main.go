// Command chart-embed prints the embedding vector for a single chart image
// given as a file path or base64 payload.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/chartkit/chartvision/embedding"
	"github.com/chartkit/chartvision/onnx"
	"github.com/chartkit/chartvision/vision"
)

func main() {
	app := &cli.App{
		Name:      "chart-embed",
		Usage:     "generate a 1024-dimensional embedding for a chart image",
		ArgsUsage: "<image path or base64 payload>",
		Action:    run,
	}
	if err := app.Run(os.Args); err != nil {
		printJSON(vision.DocFor(err))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return vision.Errorf(vision.KindInput, "usage: chart-embed <image_path_or_base64>")
	}

	mode := onnx.Setup()
	defer onnx.Teardown()

	emb, err := embedding.New(mode)
	if err != nil {
		return fmt.Errorf("failed to initialize embedding model: %w", err)
	}
	defer emb.Close()

	res, err := emb.Generate(c.Args().First())
	if err != nil {
		printJSON(vision.DocFor(err))
		return nil
	}
	printJSON(res)
	return nil
}

func printJSON(doc any) {
	data, err := json.Marshal(doc)
	if err != nil {
		fmt.Printf("{\"error\": %q, \"kind\": \"internal\"}\n", err.Error())
		return
	}
	fmt.Println(string(data))
}

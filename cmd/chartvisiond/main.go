// Command chartvisiond serves the depth and embedding operations over HTTP.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/chartkit/chartvision/config"
	"github.com/chartkit/chartvision/depth"
	"github.com/chartkit/chartvision/embedding"
	"github.com/chartkit/chartvision/onnx"
	"github.com/chartkit/chartvision/server"
)

func main() {
	app := &cli.App{
		Name:  "chartvisiond",
		Usage: "HTTP front end for chart depth maps and embeddings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "listen host (overrides config)"},
			&cli.StringFlag{Name: "port", Usage: "listen port (overrides config)"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		slog.Error("Startup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	slog.Info("Starting chartvisiond")

	mode := onnx.Setup()
	defer onnx.Teardown()
	slog.Info("Model runtime resolved", slog.String("mode", mode.String()))

	gen, err := depth.New(mode)
	if err != nil {
		return err
	}
	defer gen.Close()

	emb, err := embedding.New(mode)
	if err != nil {
		return err
	}
	defer emb.Close()

	gin.SetMode(gin.ReleaseMode)
	r := server.New(gen, emb).Router()

	host := c.String("host")
	if host == "" {
		host = config.C().Host
	}
	port := c.String("port")
	if port == "" {
		port = config.C().Port
	}
	addr := host + ":" + port
	slog.Info("Listening on", slog.String("address", addr))
	go func() {
		if err := r.Run(addr); err != nil {
			slog.Error("Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"

	"essaim.dev/depthcam/capture"
	"essaim.dev/depthcam/config"
	"essaim.dev/depthcam/display"
	"essaim.dev/depthcam/logging"
)

func main() {
	defaults := config.Defaults()
	defaults.Depth.FPS = 30

	cfg, err := config.FromEnv(defaults)
	if err != nil {
		log.Fatalf("could not load config: %s", err)
	}

	logger, err := logging.NewLogger("rsdepth", cfg.Debug)
	if err != nil {
		log.Fatalf("could not create logger: %s", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cctx, err := capture.OpenContext(cfg)
	if err != nil {
		os.Exit(capture.Report(os.Stdout, err))
	}

	app := &capture.App{Context: cctx, Config: cfg, In: os.Stdin, Out: os.Stdout, Logger: logger}

	if !cfg.Display {
		err = app.RunDepth(ctx, display.Nop{})
	} else {
		driver.Main(func(s screen.Screen) {
			v := display.NewWindows(s, logger)
			err = app.RunDepth(ctx, v)
			if cerr := v.Close(); cerr != nil {
				logger.Warnw("could not close windows", "error", cerr)
			}
		})
	}

	stop()
	logger.Sync()
	os.Exit(capture.Report(os.Stdout, err))
}

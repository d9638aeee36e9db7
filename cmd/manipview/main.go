// Command manipview opens a manipulator manifest in a window, resolves the manipulator under the cursor every frame
// and logs each activation.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-pick/engine/config"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	manifestPath := flag.String("manifest", "", "path to a YAML manipulator manifest, overrides window.manifest")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("[Main] %v", err)
		}
		cfg = loaded
	}
	if *manifestPath != "" {
		cfg.Window.Manifest = *manifestPath
	}
	if cfg.Window.Manifest == "" {
		log.Fatalf("[Main] no manifest: pass -manifest or set window.manifest")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Default()); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("[Main] %v", err)
	}
}

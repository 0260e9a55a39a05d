package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/xam-dev-ux/BaseReview/internal/app/runtime"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file (optional)")
		envFile    = flag.String("env", "", "Path to .env file (optional)")
	)
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("load env (%s): %v", *envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	app, err := runtime.NewApplication(*configPath)
	if err != nil {
		log.Fatalf("initialise: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}

	if err := app.Shutdown(context.Background()); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"granthx/internal/api"
	"granthx/internal/auth"
	"granthx/internal/config"
	"granthx/internal/extractor"
	"granthx/internal/indexing"
	"granthx/internal/logger"
	"granthx/internal/toast"
)

// ingest uploads every .pdf and .csv in a directory to the indexing backend.
func main() {
	configPath := flag.String("config", "", "config file")
	flag.Parse()

	corpusDir := "corpus"
	if flag.NArg() > 0 {
		corpusDir = flag.Arg(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if _, err := auth.ParsePublishableKey(cfg.ClerkPublishableKey); err != nil {
		log.Fatalf("Identity setup failed: %v (set CLERK_PUBLISHABLE_KEY)", err)
	}
	zl, err := logger.New(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	client := api.NewClient(cfg.APIBase,
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		api.WithLogger(zl.Named("api")),
	)
	panel := indexing.NewPanel(client, toast.NewPrinter(os.Stdout), zl.Named("ingest"))

	files, err := os.ReadDir(corpusDir)
	if err != nil {
		log.Fatalf("Failed to read corpus directory: %v", err)
	}

	start := time.Now()
	var uploaded, failed int
	for _, file := range files {
		if file.IsDir() || !extractor.Supported(file.Name()) {
			continue // Skip other files
		}
		path := filepath.Join(corpusDir, file.Name())

		if err := panel.SelectFile(path); err != nil {
			log.Printf("Failed to read %s: %v", file.Name(), err)
			failed++
			continue
		}
		fmt.Printf("Uploading %s...\n", panel.FileLabel())

		ctx, cancel := api.RequestContext(context.Background(), cfg.RequestTimeout)
		err := panel.SubmitFile(ctx)
		cancel()
		if err != nil {
			failed++
			continue
		}
		uploaded++
	}

	fmt.Printf("Finished ingestion in %v: %d uploaded, %d failed.\n", time.Since(start).Round(time.Millisecond), uploaded, failed)
	if failed > 0 {
		_ = zl.Sync()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"

	"github.com/cognicore/ebooks/internal/logging"
	"github.com/cognicore/ebooks/pkg/ebooks"
	"github.com/cognicore/ebooks/pkg/ebooks/config"
	"github.com/cognicore/ebooks/pkg/ebooks/store/sqlite"
)

func main() {
	var (
		configPath   = flag.String("config", "", "Config file (optional)")
		outPath      = flag.String("o", "", "Model path (overrides model_path)")
		appendMode   = flag.Bool("append", false, "Add the corpora to the existing model instead of rebuilding it")
		stoplistPath = flag.String("stoplist", "", "Stoplist file (overrides stoplist)")
		logLevel     = flag.String("log-level", "", "Log level (overrides log.level)")
		concurrency  = flag.Int("concurrency", 4, "Corpus files decoded in parallel")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if flag.NArg() > 0 {
		cfg.CorpusFiles = flag.Args()
	}
	if *outPath != "" {
		cfg.ModelPath = *outPath
	}
	if *stoplistPath != "" {
		cfg.Stoplist = *stoplistPath
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.ValidateBuild(); err != nil {
		log.Fatal(err)
	}

	closer, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	stats, err := build(context.Background(), cfg, *appendMode, *concurrency)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Published %s to %s: %d tokens, %d sentences, %d keywords\n",
		stats.BuildID, cfg.ModelPath, stats.Tokens, stats.Sentences, stats.Keywords)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// build ingests cfg.CorpusFiles, or appends them to the model at
// cfg.ModelPath, and publishes the result there.
func build(ctx context.Context, cfg *config.Config, appendMode bool, concurrency int) (ebooks.Stats, error) {
	comp, err := (&config.Loader{StoplistPath: cfg.Stoplist}).Load()
	if err != nil {
		return ebooks.Stats{}, err
	}
	logger := logging.WithComponent("build")
	opts := ebooks.Options{
		Language:    comp.Language,
		Logger:      logger,
		Concurrency: concurrency,
	}

	var model *ebooks.Model
	if appendMode {
		model, err = appendTo(ctx, cfg, opts, logger)
	} else {
		model, err = ebooks.Ingest(ctx, cfg.CorpusFiles, opts)
	}
	if err != nil {
		return ebooks.Stats{}, err
	}

	buildID, err := sqlite.Publish(ctx, cfg.ModelPath, model.Snapshot())
	if err != nil {
		return ebooks.Stats{}, fmt.Errorf("publish model: %w", err)
	}
	stats := model.Stats()
	stats.BuildID = buildID
	logger.Info("model published", "build_id", buildID, "path", cfg.ModelPath,
		"tokens", stats.Tokens, "sentences", stats.Sentences)
	return stats, nil
}

func appendTo(ctx context.Context, cfg *config.Config, opts ebooks.Options, logger *slog.Logger) (*ebooks.Model, error) {
	if _, err := os.Stat(cfg.ModelPath); errors.Is(err, fs.ErrNotExist) {
		logger.Warn("no model to append to, building from scratch", "path", cfg.ModelPath)
		return ebooks.Ingest(ctx, cfg.CorpusFiles, opts)
	}

	// Anything else at the model path must open as a model; it is never
	// replaced by a fresh build.
	st, err := sqlite.Open(ctx, cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	base, err := ebooks.Open(ctx, st, opts)
	if err != nil {
		return nil, err
	}
	return ebooks.Append(ctx, base, cfg.CorpusFiles)
}

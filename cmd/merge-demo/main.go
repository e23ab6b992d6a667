package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/c0deZ3R0/go-merge-kit/logging"
	"github.com/c0deZ3R0/go-merge-kit/mergekit"
	"github.com/c0deZ3R0/go-merge-kit/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "optional YAML logging config file")
	dataSource := flag.String("db", "file:merge-demo.db", "SQLite data source for the record store")
	flag.Parse()

	config := logging.GetConfigFromEnv()
	if *configPath != "" {
		fileConfig, err := logging.LoadConfigFile(*configPath)
		if err != nil {
			logging.Init(config)
			logging.Error("Failed to load config file, using environment config",
				slog.String("path", *configPath),
				slog.String("error", err.Error()),
			)
		} else {
			config = fileConfig
		}
	}
	logging.Init(config)

	ctx := context.Background()

	// Three-way line merge: both sides appended the same line.
	var lines mergekit.LineMerger
	result, err := lines.Merge(
		[]byte("line1\nline2"),
		[]byte("line1\nline2\nline3"),
		[]byte("line1\nline2\nline3"),
	)
	if err != nil {
		logging.LogError(ctx, err, "Line merge failed")
		os.Exit(1)
	}
	logging.Info("Line merge completed",
		slog.String("merger", lines.Name()),
		slog.Bool("clean", result.Clean()),
		slog.String("merged", string(result.Merged)),
	)

	// Structural merge: each side changed a different key.
	var structural mergekit.StructuralMerger
	result, err = structural.Merge(
		[]byte(`{"a":1,"b":2}`),
		[]byte(`{"a":10,"b":2}`),
		[]byte(`{"a":1,"b":20}`),
	)
	if err != nil {
		logging.LogError(ctx, err, "Structural merge failed")
		os.Exit(1)
	}
	logging.Info("Structural merge completed",
		slog.String("merger", structural.Name()),
		slog.Bool("clean", result.Clean()),
		slog.String("merged", string(result.Merged)),
	)

	store, err := sqlite.NewWithDataSource(*dataSource)
	if err != nil {
		logging.LogError(ctx, err, "Failed to open record store")
		os.Exit(1)
	}
	defer store.Close()

	// Structural diff with persistence.
	differ := mergekit.NewDiffer(mergekit.WithDiffStore(store))
	diff, err := differ.Compute(ctx,
		[]byte(`{"title":"draft","tags":["a","b"]}`),
		[]byte(`{"title":"final","tags":["a","b","c"]}`),
	)
	if err != nil {
		logging.LogError(ctx, err, "Diff failed")
		os.Exit(1)
	}
	logging.Info("Diff computed",
		slog.Int64("distance", diff.Distance),
		slog.Int("edit_ops", len(diff.EditScript)),
		slog.String("record_id", diff.RecordID),
	)

	// Conflict registry: detect, then resolve via last-writer-wins.
	registry, err := mergekit.NewRegistry(store)
	if err != nil {
		logging.LogError(ctx, err, "Failed to create registry")
		os.Exit(1)
	}

	if _, err := registry.RegisterPolicy(ctx, "lww-default", 10); err != nil {
		logging.LogError(ctx, err, "Failed to register policy")
		os.Exit(1)
	}

	base := "original"
	detected, err := registry.Detect(ctx, mergekit.DetectInput{
		Base:     &base,
		Version1: "edited by alice",
		Version2: "edited by bob",
		Context:  "demo-document",
	})
	if err != nil {
		logging.LogError(ctx, err, "Detection failed")
		os.Exit(1)
	}
	if detected.Status != mergekit.DetectConflict {
		logging.Info("No conflict detected, nothing to resolve")
		return
	}

	resolved, err := registry.Resolve(ctx, detected.ConflictID, "")
	if err != nil {
		logging.LogError(ctx, err, "Resolution failed")
		os.Exit(1)
	}
	logging.Info("Conflict lifecycle completed",
		slog.String("conflict_id", detected.ConflictID),
		slog.String("status", string(resolved.Status)),
		slog.String("result", resolved.Result),
		slog.String("policy", resolved.Policy),
	)
}

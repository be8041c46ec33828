// Copyright 2025 Vinolog Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/vinolog/vinolog"
	"github.com/vinolog/vinolog/ai"
	"github.com/vinolog/vinolog/core"
	"github.com/vinolog/vinolog/enrich"
	"github.com/vinolog/vinolog/pipeline"
	"github.com/vinolog/vinolog/recommend"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "vinolog",
		Usage: "Wine label scanning and catalog pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "worker",
				Usage:  "Run the scan, embedding and enrichment workers until interrupted",
				Action: workerCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "extraction-host",
						Usage: "Vision model host URL for label extraction",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "extraction-model",
						Usage: "Vision model name for label extraction",
						Value: "llava:13b",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Text embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Text embedding model name",
						Value: "all-minilm",
					},
					&cli.StringFlag{
						Name:  "image-embedding-host",
						Usage: "Image embedding service host URL",
						Value: "http://localhost:9200",
					},
					&cli.StringFlag{
						Name:  "image-embedding-model",
						Usage: "Image embedding model name",
						Value: "clip-vit-large",
					},
					&cli.StringFlag{
						Name:  "enrichment-host",
						Usage: "Enrichment model host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "enrichment-model",
						Usage: "Enrichment model name",
						Value: "qwen2.5:3b",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of scan jobs to claim per poll",
						Value: 8,
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "Queue polling period",
						Value: 2 * time.Second,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Per-job retry budget",
						Value: 3,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Concurrent scan processors (0 = half the CPUs)",
					},
					&cli.DurationFlag{
						Name:  "reclaim-after",
						Usage: "Re-queue scan jobs stuck in processing longer than this (0 = off)",
						Value: 5 * time.Minute,
					},
					&cli.DurationFlag{
						Name:  "sweep-interval",
						Usage: "How often to sweep the catalog for wines missing metadata",
						Value: 10 * time.Minute,
					},
				},
			},
			{
				Name:   "enqueue",
				Usage:  "Submit a label image for scanning",
				Action: enqueueCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "user",
						Usage:    "Submitting user ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "image-url",
						Usage:    "URL of the label image",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "ocr-text",
						Usage: "Optional OCR text captured with the upload",
					},
					&cli.StringFlag{
						Name:  "idempotency-key",
						Usage: "Optional key deduplicating resubmissions of the same upload",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Print scan queue depth by status",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
				},
			},
			{
				Name:   "enrich",
				Usage:  "Queue enrichment for catalog wines missing metadata",
				Action: enrichCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Maximum wines to queue in one sweep",
						Value: 50,
					},
				},
			},
			{
				Name:   "recommend",
				Usage:  "List visually similar wines for a scan or a wine",
				Action: recommendCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:  "scan",
						Usage: "Scan job ID to match against",
					},
					&cli.Uint64Flag{
						Name:  "wine",
						Usage: "Wine ID to match against",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum results to print",
						Value: 5,
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func workerCommand(c *cli.Context) error {
	aiConfig := ai.NewConfig(
		ai.WithExtractionHost(c.String("extraction-host")),
		ai.WithExtractionModel(c.String("extraction-model")),
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithImageEmbeddingHost(c.String("image-embedding-host")),
		ai.WithImageEmbeddingModel(c.String("image-embedding-model")),
		ai.WithEnrichmentHost(c.String("enrichment-host")),
		ai.WithEnrichmentModel(c.String("enrichment-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := vinolog.NewDatabase(c.String("db"), vinolog.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pipelineConfig := pipeline.Config{
		BatchSize:    c.Int("batch-size"),
		PollInterval: c.Duration("poll-interval"),
		MaxRetries:   c.Int("max-retries"),
		PoolSize:     c.Int("pool-size"),
		ReclaimAfter: c.Duration("reclaim-after"),
	}
	if pipelineConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if pipelineConfig.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be greater than 0")
	}

	scanWorker, err := db.NewScanWorker(pipeline.WithConfig(pipelineConfig))
	if err != nil {
		return fmt.Errorf("failed to create scan worker: %w", err)
	}
	defer scanWorker.Release()

	embeddingWorker, err := db.NewEmbeddingWorker(pipelineConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedding worker: %w", err)
	}

	enrichmentWorker, err := db.NewEnrichmentWorker(enrich.Config{
		MaxRetries: c.Int("max-retries"),
	})
	if err != nil {
		return fmt.Errorf("failed to create enrichment worker: %w", err)
	}

	scanner, err := db.NewEnrichmentScanner(0)
	if err != nil {
		return fmt.Errorf("failed to create enrichment scanner: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		runUntilCancelled(ctx, "scan worker", scanWorker.Run)
	}()
	go func() {
		defer wg.Done()
		runUntilCancelled(ctx, "embedding worker", embeddingWorker.Run)
	}()
	go func() {
		defer wg.Done()
		runUntilCancelled(ctx, "enrichment worker", enrichmentWorker.Run)
	}()
	go func() {
		defer wg.Done()
		sweepLoop(ctx, scanner, c.Duration("sweep-interval"))
	}()

	<-ctx.Done()
	wg.Wait()
	return nil
}

func runUntilCancelled(ctx context.Context, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("worker exited", "worker", name, "err", err)
	}
}

// sweepLoop periodically queues enrichment for wines still missing
// metadata, catching rows whose enrichment jobs were lost or exhausted.
func sweepLoop(ctx context.Context, scanner *enrich.Scanner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := scanner.ScanOnce(ctx); err != nil {
				slog.Error("enrichment sweep failed", "err", err)
			}
		}
	}
}

func enqueueCommand(c *cli.Context) error {
	db, err := vinolog.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	job := &core.ScanJob{
		UserId:         core.ID(c.Uint64("user")),
		ImageURL:       c.String("image-url"),
		OCRText:        c.String("ocr-text"),
		IdempotencyKey: c.String("idempotency-key"),
	}

	result, created, err := db.ScanQueue().EnqueueScan(context.Background(), job)
	if err != nil {
		return fmt.Errorf("failed to enqueue scan: %w", err)
	}

	if created {
		fmt.Printf("queued scan %d\n", result.Id)
	} else {
		fmt.Printf("scan %d already queued (status %s)\n", result.Id, result.Status)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	db, err := vinolog.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	counts, err := db.ScanQueue().CountScansByStatus(context.Background())
	if err != nil {
		return fmt.Errorf("failed to count scans: %w", err)
	}

	statuses := []core.JobStatus{
		core.JobStatusPending,
		core.JobStatusProcessing,
		core.JobStatusCompleted,
		core.JobStatusFailed,
	}
	for _, status := range statuses {
		fmt.Printf("%-12s %d\n", status, counts[status])
	}
	return nil
}

func enrichCommand(c *cli.Context) error {
	db, err := vinolog.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	scanner, err := db.NewEnrichmentScanner(c.Int("batch-size"))
	if err != nil {
		return fmt.Errorf("failed to create enrichment scanner: %w", err)
	}

	queued, err := scanner.ScanOnce(context.Background())
	if err != nil {
		return fmt.Errorf("enrichment sweep failed: %w", err)
	}

	fmt.Printf("queued %d wines for enrichment\n", queued)
	return nil
}

func recommendCommand(c *cli.Context) error {
	scanID := c.Uint64("scan")
	wineID := c.Uint64("wine")
	if (scanID == 0) == (wineID == 0) {
		return fmt.Errorf("exactly one of --scan or --wine is required")
	}

	db, err := vinolog.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := db.NewRecommendationService()
	ctx := context.Background()
	limit := c.Int("limit")

	var results []recommendation
	if scanID != 0 {
		recs, err := service.SimilarToScan(ctx, core.ID(scanID), limit)
		if err != nil {
			return fmt.Errorf("failed to match scan %d: %w", scanID, err)
		}
		results = toRecommendations(recs)
	} else {
		recs, err := service.SimilarToWine(ctx, core.ID(wineID), limit)
		if err != nil {
			return fmt.Errorf("failed to match wine %d: %w", wineID, err)
		}
		results = toRecommendations(recs)
	}

	if len(results) == 0 {
		fmt.Println("no similar wines found")
		return nil
	}
	for _, r := range results {
		fmt.Println(r)
	}
	return nil
}

func toRecommendations(recs []recommend.Recommendation) []recommendation {
	out := make([]recommendation, 0, len(recs))
	for _, r := range recs {
		out = append(out, recommendation{
			wineID:    r.WineId,
			producer:  r.ProducerName,
			name:      r.WineName,
			percent:   r.MatchPercent,
			duplicate: r.Duplicate,
		})
	}
	return out
}

type recommendation struct {
	wineID    core.ID
	producer  string
	name      string
	percent   int
	duplicate bool
}

func (r recommendation) String() string {
	label := strings.TrimSpace(r.producer + " " + r.name)
	if label == "" {
		label = fmt.Sprintf("wine %d", r.wineID)
	}
	suffix := ""
	if r.duplicate {
		suffix = " [likely duplicate]"
	}
	return fmt.Sprintf("%3d%%  %s (wine %d)%s", r.percent, label, r.wineID, suffix)
}

package main

import (
	"context"
	"flag"
	"log"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/content"
	"github.com/noah-isme/lakgs-api/internal/repository"
	"github.com/noah-isme/lakgs-api/pkg/config"
	"github.com/noah-isme/lakgs-api/pkg/graphdb"
	"github.com/noah-isme/lakgs-api/pkg/logger"
)

func main() {
	var (
		envFile      string
		dir          string
		batchSize    int
		ensureSchema bool
		timeout      time.Duration
	)
	flag.StringVar(&envFile, "env-file", ".env", "Path to the dotenv file")
	flag.StringVar(&dir, "dir", "", "Snapshot directory (defaults to CONTENT_DIR)")
	flag.IntVar(&batchSize, "batch", 500, "Rows per UNWIND batch")
	flag.BoolVar(&ensureSchema, "ensure-schema", true, "Create missing indexes and constraints first")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Overall sync timeout")
	flag.Parse()

	cfg, err := config.Load(config.WithEnvFile(envFile))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if dir == "" {
		dir = cfg.Content.Dir
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	graph, err := graphdb.Open(ctx, graphdb.Config{
		URI:            cfg.Graph.URI,
		User:           cfg.Graph.User,
		Password:       cfg.Graph.Password,
		Database:       cfg.Graph.Database,
		LabelPrefix:    cfg.Graph.LabelPrefix,
		ConnectTimeout: cfg.Graph.ConnectTimeout,
		QueryTimeout:   cfg.Graph.QueryTimeout,
	}, logr)
	if err != nil {
		logr.Fatal("graph store unavailable", zap.Error(err))
	}
	defer graph.Close(context.Background()) //nolint:errcheck

	result, err := run(ctx, graph, content.Load(dir, logr), batchSize, ensureSchema)
	if err != nil {
		logr.Fatal("content sync failed", zap.Error(err))
	}

	names := make([]string, 0, len(result))
	for name := range result {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		logr.Info("content synced", zap.String("statement", name), zap.Int("rows", result[name]))
	}
}

func run(ctx context.Context, graph graphdb.Runner, repo *content.Repository, batchSize int, ensureSchema bool) (repository.SyncResult, error) {
	if ensureSchema {
		if err := graphdb.EnsureSchema(ctx, graph); err != nil {
			return nil, err
		}
	}
	textbooks, units, lessons, events, figures, concepts := repo.Snapshot()
	return repository.NewContentGraphRepository(graph, batchSize).Sync(ctx, repository.ContentSnapshot{
		Textbooks: textbooks,
		Units:     units,
		Lessons:   lessons,
		Events:    events,
		Figures:   figures,
		Concepts:  concepts,
	})
}

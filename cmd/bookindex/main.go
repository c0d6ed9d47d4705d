// Command bookindex bootstraps the passage vector index. Run it once before
// the ingestion pipeline writes passages; creating is idempotent.
package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/internal/db"
	dbRedis "github.com/ragline/ragline/internal/db/redis"
	logpkg "github.com/ragline/ragline/internal/logger"
	"github.com/ragline/ragline/internal/repository/passage"
)

// HNSW build parameters for the passage index. M trades recall for memory;
// EF_CONSTRUCTION trades recall for build time.
const (
	hnswM           = 16
	hnswEFConstruct = 200
)

func main() {
	recreate := flag.Bool("recreate", false, "drop and recreate the index if it exists")
	flag.Parse()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:     cfg.Database.Addrs,
		Password:  cfg.Database.Password,
		OpTimeout: time.Duration(cfg.Database.OpTimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	repo := passage.New(store, cfg.Retrieval.Collection, cfg.Retrieval.KeyPrefix, cfg.Embedding.Dimensions)
	indexName := repo.IndexName()
	keyPrefix := cfg.Retrieval.KeyPrefix + cfg.Retrieval.Collection + ":"

	if *recreate {
		if err := store.DropIndex(ctx, indexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			logger.Fatal("Failed to drop index", zap.String("index", indexName), zap.Error(err))
		}
	}

	def, err := db.NewIndex(indexName).
		Prefix(keyPrefix).
		Tag("source_url").
		Tag("section").
		Numeric("chunk_position").
		Text("chunk_text").
		VectorHNSW("vector", cfg.Embedding.Dimensions, hnswM, hnswEFConstruct).
		Build()
	if err != nil {
		logger.Fatal("Invalid index definition", zap.Error(err))
	}

	if err := store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			logger.Info("Index already exists", zap.String("index", indexName))
			return
		}
		logger.Fatal("Failed to create index", zap.String("index", indexName), zap.Error(err))
	}

	logger.Info("Index created",
		zap.String("index", indexName),
		zap.String("key_prefix", keyPrefix),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)
}

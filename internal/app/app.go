package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/config"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/cache"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/chunker"
	db "github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/database"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/extract"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/llm"
	objectclient "github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/object-client"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/router"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/services"
)

type App struct {
	DBClient core.DbClient
	Embedder *llm.GeminiEmbedder
	LLM      *llm.GeminiLLM
	Server   *Server

	log *zap.SugaredLogger
}

// NewApp builds every component and wires the HTTP server. The external
// clients are initialized concurrently; any single failure aborts startup.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	initCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	var (
		dbClient  core.DbClient
		objClient objectclient.ObjectClient
		embedder  *llm.GeminiEmbedder
		provider  *llm.GeminiLLM
	)

	g, gctx := errgroup.WithContext(initCtx)
	g.Go(func() error {
		var err error
		dbClient, err = db.NewDatabaseClient(gctx, cfg, log)
		if err != nil {
			return fmt.Errorf("database client: %w", err)
		}
		log.Info("database initialized and bootstrapped")
		return nil
	})
	g.Go(func() error {
		// Object storage is optional: without credentials the ingest
		// pipeline simply skips archival.
		if cfg.AwsAccessKey == "" || cfg.AwsSecretKey == "" {
			log.Info("object storage disabled: no AWS credentials")
			return nil
		}
		var err error
		objClient, err = objectclient.NewS3Client(gctx, cfg, log)
		if err != nil {
			return fmt.Errorf("object client: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		embedder, err = llm.NewGeminiEmbedder(gctx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			return fmt.Errorf("embedder: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		provider, err = llm.NewGeminiLLM(gctx, cfg.AIAPIKey, cfg.GenModel)
		if err != nil {
			return fmt.Errorf("llm: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	extractor := extract.New(log)
	ch := chunker.New()
	answers := cache.NewAnswerCache()

	askRouter := router.New(dbClient, embedder, provider, answers, cfg.CollectionName, log)
	ingestSvc := services.NewIngestService(
		dbClient, embedder, extractor, ch, objClient, cfg.BucketName, cfg.CollectionName, log)
	userSvc := services.NewUserService(dbClient)

	server := NewServer(cfg, dbClient, userSvc, ingestSvc, askRouter, log)

	return &App{
		DBClient: dbClient,
		Embedder: embedder,
		LLM:      provider,
		Server:   server,
		log:      log,
	}, nil
}

func (a *App) Close() {
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}

// Package app wires the shared dependencies of the server and worker
// binaries: engine registry, metadata store, file storage, queue, and the
// parsing service on top of them.
package app

import (
	"context"
	"fmt"

	"github.com/kca-ai/document-parser/config"
	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/internal/engine/camelot"
	"github.com/kca-ai/document-parser/internal/engine/docling"
	"github.com/kca-ai/document-parser/internal/engine/dolphin"
	"github.com/kca-ai/document-parser/internal/engine/mineru"
	"github.com/kca-ai/document-parser/internal/engine/pdfnative"
	"github.com/kca-ai/document-parser/internal/engine/remoteocr"
	"github.com/kca-ai/document-parser/internal/engine/tesseract"
	"github.com/kca-ai/document-parser/internal/engine/textract"
	"github.com/kca-ai/document-parser/internal/service/parsing"
	"github.com/kca-ai/document-parser/internal/store"
	"github.com/kca-ai/document-parser/pkg/logger"
	"github.com/kca-ai/document-parser/pkg/queue"
	"github.com/kca-ai/document-parser/pkg/storage"
)

// App bundles everything a binary needs.
type App struct {
	Config   *config.AppConfig
	Registry *engine.Registry
	Store    *store.Store
	Storage  storage.Storage
	Queue    *queue.AsynqQueue
	Service  *parsing.Service
}

// New builds the full dependency graph from configuration.
func New(ctx context.Context, log logger.Logger) (*App, error) {
	cfg := config.GetAppConfig()

	st, err := store.Open(cfg.DatabasePath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	fileStorage, err := storage.NewStorage(storage.StorageType(cfg.StorageBackend), cfg.DocuFolder, log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	q, err := queue.NewAsynqQueue(config.GetQueueConfig())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	registry := BuildRegistry(ctx, log)
	svc := parsing.NewService(registry, st, fileStorage, q, cfg, log)

	return &App{
		Config:   cfg,
		Registry: registry,
		Store:    st,
		Storage:  fileStorage,
		Queue:    q,
		Service:  svc,
	}, nil
}

func (a *App) Close() {
	if a.Queue != nil {
		a.Queue.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}

// BuildRegistry registers every configured parsing strategy. Engines whose
// backing service is down stay registered; availability is probed at parse
// time and on the health endpoint.
func BuildRegistry(ctx context.Context, log logger.Logger) *engine.Registry {
	remote := config.GetRemoteConfig()

	registry := engine.NewRegistry(log)
	registry.Register(docling.New(remote.Docling, log))
	registry.Register(camelot.New(remote.Camelot, log))
	registry.Register(mineru.New(remote.MinerU, log))
	registry.Register(dolphin.New(remote.Dolphin, log))
	registry.Register(remoteocr.New(remote.RemoteOCR, log))
	registry.Register(tesseract.New(remote.RemoteOCR.Languages, log))
	registry.Register(pdfnative.New(log))

	// Textract needs AWS credentials; without them the engine stays out
	// of the registry entirely.
	txCfg := config.GetTextractConfig()
	if txCfg.AccessKey != "" && txCfg.SecretKey != "" {
		tx, err := textract.New(ctx, txCfg, log)
		if err != nil {
			log.Warn("Textract engine unavailable", logger.Error(err))
		} else {
			registry.Register(tx)
		}
	}

	return registry
}

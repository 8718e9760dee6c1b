package mineru

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kca-ai/document-parser/config"
	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/pkg/logger"
)

// Engine parses documents through a MinerU service instance. MinerU
// returns finished markdown; tables are recovered from the markdown
// stream.
type Engine struct {
	cfg    config.MinerUConfig
	client *http.Client
	logger logger.Logger
}

type parseRequest struct {
	Filename   string `json:"filename"`
	FileBase64 string `json:"file_base64"`
}

type parseResponse struct {
	Markdown string `json:"markdown"`
	Pages    int    `json:"pages"`
}

func New(cfg config.MinerUConfig, log logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logger: log,
	}
}

func (e *Engine) Name() string { return "mineru" }

func (e *Engine) CanParse(ext string) bool {
	switch ext {
	case ".pdf", ".docx", ".pptx":
		return true
	}
	return false
}

func (e *Engine) Available(ctx context.Context) bool {
	return engine.HealthCheck(ctx, e.client, e.cfg.Endpoint, 5*time.Second)
}

func (e *Engine) Parse(ctx context.Context, in engine.Input) (*engine.Result, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	e.logger.Info("Calling MinerU server",
		logger.String("endpoint", e.cfg.Endpoint),
		logger.String("filename", in.Filename),
	)

	var resp parseResponse
	err = engine.PostJSON(ctx, e.client, e.cfg.Endpoint+"/parse", parseRequest{
		Filename:   in.Filename,
		FileBase64: base64.StdEncoding.EncodeToString(data),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("mineru parsing failed: %w", err)
	}

	markdown := strings.TrimSpace(resp.Markdown)
	return &engine.Result{
		Engine:   e.Name(),
		Markdown: markdown,
		Pages:    resp.Pages,
		Tables:   engine.ScanMarkdownTables(markdown),
	}, nil
}

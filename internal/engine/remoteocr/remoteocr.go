package remoteocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/kca-ai/document-parser/config"
	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/pkg/logger"
)

// Engine extracts text through the remote OCR server's /ocr/extract
// endpoint. The server chooses between tesseract, paddleocr, and dolphin
// backends; this client just ships image bytes and reads text back.
type Engine struct {
	cfg    config.RemoteOCRConfig
	client *http.Client
	logger logger.Logger
}

type extractRequest struct {
	ImageBase64 string   `json:"image_base64"`
	Engine      string   `json:"engine"`
	Languages   []string `json:"languages"`
}

type extractResponse struct {
	Text string `json:"text"`
}

func New(cfg config.RemoteOCRConfig, log logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logger: log,
	}
}

func (e *Engine) Name() string { return "remote-ocr" }

func (e *Engine) CanParse(ext string) bool {
	switch ext {
	case ".png", ".jpg", ".jpeg", ".tiff":
		return true
	}
	return false
}

func (e *Engine) Available(ctx context.Context) bool {
	return engine.HealthCheck(ctx, e.client, e.cfg.Endpoint, e.cfg.HealthTimeout)
}

func (e *Engine) Parse(ctx context.Context, in engine.Input) (*engine.Result, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	ocrEngine := e.cfg.DefaultEngine
	if v, ok := in.Options["ocr_engine"]; ok && v != "" {
		ocrEngine = v
	}

	e.logger.Info("Calling remote OCR server",
		logger.String("endpoint", e.cfg.Endpoint),
		logger.String("engine", ocrEngine),
		logger.String("filename", in.Filename),
	)

	var resp extractResponse
	err = engine.PostJSON(ctx, e.client, e.cfg.Endpoint+"/ocr/extract", extractRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		Engine:      ocrEngine,
		Languages:   e.cfg.Languages,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("remote ocr failed: %w", err)
	}

	return &engine.Result{
		Engine:   e.Name(),
		Markdown: strings.TrimSpace(resp.Text),
		Pages:    1,
	}, nil
}

package dolphin

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/kca-ai/document-parser/config"
	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/pkg/logger"
)

// pagePrompt asks the remote model for a full-page layout parse.
const pagePrompt = "Parse the reading order of this document."

// Engine sends page images to the remote Dolphin GPU server. The model and
// all inference run server-side; this client only encodes images and
// collects generated markup.
type Engine struct {
	cfg    config.DolphinConfig
	client *http.Client
	logger logger.Logger
}

type visionRequest struct {
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"image_base64"`
	MaxLength   int    `json:"max_length"`
}

type visionResponse struct {
	GeneratedText string `json:"generated_text"`
	Text          string `json:"text"`
}

func New(cfg config.DolphinConfig, log logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.InferenceTimeout},
		logger: log,
	}
}

func (e *Engine) Name() string { return "dolphin" }

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
	encoded, err := e.encodeImage(in.Path)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Calling Dolphin GPU server",
		logger.String("endpoint", e.cfg.Endpoint),
		logger.String("filename", in.Filename),
	)

	var resp visionResponse
	err = engine.PostJSON(ctx, e.client, e.cfg.Endpoint+"/vision", visionRequest{
		Prompt:      pagePrompt,
		ImageBase64: encoded,
		MaxLength:   4096,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("dolphin inference failed: %w", err)
	}

	markdown := resp.GeneratedText
	if markdown == "" {
		markdown = resp.Text
	}
	markdown = strings.TrimSpace(markdown)

	tables := engine.ScanMarkdownTables(markdown)
	for i := range tables {
		tables[i].Page = 1
	}

	return &engine.Result{
		Engine:   e.Name(),
		Markdown: markdown,
		Pages:    1,
		Tables:   tables,
	}, nil
}

// encodeImage downscales the input so its longest side matches the model's
// target size, then returns it as base64 PNG.
func (e *Engine) encodeImage(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}

	target := e.cfg.ImageTargetSize
	bounds := img.Bounds()
	if target > 0 && (bounds.Dx() > target || bounds.Dy() > target) {
		if bounds.Dx() >= bounds.Dy() {
			img = imaging.Resize(img, target, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, target, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

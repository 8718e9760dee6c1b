package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/pkg/logger"
)

// Engine runs local tesseract OCR on image files. It is the only strategy
// that works fully offline on scanned images; everything else with OCR
// quality requirements goes through the remote servers.
type Engine struct {
	languages []string
	logger    logger.Logger
}

func New(languages []string, log logger.Logger) *Engine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Engine{languages: languages, logger: log}
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) CanParse(ext string) bool {
	switch ext {
	case ".png", ".jpg", ".jpeg", ".tiff":
		return true
	}
	return false
}

func (e *Engine) Available(ctx context.Context) bool { return true }

func (e *Engine) Parse(ctx context.Context, in engine.Input) (*engine.Result, error) {
	img, err := imaging.Open(in.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	processed := e.preprocess(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, processed); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to load image into OCR: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	e.logger.Info("Local OCR completed",
		logger.String("filename", in.Filename),
		logger.Int("chars", len(text)),
	)

	return &engine.Result{
		Engine:   e.Name(),
		Markdown: strings.TrimSpace(text),
		Pages:    1,
	}, nil
}

// preprocess applies the standard cleanup chain before OCR: grayscale,
// slight contrast boost, sharpening.
func (e *Engine) preprocess(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 10)
	return imaging.Sharpen(out, 0.5)
}

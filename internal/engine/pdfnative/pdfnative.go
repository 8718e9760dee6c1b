package pdfnative

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/pkg/logger"
)

const maxPageWorkers = 4

// Engine extracts page text from PDFs without any external service. It is
// the offline fallback strategy: plain text per page, no table detection.
type Engine struct {
	logger logger.Logger
}

func New(log logger.Logger) *Engine {
	return &Engine{logger: log}
}

func (e *Engine) Name() string { return "pdf-native" }

func (e *Engine) CanParse(ext string) bool {
	return ext == ".pdf"
}

func (e *Engine) Available(ctx context.Context) bool { return true }

func (e *Engine) Parse(ctx context.Context, in engine.Input) (*engine.Result, error) {
	f, err := os.Open(in.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat pdf: %w", err)
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	numPages := reader.NumPage()
	pageTexts := make([]string, numPages)

	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxPageWorkers)
	var mu sync.Mutex

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return ctx.Err()
			}

			page := reader.Page(pageNum)
			if page.V.IsNull() {
				return nil
			}
			text, err := page.GetPlainText(nil)
			if err != nil {
				e.logger.Warn("Failed to extract page text",
					logger.Int("page", pageNum),
					logger.Error(err),
				)
				return nil
			}
			mu.Lock()
			pageTexts[pageNum-1] = text
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to process pdf pages: %w", err)
	}

	var b strings.Builder
	for i, text := range pageTexts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "## Page %d\n\n%s\n\n", i+1, strings.TrimSpace(text))
	}

	return &engine.Result{
		Engine:   e.Name(),
		Markdown: strings.TrimSpace(b.String()),
		Pages:    numPages,
	}, nil
}

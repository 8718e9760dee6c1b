package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kca-ai/document-parser/internal/models"
	"github.com/kca-ai/document-parser/pkg/logger"
)

// Input points an engine at a stored original document.
type Input struct {
	Path     string // local filesystem path
	Filename string
	Options  map[string]string
}

// Result is what every parsing strategy must produce: rendered markdown,
// the detected tables in the RawTable contract, and whatever page/picture
// metadata the engine knows about.
type Result struct {
	Engine   string
	Markdown string
	Pages    int
	Tables   []models.RawTable
	Pictures []models.Picture
	Warnings []string
}

// Engine is one parsing strategy. Implementations are thin wrappers over a
// library or a remote service; none of them contain document-understanding
// logic of their own.
type Engine interface {
	Name() string
	CanParse(ext string) bool
	Available(ctx context.Context) bool
	Parse(ctx context.Context, in Input) (*Result, error)
}

// Registry holds the configured strategies keyed by name.
type Registry struct {
	engines map[string]Engine
	logger  logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		engines: make(map[string]Engine),
		logger:  log,
	}
}

func (r *Registry) Register(e Engine) {
	r.engines[e.Name()] = e
}

// Get resolves a strategy name to its engine.
func (r *Registry) Get(strategy string) (Engine, error) {
	e, ok := r.engines[strings.ToLower(strings.TrimSpace(strategy))]
	if !ok {
		return nil, fmt.Errorf("unknown parsing strategy: %s", strategy)
	}
	return e, nil
}

// GetFor resolves a strategy and verifies it accepts the file extension.
func (r *Registry) GetFor(strategy, ext string) (Engine, error) {
	e, err := r.Get(strategy)
	if err != nil {
		return nil, err
	}
	if !e.CanParse(strings.ToLower(ext)) {
		return nil, fmt.Errorf("strategy %s does not support %s files", e.Name(), ext)
	}
	return e, nil
}

// Names lists the registered strategies in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Availability probes every registered engine, for the health endpoint.
func (r *Registry) Availability(ctx context.Context) map[string]bool {
	out := make(map[string]bool, len(r.engines))
	for name, e := range r.engines {
		out[name] = e.Available(ctx)
	}
	return out
}

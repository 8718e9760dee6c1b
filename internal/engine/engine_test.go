package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kca-ai/document-parser/pkg/logger"
)

type stubEngine struct {
	name      string
	exts      map[string]bool
	available bool
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) CanParse(ext string) bool { return s.exts[ext] }

func (s *stubEngine) Available(_ context.Context) bool { return s.available }
func (s *stubEngine) Parse(_ context.Context, _ Input) (*Result, error) {
	return &Result{Engine: s.name}, nil
}

func newTestRegistry() *Registry {
	r := NewRegistry(logger.NewTestLogger())
	r.Register(&stubEngine{name: "docling", exts: map[string]bool{".pdf": true, ".docx": true}, available: true})
	r.Register(&stubEngine{name: "camelot", exts: map[string]bool{".pdf": true}, available: false})
	return r
}

func TestRegistryGet(t *testing.T) {
	r := newTestRegistry()

	e, err := r.Get("docling")
	require.NoError(t, err)
	assert.Equal(t, "docling", e.Name())

	// Lookup is case and whitespace tolerant.
	e, err = r.Get("  Docling ")
	require.NoError(t, err)
	assert.Equal(t, "docling", e.Name())

	_, err = r.Get("nope")
	assert.ErrorContains(t, err, "unknown parsing strategy")
}

func TestRegistryGetFor(t *testing.T) {
	r := newTestRegistry()

	e, err := r.GetFor("camelot", ".PDF")
	require.NoError(t, err)
	assert.Equal(t, "camelot", e.Name())

	_, err = r.GetFor("camelot", ".docx")
	assert.ErrorContains(t, err, "does not support")
}

func TestRegistryNames(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, []string{"camelot", "docling"}, r.Names())
}

func TestRegistryAvailability(t *testing.T) {
	r := newTestRegistry()
	got := r.Availability(context.Background())
	assert.Equal(t, map[string]bool{"docling": true, "camelot": false}, got)
}

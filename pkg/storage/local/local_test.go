package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kca-ai/document-parser/pkg/logger"
)

func TestStoreAndGet(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, logger.NewTestLogger())
	require.NoError(t, err)

	key, err := s.Store(context.Background(), strings.NewReader("hello"), "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "doc.pdf", key)

	r, err := s.Get(context.Background(), "doc.pdf")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(context.Background(), "doc.pdf"))
	_, err = s.Get(context.Background(), "doc.pdf")
	assert.Error(t, err)
}

func TestRejectsPathTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.pdf", "a/b.pdf", ".hidden"} {
		_, err := s.Store(context.Background(), strings.NewReader("x"), key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestCleanupBefore(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, logger.NewTestLogger())
	require.NoError(t, err)

	_, err = s.Store(context.Background(), strings.NewReader("old"), "old.pdf")
	require.NoError(t, err)
	_, err = s.Store(context.Background(), strings.NewReader("new"), "new.pdf")
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "old.pdf"), past, past))

	require.NoError(t, s.CleanupBefore(context.Background(), time.Now().Add(-24*time.Hour)))

	_, err = s.Get(context.Background(), "old.pdf")
	assert.Error(t, err)
	r, err := s.Get(context.Background(), "new.pdf")
	require.NoError(t, err)
	r.Close()
}

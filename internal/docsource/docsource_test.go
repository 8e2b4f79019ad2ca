package docsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groundwork/internal/extract"
)

func TestDirSourceLoadsTextFiles(t *testing.T) {
	dir := t.TempDir()
	org := filepath.Join(dir, "org1")
	require.NoError(t, os.MkdirAll(org, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(org, "mission.txt"), []byte("We serve care leavers."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(org, "plan.md"), []byte("# Plan"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(org, "logo.png"), []byte{0x89, 0x50}, 0o644))

	docs, err := NewDirSource(dir).Load(context.Background(), "org1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	names := []string{docs[0].Filename, docs[1].Filename}
	assert.Contains(t, names, "mission.txt")
	assert.Contains(t, names, "plan.md")
}

func TestDirSourcePutRoundTrip(t *testing.T) {
	src := NewDirSource(t.TempDir())
	ctx := context.Background()

	doc := extract.Document{Filename: "mission.txt", Content: "We serve care leavers."}
	require.NoError(t, src.Put(ctx, "org1", doc))

	docs, err := src.Load(ctx, "org1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "mission.txt", docs[0].Filename)
	assert.Equal(t, "We serve care leavers.", docs[0].Content)
	assert.Equal(t, "text/plain", docs[0].MimeType)
}

func TestDirSourcePutRejectsPathyNames(t *testing.T) {
	src := NewDirSource(t.TempDir())
	ctx := context.Background()

	assert.Error(t, src.Put(ctx, "org1", extract.Document{Filename: "../escape.txt"}))
	assert.Error(t, src.Put(ctx, "org1", extract.Document{Filename: ""}))
	assert.Error(t, src.Put(ctx, "", extract.Document{Filename: "ok.txt"}))
}

func TestDirSourceMissingOrg(t *testing.T) {
	docs, err := NewDirSource(t.TempDir()).Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestUsableMimeTypes(t *testing.T) {
	assert.True(t, usable("text/plain"))
	assert.True(t, usable("text/plain; charset=utf-8"))
	assert.True(t, usable("application/pdf"))
	assert.False(t, usable("image/png"))
	assert.False(t, usable(""))
}

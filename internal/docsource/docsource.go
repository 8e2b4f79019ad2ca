// Package docsource loads uploaded foundation documents for the
// extraction pathway. Uploads land in object storage keyed by
// organization; local runs read a directory instead.
package docsource

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"groundwork/internal/extract"
)

// Source lists an organization's uploaded documents.
type Source interface {
	Load(ctx context.Context, orgID string) ([]extract.Document, error)
}

// Sink accepts document uploads. Both sources implement it.
type Sink interface {
	Put(ctx context.Context, orgID string, doc extract.Document) error
}

// text-bearing types the extraction adapter can use. Anything else
// (images, archives) is skipped rather than fed to the model.
var textMimeTypes = map[string]bool{
	"text/plain":       true,
	"text/markdown":    true,
	"text/csv":         true,
	"application/json": true,
	"application/pdf":  true,
}

func usable(mimeType string) bool {
	mt := strings.TrimSpace(mimeType)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return textMimeTypes[strings.ToLower(mt)]
}

// extensions the platform mime table cannot be trusted to know.
var extMimeTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".pdf":  "application/pdf",
}

func detectMime(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := extMimeTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// DirSource reads every regular file under dir as one document. Used
// for local runs and tests.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource { return &DirSource{dir: dir} }

func (s *DirSource) Load(_ context.Context, orgID string) ([]extract.Document, error) {
	root := filepath.Join(s.dir, orgID)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []extract.Document
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		mt := detectMime(e.Name())
		if !usable(mt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, extract.Document{
			Filename: e.Name(),
			Content:  string(data),
			MimeType: mt,
		})
	}
	return out, nil
}

// Put writes one uploaded document into the organization's directory.
func (s *DirSource) Put(_ context.Context, orgID string, doc extract.Document) error {
	orgID = strings.TrimSpace(orgID)
	name := strings.TrimSpace(doc.Filename)
	if orgID == "" {
		return fmt.Errorf("organization id is required")
	}
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("filename %q is not a plain file name", doc.Filename)
	}
	dir := filepath.Join(s.dir, orgID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(doc.Content), 0o644)
}

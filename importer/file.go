package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/robbyt/go-jsonnetvm/internal/helpers"
)

// FileImporter reads imports from the local file system. A relative import is tried next to
// the importing file first, then in each search path, with later search paths taking
// precedence over earlier ones.
type FileImporter struct {
	logging
	searchPaths []string
}

// NewFileImporter creates a FileImporter. Search paths must be absolute directories.
func NewFileImporter(searchPaths []string, opts ...Option) (*FileImporter, error) {
	l, err := newLogging("FileImporter", opts)
	if err != nil {
		return nil, err
	}

	cleaned := make([]string, 0, len(searchPaths))
	for _, p := range searchPaths {
		p = strings.TrimPrefix(p, "file://")
		if strings.Contains(p, "://") {
			return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, p)
		}
		if !filepath.IsAbs(p) {
			return nil, fmt.Errorf("%w: search path %q is not absolute", ErrInvalidPath, p)
		}
		cleaned = append(cleaned, filepath.Clean(p))
	}

	return &FileImporter{logging: l, searchPaths: cleaned}, nil
}

func (f *FileImporter) String() string {
	return fmt.Sprintf("importer.FileImporter{SearchPaths: %v}", f.searchPaths)
}

// SearchPaths returns the configured search paths in lookup order.
func (f *FileImporter) SearchPaths() []string {
	paths := slices.Clone(f.searchPaths)
	slices.Reverse(paths)
	return paths
}

func (f *FileImporter) candidates(baseDir, rel string) []string {
	rel = strings.TrimPrefix(rel, "file://")
	if filepath.IsAbs(rel) {
		return []string{filepath.Clean(rel)}
	}
	out := make([]string, 0, len(f.searchPaths)+1)
	out = append(out, filepath.Join(baseDir, rel))
	for _, dir := range f.SearchPaths() {
		out = append(out, filepath.Join(dir, rel))
	}
	return out
}

// Import implements Resolver.
func (f *FileImporter) Import(ctx context.Context, baseDir, rel string) (string, string, error) {
	logger := f.logger.WithGroup("Import")

	if rel == "" {
		return "", "", fmt.Errorf("%w: empty import path", ErrInvalidPath)
	}
	if strings.Contains(rel, "://") && !strings.HasPrefix(rel, "file://") {
		return "", "", fmt.Errorf("%w: %s", ErrSchemeUnsupported, rel)
	}

	for _, candidate := range f.candidates(baseDir, rel) {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		content, err := os.ReadFile(candidate)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || isDirError(candidate) {
				logger.DebugContext(ctx, "no match", "candidate", candidate)
				continue
			}
			return "", "", fmt.Errorf("failed to read %s: %w", candidate, err)
		}
		logger.DebugContext(ctx, "resolved import",
			"rel", rel, "foundHere", candidate, "sha256", helpers.ShortSHA256Bytes(content))
		return string(content), candidate, nil
	}
	return "", "", ErrNotFound
}

func isDirError(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

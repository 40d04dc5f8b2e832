package importer

import (
	"context"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/robbyt/go-jsonnetvm/internal/helpers"
)

// MemoryImporter serves imports from an in-memory set of files keyed by slash-separated path.
// A relative import is looked up next to the importing file, then as given.
type MemoryImporter struct {
	logging
	files map[string]string
}

// NewMemoryImporter copies files, so later changes to the map are not visible.
func NewMemoryImporter(files map[string]string, opts ...Option) (*MemoryImporter, error) {
	l, err := newLogging("MemoryImporter", opts)
	if err != nil {
		return nil, err
	}
	normalized := make(map[string]string, len(files))
	for name, content := range files {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: empty file name", ErrInvalidPath)
		}
		normalized[path.Clean(name)] = content
	}
	return &MemoryImporter{logging: l, files: normalized}, nil
}

func (m *MemoryImporter) String() string {
	names := slices.Sorted(maps.Keys(m.files))
	return fmt.Sprintf("importer.MemoryImporter{Files: %v}", names)
}

// Import implements Resolver.
func (m *MemoryImporter) Import(ctx context.Context, baseDir, rel string) (string, string, error) {
	logger := m.logger.WithGroup("Import")

	if rel == "" {
		return "", "", fmt.Errorf("%w: empty import path", ErrInvalidPath)
	}

	candidates := []string{path.Clean(rel)}
	if !path.IsAbs(rel) && baseDir != "" {
		candidates = append([]string{path.Join(baseDir, rel)}, candidates...)
	}
	for _, name := range candidates {
		if content, ok := m.files[name]; ok {
			logger.DebugContext(ctx, "resolved import",
				"rel", rel, "foundHere", name, "sha256", helpers.ShortSHA256(content))
			return content, name, nil
		}
	}
	return "", "", ErrNotFound
}

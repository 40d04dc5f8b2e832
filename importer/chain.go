package importer

import (
	"context"
	"errors"
	"fmt"
)

// ChainImporter asks each resolver in turn and returns the first successful result.
type ChainImporter struct {
	logging
	resolvers []Resolver
}

// NewChainImporter builds a chain. Nil resolvers are skipped.
func NewChainImporter(resolvers []Resolver, opts ...Option) (*ChainImporter, error) {
	l, err := newLogging("ChainImporter", opts)
	if err != nil {
		return nil, err
	}
	chain := make([]Resolver, 0, len(resolvers))
	for _, r := range resolvers {
		if r != nil {
			chain = append(chain, r)
		}
	}
	return &ChainImporter{logging: l, resolvers: chain}, nil
}

func (c *ChainImporter) String() string {
	return fmt.Sprintf("importer.ChainImporter{Resolvers: %d}", len(c.resolvers))
}

// Import implements Resolver. When every resolver fails the errors are joined. A resolver
// failing with anything other than ErrNotFound does not stop the chain.
func (c *ChainImporter) Import(ctx context.Context, baseDir, rel string) (string, string, error) {
	logger := c.logger.WithGroup("Import")

	if len(c.resolvers) == 0 {
		return "", "", ErrNoResolvers
	}

	var errz []error
	for i, r := range c.resolvers {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		content, foundHere, err := r.Import(ctx, baseDir, rel)
		if err == nil {
			logger.DebugContext(ctx, "resolved import", "resolver", i, "foundHere", foundHere)
			return content, foundHere, nil
		}
		if !errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, "resolver failed", "resolver", i, "error", err)
		}
		errz = append(errz, err)
	}

	if len(errz) == 1 {
		return "", "", errz[0]
	}
	allNotFound := true
	for _, err := range errz {
		if !errors.Is(err, ErrNotFound) {
			allNotFound = false
			break
		}
	}
	if allNotFound {
		return "", "", ErrNotFound
	}
	return "", "", errors.Join(errz...)
}

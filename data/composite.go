package data

import (
	"context"
	"fmt"
	"maps"
)

// CompositeProvider merges the results of several providers. Later providers win on key
// collisions.
type CompositeProvider struct {
	providers []Provider
}

func NewCompositeProvider(providers ...Provider) *CompositeProvider {
	return &CompositeProvider{providers: providers}
}

func (p *CompositeProvider) GetData(ctx context.Context) (map[string]any, error) {
	result := make(map[string]any)
	for i, provider := range p.providers {
		if provider == nil {
			continue
		}
		data, err := provider.GetData(ctx)
		if err != nil {
			return nil, fmt.Errorf("error from provider %d: %w", i, err)
		}
		maps.Copy(result, data)
	}
	return result, nil
}

package data

import (
	"context"
	"maps"
)

// StaticProvider returns a fixed map.
type StaticProvider struct {
	data map[string]any
}

// NewStaticProvider creates a StaticProvider. A nil map yields no variables.
func NewStaticProvider(data map[string]any) *StaticProvider {
	if data == nil {
		data = make(map[string]any)
	}
	return &StaticProvider{data: data}
}

// GetData returns a copy of the static map.
func (p *StaticProvider) GetData(_ context.Context) (map[string]any, error) {
	return maps.Clone(p.data), nil
}

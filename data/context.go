package data

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
)

// ContextProvider reads the map stored in a context under its key.
type ContextProvider struct {
	contextKey ContextKey
}

func NewContextProvider(contextKey ContextKey) *ContextProvider {
	return &ContextProvider{contextKey: contextKey}
}

// GetData returns the map stored in ctx, or an empty map when nothing is stored.
func (p *ContextProvider) GetData(ctx context.Context) (map[string]any, error) {
	if p.contextKey == "" {
		return nil, ErrEmptyContextKey
	}

	value := ctx.Value(p.contextKey)
	if value == nil {
		return make(map[string]any), nil
	}
	stored, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected map[string]any, got %T", ErrInvalidData, value)
	}
	return maps.Clone(stored), nil
}

// AddDataToContext returns a context carrying data for GetData. An *http.Request is stored
// under Request; maps are merged under InputData. Items that cannot be stored are reported
// in the returned error, but the context always carries everything that could be stored.
func (p *ContextProvider) AddDataToContext(ctx context.Context, data ...any) (context.Context, error) {
	if p.contextKey == "" {
		return ctx, ErrEmptyContextKey
	}

	var errz []error
	toStore := make(map[string]any)
	if existing, ok := ctx.Value(p.contextKey).(map[string]any); ok {
		maps.Copy(toStore, existing)
	}

	for _, item := range data {
		switch v := item.(type) {
		case nil:
			continue
		case *http.Request:
			if v == nil {
				continue
			}
			if _, exists := toStore[Request]; exists {
				errz = append(errz, fmt.Errorf("%w: request data already set", ErrInvalidData))
				continue
			}
			reqMap, err := RequestToMap(v)
			if err != nil {
				errz = append(errz, fmt.Errorf("failed to convert HTTP request to map: %w", err))
				continue
			}
			toStore[Request] = reqMap
		case map[string]any:
			inputData := make(map[string]any)
			if existing, ok := toStore[InputData].(map[string]any); ok {
				maps.Copy(inputData, existing)
			}
			maps.Copy(inputData, v)
			toStore[InputData] = inputData
		default:
			errz = append(errz, fmt.Errorf("%w: unsupported data type %T", ErrInvalidData, item))
		}
	}

	return context.WithValue(ctx, p.contextKey, toStore), errors.Join(errz...)
}

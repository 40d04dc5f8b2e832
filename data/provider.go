// Package data supplies Go values for a Session's external variables and top-level arguments.
//
// A Provider yields a map; Bind hands every entry to a Binder, encoding each value as Jsonnet
// code so that objects, arrays and numbers keep their types inside the program.
package data

import (
	"context"
)

// Provider retrieves the values to bind for one evaluation.
type Provider interface {
	// GetData returns variable names mapped to Go values.
	GetData(ctx context.Context) (map[string]any, error)
}

// ContextKey is the type of keys under which ContextProvider stores data.
type ContextKey string

// Key names used by ContextProvider.AddDataToContext.
const (
	Request   = "request"
	InputData = "input_data"
)

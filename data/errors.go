package data

import "errors"

var (
	ErrEmptyContextKey = errors.New("context key is empty")
	ErrInvalidData     = errors.New("invalid input data")
)

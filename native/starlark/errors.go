package starlark

import "errors"

var (
	ErrContentNil = errors.New("starlark source is empty")
	ErrLoadFailed = errors.New("failed to load starlark module")
)

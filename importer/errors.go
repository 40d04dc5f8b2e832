package importer

import "errors"

var (
	ErrNotFound          = errors.New("no match locally or in the Jsonnet library paths")
	ErrSchemeUnsupported = errors.New("unsupported scheme")
	ErrInvalidPath       = errors.New("invalid path")
	ErrNoResolvers       = errors.New("no resolvers configured")
)

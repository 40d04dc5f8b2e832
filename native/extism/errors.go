package extism

import "errors"

var (
	ErrContentNil        = errors.New("wasm content is empty")
	ErrCompileFailed     = errors.New("failed to compile plugin")
	ErrExportNotFound    = errors.New("export not found in plugin")
	ErrNonZeroExit       = errors.New("plugin returned non-zero exit code")
	ErrPluginClosed      = errors.New("plugin is closed")
	ErrInvalidParameters = errors.New("invalid parameters")
)

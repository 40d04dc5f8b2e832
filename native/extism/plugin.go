// Package extism backs Jsonnet native functions with exports of an Extism WASM plugin.
//
// Each call creates a fresh plugin instance and passes the arguments as a JSON object keyed by
// parameter name. The export's output is decoded as JSON; output that is not JSON is returned as
// a string.
package extism

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	extismSDK "github.com/extism/go-sdk"
	jsoniter "github.com/json-iterator/go"
	"github.com/tetratelabs/wazero"

	"github.com/robbyt/go-jsonnetvm/internal/helpers"
	"github.com/robbyt/go-jsonnetvm/native"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Plugin is a compiled WASM module whose exports can be registered as native functions.
type Plugin struct {
	compiled CompiledPlugin

	mu     sync.RWMutex
	closed bool

	logHandler slog.Handler
	logger     *slog.Logger
}

// Compile compiles raw WASM bytes.
func Compile(ctx context.Context, wasm []byte, opts ...Option) (*Plugin, error) {
	s := defaultSettings()
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	s.setupLogger()

	if len(wasm) == 0 {
		return nil, ErrContentNil
	}

	manifest := extismSDK.Manifest{
		Wasm: []extismSDK.Wasm{extismSDK.WasmData{Data: wasm}},
	}
	config := extismSDK.PluginConfig{
		EnableWasi:    s.enableWASI,
		RuntimeConfig: s.runtimeConfig,
	}
	compiled, err := extismSDK.NewCompiledPlugin(ctx, manifest, config, s.hostFunctions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}

	s.logger.DebugContext(ctx, "plugin compiled", "sha256", helpers.ShortSHA256Bytes(wasm))
	return newPlugin(&sdkCompiledPlugin{plugin: compiled}, s.logHandler, s.logger), nil
}

// CompileBase64 compiles base64-encoded WASM.
func CompileBase64(ctx context.Context, encoded string, opts ...Option) (*Plugin, error) {
	wasm, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid WASM binary (must be base64 encoded): %w", err)
	}
	return Compile(ctx, wasm, opts...)
}

// CompileFile reads and compiles a .wasm file.
func CompileFile(ctx context.Context, filename string, opts ...Option) (*Plugin, error) {
	wasm, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return Compile(ctx, wasm, opts...)
}

func newPlugin(compiled CompiledPlugin, handler slog.Handler, logger *slog.Logger) *Plugin {
	return &Plugin{compiled: compiled, logHandler: handler, logger: logger}
}

func (p *Plugin) String() string {
	return "extism.Plugin"
}

// Function returns a native function named name that calls export.
func (p *Plugin) Function(name, export string, params ...string) (native.Function, error) {
	f := native.Function{
		Name:   name,
		Params: params,
		Func: func(ctx context.Context, args []any) (any, error) {
			return p.call(ctx, export, params, args)
		},
	}
	if err := f.Validate(); err != nil {
		return native.Function{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	return f, nil
}

// Close releases the compiled module. Functions created from the plugin fail afterwards.
func (p *Plugin) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.compiled.Close(ctx)
}

func instanceConfig() extismSDK.PluginInstanceConfig {
	moduleConfig := wazero.NewModuleConfig().
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)
	return extismSDK.PluginInstanceConfig{ModuleConfig: moduleConfig}
}

func (p *Plugin) call(ctx context.Context, export string, params []string, args []any) (any, error) {
	logger := p.logger.WithGroup("call").With("export", export)

	if len(args) != len(params) {
		return nil, fmt.Errorf("%w: got %d arguments, want %d", ErrInvalidParameters, len(args), len(params))
	}
	input := make(map[string]any, len(params))
	for i, name := range params {
		input[name] = args[i]
	}
	inputJSON, err := jsonAPI.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input data: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPluginClosed
	}

	instance, err := p.compiled.Instance(ctx, instanceConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create plugin instance: %w", err)
	}
	defer func() {
		if err := instance.Close(ctx); err != nil {
			logger.WarnContext(ctx, "failed to close plugin instance", "error", err)
		}
	}()

	if !instance.FunctionExists(export) {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, export)
	}
	return exec(ctx, logger, instance, export, inputJSON)
}

func exec(
	ctx context.Context,
	logger *slog.Logger,
	instance PluginInstance,
	export string,
	inputJSON []byte,
) (any, error) {
	startTime := time.Now()
	exit, output, err := instance.CallWithContext(ctx, export, inputJSON)
	execTime := time.Since(startTime)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("execution cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	if exit != 0 {
		return nil, fmt.Errorf("%w: %d", ErrNonZeroExit, exit)
	}

	var result any
	d := jsonAPI.NewDecoder(bytes.NewReader(output))
	d.UseNumber()
	if err := d.Decode(&result); err != nil {
		result = string(output)
	}

	logger.DebugContext(ctx, "execution complete", "execTime", execTime)
	return result, nil
}

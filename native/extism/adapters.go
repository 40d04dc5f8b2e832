package extism

import (
	"context"

	extismSDK "github.com/extism/go-sdk"
)

// CompiledPlugin abstracts extismSDK.CompiledPlugin.
type CompiledPlugin interface {
	Instance(ctx context.Context, config extismSDK.PluginInstanceConfig) (PluginInstance, error)
	Close(ctx context.Context) error
}

// PluginInstance abstracts extismSDK.Plugin.
type PluginInstance interface {
	CallWithContext(ctx context.Context, name string, data []byte) (uint32, []byte, error)
	FunctionExists(name string) bool
	Close(ctx context.Context) error
}

type sdkCompiledPlugin struct {
	plugin *extismSDK.CompiledPlugin
}

func (a *sdkCompiledPlugin) Instance(
	ctx context.Context,
	config extismSDK.PluginInstanceConfig,
) (PluginInstance, error) {
	instance, err := a.plugin.Instance(ctx, config)
	if err != nil {
		return nil, err
	}
	return &sdkPluginInstance{instance: instance}, nil
}

func (a *sdkCompiledPlugin) Close(ctx context.Context) error {
	return a.plugin.Close(ctx)
}

type sdkPluginInstance struct {
	instance *extismSDK.Plugin
}

func (a *sdkPluginInstance) CallWithContext(ctx context.Context, name string, data []byte) (uint32, []byte, error) {
	return a.instance.CallWithContext(ctx, name, data)
}

func (a *sdkPluginInstance) FunctionExists(name string) bool {
	return a.instance.FunctionExists(name)
}

func (a *sdkPluginInstance) Close(ctx context.Context) error {
	return a.instance.Close(ctx)
}

package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Import(ctx context.Context, baseDir, rel string) (string, string, error) {
	args := m.Called(ctx, baseDir, rel)
	return args.String(0), args.String(1), args.Error(2)
}

func TestChainImporter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("first success wins", func(t *testing.T) {
		first := new(mockResolver)
		second := new(mockResolver)
		third := new(mockResolver)
		first.On("Import", ctx, "/base/", "x.libsonnet").Return("", "", ErrNotFound)
		second.On("Import", ctx, "/base/", "x.libsonnet").Return("{}", "/lib/x.libsonnet", nil)

		chain, err := NewChainImporter([]Resolver{first, nil, second, third})
		require.NoError(t, err)

		content, foundHere, err := chain.Import(ctx, "/base/", "x.libsonnet")
		require.NoError(t, err)
		assert.Equal(t, "{}", content)
		assert.Equal(t, "/lib/x.libsonnet", foundHere)

		first.AssertExpectations(t)
		second.AssertExpectations(t)
		third.AssertNotCalled(t, "Import", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("all not found", func(t *testing.T) {
		a := ResolverFunc(func(context.Context, string, string) (string, string, error) {
			return "", "", ErrNotFound
		})
		chain, err := NewChainImporter([]Resolver{a, a})
		require.NoError(t, err)

		_, _, err = chain.Import(ctx, "", "x")
		require.Equal(t, ErrNotFound, err)
	})

	t.Run("real failures are joined", func(t *testing.T) {
		boom := errors.New("connection refused")
		failing := ResolverFunc(func(context.Context, string, string) (string, string, error) {
			return "", "", boom
		})
		missing := ResolverFunc(func(context.Context, string, string) (string, string, error) {
			return "", "", ErrNotFound
		})
		chain, err := NewChainImporter([]Resolver{missing, failing})
		require.NoError(t, err)

		_, _, err = chain.Import(ctx, "", "x")
		require.ErrorIs(t, err, boom)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("single resolver error is returned as is", func(t *testing.T) {
		boom := errors.New("boom")
		chain, err := NewChainImporter([]Resolver{ResolverFunc(func(context.Context, string, string) (string, string, error) {
			return "", "", boom
		})})
		require.NoError(t, err)

		_, _, err = chain.Import(ctx, "", "x")
		require.Equal(t, boom, err)
	})

	t.Run("empty chain", func(t *testing.T) {
		chain, err := NewChainImporter(nil)
		require.NoError(t, err)

		_, _, err = chain.Import(ctx, "", "x")
		require.ErrorIs(t, err, ErrNoResolvers)
	})

	t.Run("cancelled context", func(t *testing.T) {
		r := new(mockResolver)
		chain, err := NewChainImporter([]Resolver{r})
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err = chain.Import(cancelled, "", "x")
		require.ErrorIs(t, err, context.Canceled)
		r.AssertNotCalled(t, "Import", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("file and memory together", func(t *testing.T) {
		files, err := NewFileImporter(nil)
		require.NoError(t, err)
		mem, err := NewMemoryImporter(map[string]string{"virtual.libsonnet": "42"})
		require.NoError(t, err)

		chain, err := NewChainImporter([]Resolver{files, mem})
		require.NoError(t, err)

		content, foundHere, err := chain.Import(ctx, t.TempDir()+"/", "virtual.libsonnet")
		require.NoError(t, err)
		assert.Equal(t, "42", content)
		assert.Equal(t, "virtual.libsonnet", foundHere)
	})
}

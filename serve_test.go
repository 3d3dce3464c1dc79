package kdt

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-keyword/remote"
)

func TestNewLibraryServer_UnknownLibrary(t *testing.T) {
	_, err := NewLibraryServer(context.Background(), ServeConfig{Library: "Nope", Log: testLogger()})
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
	assert.Contains(t, err.Error(), "Importing library 'Nope' failed")
}

func TestLibraryServer_ServesKeywords(t *testing.T) {
	ctx := context.Background()
	srv, err := NewLibraryServer(ctx, ServeConfig{Library: "String", Log: testLogger()})
	require.NoError(t, err)

	httpSrv := httptest.NewServer(srv.remote)
	defer httpSrv.Close()

	lib, err := remote.Dial(ctx, "String", httpSrv.URL, testLogger())
	require.NoError(t, err)
	defer lib.Close()

	assert.Contains(t, lib.KeywordNames(), "Convert To Upper Case")
	value, err := lib.Invoke(ctx, "Convert To Upper Case", []any{"remote"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "REMOTE", value)

	require.NoError(t, srv.Stop(ctx))
	assert.True(t, srv.Stopped())
	require.NoError(t, srv.Stop(ctx))
}

package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mogudian/elasticsearch-orm/internal/common"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
)

func TestOpenWithoutBackend(t *testing.T) {
	t.Parallel()
	reg, err := metadata.NewRegistry()
	require.NoError(t, err)

	store, closeFn, err := Open(context.Background(), &common.Config{Backend: common.BackendConfig{Type: common.BackendNone}}, reg)
	require.NoError(t, err)
	require.Nil(t, store)
	require.NoError(t, closeFn(context.Background()))
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	t.Parallel()
	reg, err := metadata.NewRegistry()
	require.NoError(t, err)

	_, _, err = Open(context.Background(), &common.Config{Backend: common.BackendConfig{Type: "redis"}}, reg)
	require.True(t, common.IsErrBadRequest(err))
}

// internal/worker/registry_test.go
package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	fn := func(ctx context.Context, data map[string]interface{}) error { return nil }
	require.NoError(t, r.Register("loadFn", fn))
	require.Error(t, r.Register("loadFn", fn), "duplicate registration must fail")

	got, err := r.Get("loadFn")
	require.NoError(t, err)
	assert.NotNil(t, got)

	_, err = r.Get("missing")
	require.Error(t, err)
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterDefaults(r))

	for _, name := range []string{
		"loadSchemaFunction",
		"loadDataFunction",
		"buildIndexesFunction",
		"warmCacheFunction",
	} {
		fn, err := r.Get(name)
		require.NoError(t, err, name)
		require.NoError(t, fn(context.Background(), nil))
	}
}

func TestRegisterDefaultsTwice(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterDefaults(r))
	require.Error(t, RegisterDefaults(r))
}

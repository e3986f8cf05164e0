package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

func TestSetupCmd(t *testing.T) {
	env := setupTestServices(t)

	out := mustExecute(t, "setup")
	assert.Contains(t, out, "Database created")
	assert.Contains(t, out, "type-index")
	assert.Contains(t, out, "registered")
	assert.Len(t, env.store.Indexes(), 4)

	out = mustExecute(t, "setup")
	assert.Contains(t, out, "Database already exists")
	assert.Contains(t, out, "unchanged")
}

func TestSetupCmd_JSONFailure(t *testing.T) {
	env := setupTestServices(t)
	env.store.FailWith(fmt.Errorf("dial tcp: %w", domain.ErrUnavailable))

	out, err := execute(t, "--json", "setup")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	r := decodeEnvelope[domain.SetupReport](t, out)
	assert.False(t, r.Success)
	assert.Equal(t, domain.ErrorKindConnectivity, r.ErrorKind)
}

func TestRootCmd_InitializerRunsAndCleansUp(t *testing.T) {
	setupTestServices(t)

	var got GlobalOptions
	cleaned := false
	SetInitializer(func(_ context.Context, opts GlobalOptions) (func(), error) {
		got = opts
		return func() { cleaned = true }, nil
	})
	t.Cleanup(func() { SetInitializer(nil) })

	mustExecute(t, "--config", "/tmp/couchlab-test", "version")
	assert.Equal(t, "/tmp/couchlab-test", got.ConfigDir)
	assert.True(t, cleaned)
}

func TestRootCmd_InitializerError(t *testing.T) {
	setupTestServices(t)
	SetInitializer(func(context.Context, GlobalOptions) (func(), error) {
		return nil, errors.New("bad config")
	})
	t.Cleanup(func() { SetInitializer(nil) })

	_, err := execute(t, "version")
	assert.EqualError(t, err, "bad config")
}

package s3client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_PutGet(t *testing.T) {
	c := TestClient(t, "login-states")
	ctx := context.Background()

	require.Equal(t, "login-states", c.Bucket())

	state := []byte(`{"cookies":[{"name":"sid","value":"abc"}],"origins":[]}`)
	require.NoError(t, c.Put(ctx, "ci/user.json", state, "application/json"))

	got, err := c.Get(ctx, "ci/user.json")
	require.NoError(t, err)
	require.Equal(t, state, got)

	updated := []byte(`{"cookies":[],"origins":[]}`)
	require.NoError(t, c.Put(ctx, "ci/user.json", updated, "application/json"))
	got, err = c.Get(ctx, "ci/user.json")
	require.NoError(t, err)
	require.Equal(t, updated, got)
}

func TestClient_GetMissingKey(t *testing.T) {
	c := TestClient(t, "login-states")
	_, err := c.Get(context.Background(), "never/written.json")
	require.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Region: "auto"})
	require.Error(t, err)
}

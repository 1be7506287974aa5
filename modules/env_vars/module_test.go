package env_vars

import (
	"context"
	"testing"

	"github.com/specialistvlad/ceresflow/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvFunctions(t *testing.T) {
	t.Setenv("CERESFLOW_ENV_TEST", "a=b")
	r := registry.New().Load(&Module{})

	get, err := r.ResolveFunction("Env", "Get", 1)
	require.NoError(t, err)
	v, err := get(context.Background(), []any{"CERESFLOW_ENV_TEST"})
	require.NoError(t, err)
	assert.Equal(t, "a=b", v)

	all, err := r.ResolveFunction("Env", "All", 0)
	require.NoError(t, err)
	v, err = all(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "a=b", v.(map[string]string)["CERESFLOW_ENV_TEST"])

	_, err = r.ResolveFunction("Env", "Get", 2)
	var notFound *registry.MemberNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

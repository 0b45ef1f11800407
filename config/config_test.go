package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := C()
	require.Equal(t, "0.0.0.0", c.Host)
	require.Equal(t, "8000", c.Port)
	require.Equal(t, "models", c.ModelDir)
	require.NotEmpty(t, c.DepthModelUrl)
	require.NotEmpty(t, c.DepthModelFile)
	require.NotEmpty(t, c.ClipModelUrl)
	require.NotEmpty(t, c.ClipModelFile)
}

package onnx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModeString(t *testing.T) {
	require.Equal(t, "real", ModeReal.String())
	require.Equal(t, "fallback", ModeFallback.String())
}

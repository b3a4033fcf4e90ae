package vision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnhanceParams(t *testing.T) {
	alpha, beta := enhanceParams(1, 1)
	require.Equal(t, 1.0, alpha)
	require.Equal(t, 0.0, beta)

	alpha, beta = enhanceParams(EnhanceContrast, EnhanceBrightness)
	require.InDelta(t, 1.26, alpha, 1e-9)
	require.InDelta(t, -26.88, beta, 1e-9)

	// Середина диапазона после контраста не смещается, только масштабируется яркостью
	require.InDelta(t, 128*EnhanceBrightness, 128*alpha+beta, 1e-9)
}

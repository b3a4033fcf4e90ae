package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingBoxArea(t *testing.T) {
	require.Equal(t, 48.0, BoundingBox{X: 10, Y: 20, Width: 8, Height: 6}.Area())
	require.Zero(t, BoundingBox{X: 10, Y: 20, Width: 8}.Area())
	require.Zero(t, BoundingBox{Width: -3, Height: 4}.Area())
}

package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-catalog-client/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestValueOr(t *testing.T) {
	five := 5
	zero := 0
	require.Equal(t, 5, utils.ValueOr(&five, 30))
	require.Equal(t, 30, utils.ValueOr(&zero, 30))
	require.Equal(t, 30, utils.ValueOr[int](nil, 30))
	require.Equal(t, "x", utils.ValueOr(nil, "x"))
}

func TestPositive(t *testing.T) {
	neg := -1
	n, ok := utils.Positive(&neg)
	require.False(t, ok)
	require.Equal(t, -1, n)

	_, ok = utils.Positive(nil)
	require.False(t, ok)

	ten := 10
	n, ok = utils.Positive(&ten)
	require.True(t, ok)
	require.Equal(t, 10, n)
}

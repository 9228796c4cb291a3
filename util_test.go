package interpmem_test

import (
	"testing"

	cerrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/cvmkit/interpmem"
)

func TestCheckPow2(t *testing.T) {
	for _, value := range []uint{1, 2, 8, 64, 4096} {
		require.NoError(t, interpmem.CheckPow2(value, "value"))
	}

	for _, value := range []uint{3, 6, 12, 100} {
		err := interpmem.CheckPow2(value, "value")
		require.Error(t, err)
		require.True(t, cerrors.Is(err, interpmem.PowerOfTwoError))
	}
}

func TestAlignUp(t *testing.T) {
	require.Equal(t, 0, interpmem.AlignUp(0, 8))
	require.Equal(t, 8, interpmem.AlignUp(1, 8))
	require.Equal(t, 8, interpmem.AlignUp(8, 8))
	require.Equal(t, 16, interpmem.AlignUp(9, 8))
	require.Equal(t, 32, interpmem.AlignUp(24+8, 8))
}

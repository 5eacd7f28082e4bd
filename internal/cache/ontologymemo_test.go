package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOntologyMemo_SetGetPurge(t *testing.T) {
	memo, err := NewOntologyMemo(1)
	require.NoError(t, err)

	_, ok := memo.Get("catalogue")
	require.False(t, ok)

	memo.Set("catalogue", []string{"melanoma", "lung adenocarcinoma"})
	value, ok := memo.Get("catalogue")
	require.True(t, ok)
	require.Equal(t, []string{"melanoma", "lung adenocarcinoma"}, value)

	memo.Purge()
	_, ok = memo.Get("catalogue")
	require.False(t, ok)
}

func TestNewOntologyMemo_DefaultsSizeWhenNonPositive(t *testing.T) {
	memo, err := NewOntologyMemo(0)
	require.NoError(t, err)
	require.NotNil(t, memo)
}

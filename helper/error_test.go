package helper

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	t.Run("Nil error stays nil", func(t *testing.T) {
		assert.Nil(t, NewError("op", nil), "Expected wrapping nil to return nil")
	})

	t.Run("Wraps error with trace", func(t *testing.T) {
		err := NewError("select article", fmt.Errorf("boom"))
		require.Error(t, err)
		assert.Equal(t, "select article: boom", err.Error())
	})

	t.Run("Nested traces are prepended", func(t *testing.T) {
		err := NewError("persist", NewError("merge mention", errors.New("boom")))
		assert.Equal(t, "persist: merge mention: boom", err.Error())
	})

	t.Run("Sentinels survive wrapping", func(t *testing.T) {
		err := NewError("graph", NewError("select", ErrNotFound))
		assert.True(t, errors.Is(err, ErrNotFound), "Expected errors.Is to find ErrNotFound")
		assert.False(t, errors.Is(err, ErrStoreUnavailable))
	})

	t.Run("Sentinels wrapped with fmt are still matched", func(t *testing.T) {
		err := NewError("begin", fmt.Errorf("%w: connection refused", ErrStoreUnavailable))
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

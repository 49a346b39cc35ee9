package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "Tokenizer.Tokenize")
		panic("vocab missing")
	}

	err := testFunc()
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "Tokenizer.Tokenize", panicErr.Operation)
	assert.Equal(t, "vocab missing", panicErr.PanicValue)
	assert.NotEmpty(t, panicErr.StackTrace)
	assert.Equal(t, "panic in Tokenizer.Tokenize: vocab missing", panicErr.Error())
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "noop")
		return nil
	}
	assert.NoError(t, testFunc())
}

func TestRecover_KeepsExistingError(t *testing.T) {
	originalErr := fmt.Errorf("original error")

	testFunc := func() (err error) {
		defer Recover(&err, "Generator.Next")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "panic in Generator.Next"))

	var panicErr *PanicError
	assert.True(t, errors.As(err, &panicErr))
	// 元のエラーは副次エラーとして詳細表示に残る
	assert.Contains(t, fmt.Sprintf("%+v", err), "original error")
}

func TestPanicError_UnwrapsErrorValues(t *testing.T) {
	cause := fmt.Errorf("checkpoint unreadable")
	err := SafeExecute("Encoder.Restore", func() error {
		panic(cause)
	})

	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, NewPanicError("op", "string value").Unwrap())
}

func TestSafeExecute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		assert.NoError(t, SafeExecute("op", func() error { return nil }))
	})

	t.Run("function error is returned untouched", func(t *testing.T) {
		want := fmt.Errorf("function error")
		assert.Same(t, want, SafeExecute("op", func() error { return want }))
	})

	t.Run("panic becomes PanicError", func(t *testing.T) {
		err := SafeExecute("op", func() error { panic(42) })
		var panicErr *PanicError
		require.True(t, errors.As(err, &panicErr))
		assert.Equal(t, 42, panicErr.PanicValue)
		assert.Contains(t, panicErr.String(), "Stack trace:")
	})
}

func TestSafeCall(t *testing.T) {
	tokens, err := SafeCall("Tokenize", func() ([]string, error) {
		return []string{"hi", "there"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", "there"}, tokens)

	tokens, err = SafeCall("Tokenize", func() ([]string, error) {
		var m map[string][]string
		m["x"] = nil // nil map write
		return nil, nil
	})
	assert.Nil(t, tokens)
	var panicErr *PanicError
	assert.True(t, errors.As(err, &panicErr))
}

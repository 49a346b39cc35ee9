package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColumnTypes(t *testing.T) {
	types, err := ParseColumnTypes(map[string]string{"age": "numerical", "city": "categorical"})
	require.NoError(t, err)
	assert.Equal(t, ColumnTypes{"age": Numerical, "city": Categorical}, types)
	assert.Equal(t, map[string]string{"age": "numerical", "city": "categorical"}, types.Strings())

	_, err = ParseColumnTypes(map[string]string{"age": "float"})
	assert.Error(t, err)

	none, err := ParseColumnTypes(nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestColumnTypes_ValidateAndOrder(t *testing.T) {
	types := ColumnTypes{"a": Numerical, "b": Categorical}
	assert.NoError(t, types.Validate([]string{"a", "b", "c"}))
	assert.Error(t, types.Validate([]string{"a"}))

	assert.False(t, types.Complete([]string{"a", "b", "c"}))
	assert.True(t, types.Complete([]string{"b", "a"}))

	ordered, err := types.Ordered([]string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []ColumnType{Categorical, Numerical}, ordered)

	_, err = types.Ordered([]string{"c"})
	assert.Error(t, err)
}

func TestDefaultNames(t *testing.T) {
	assert.Equal(t, []string{"0", "1", "2"}, DefaultNames(3))
}

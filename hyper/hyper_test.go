package hyper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	hp := NewFixed(map[string]any{
		"use_encoding": false,
		"strategy":     "int",
		"bogus":        "nope",
	})

	assert.False(t, hp.Boolean("use_encoding", true))
	assert.True(t, hp.Boolean("unset", true))
	assert.Equal(t, "int", hp.Choice("strategy", []string{"none", "int"}, "none"))
	assert.Equal(t, "none", hp.Choice("bogus", []string{"none", "int"}, "none"))
	hp.Boolean("use_encoding", true)

	assert.Equal(t, []string{"use_encoding", "unset", "strategy", "bogus"}, hp.Requested())
}

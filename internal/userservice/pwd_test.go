package userservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordMatches(t *testing.T) {
	var p Password
	require.NoError(t, p.set("Correct.Horse9"))
	assert.NotEqual(t, []byte("Correct.Horse9"), p.hash)

	ok, err := p.matches("Correct.Horse9")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.matches("Wrong.Horse9")
	require.NoError(t, err)
	assert.False(t, ok)

	var empty Password
	_, err = empty.matches("Correct.Horse9")
	assert.Error(t, err)
}

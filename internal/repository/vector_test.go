package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeVector(t *testing.T) {
	assert.Equal(t, "[]", encodeVector(nil))
	assert.Equal(t, "[1]", encodeVector([]float32{1}))
	assert.Equal(t, "[0.5,-0.25,2]", encodeVector([]float32{0.5, -0.25, 2}))
}

func TestParseVector(t *testing.T) {
	vec, err := parseVector("[0.5,-0.25,2]")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 2}, vec)
}

func TestParseVectorWithWhitespace(t *testing.T) {
	vec, err := parseVector("  [ 0.5 , 1.5 ]  ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 1.5}, vec)
}

func TestParseVectorEmptyAndNull(t *testing.T) {
	for _, input := range []string{"", "null", "   "} {
		vec, err := parseVector(input)
		require.NoError(t, err, "input %q", input)
		assert.Nil(t, vec)
	}

	vec, err := parseVector("[]")
	require.NoError(t, err)
	assert.Empty(t, vec)
}

func TestParseVectorInvalidComponent(t *testing.T) {
	_, err := parseVector("[0.5,abc]")
	require.Error(t, err)
}

func TestEncodeParseRoundTrip(t *testing.T) {
	original := []float32{0.0012345, -1.5, 0, 42.25}
	parsed, err := parseVector(encodeVector(original))
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

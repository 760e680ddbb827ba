package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrecisionBytes(t *testing.T) {
	assert.Equal(t, 4.0, FP32.Bytes())
	assert.Equal(t, 2.0, BF16.Bytes())
	assert.Equal(t, 2.0, FP16.Bytes())
	assert.Equal(t, 1.0, INT8.Bytes())
	assert.Equal(t, 0.5, Q4.Bytes())
}

func TestPrecisionValid(t *testing.T) {
	for _, name := range PrecisionNames() {
		assert.True(t, Precision(name).Valid(), name)
	}
	assert.False(t, Precision("fp8").Valid())
	assert.False(t, Precision("").Valid())
}

func TestParsePrecision(t *testing.T) {
	p, err := ParsePrecision("bf16")
	require.NoError(t, err)
	assert.Equal(t, BF16, p)

	_, err = ParsePrecision("float64")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float64")
}

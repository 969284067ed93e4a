package paper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		width  float64
		height float64
	}{
		{"A4", 794, 1123},
		{"a4", 794, 1123},
		{"Letter", 816, 1056},
		{"A4L", 1123, 794},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.width, s.Width)
			assert.Equal(t, tt.height, s.Height)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	for _, name := range []string{"", "Napkin", "L"} {
		_, err := Lookup(name)
		assert.ErrorIs(t, err, ErrUnknownSize, name)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "A4")
	assert.Contains(t, names, "Letter")
	assert.IsNonDecreasing(t, names)
}

package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"+250788123456":    "0788123456",
		"250788123456":     "0788123456",
		"0788 123 456":     "0788123456",
		" 078-812-3456 ":   "0788123456",
		"+250 78 812 3456": "0788123456",
		"0722000000":       "0722000000",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestNormalize_SameNumberSameKey(t *testing.T) {
	assert.Equal(t, Normalize("+250 788 123 456"), Normalize("0788-123-456"))
}

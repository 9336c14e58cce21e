package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTickers(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{"bbca", []string{"BBCA"}},
		{"BBCA,TLKM", []string{"BBCA", "TLKM"}},
		{" bbca.jk ; IDX:tlkm,, goto ", []string{"BBCA", "TLKM", "GOTO"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, splitTickers(tt.raw))
		})
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "1b4e28ba", shortID("1b4e28ba-2fa1-11d2-883f-0016d3cca427"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "****", maskKey("short"))
	assert.Equal(t, "abcd****wxyz", maskKey("abcdefghwxyz"))
}

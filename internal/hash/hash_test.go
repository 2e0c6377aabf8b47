package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	tests := []struct {
		name string
		data string
		sum  uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"another string", "another test string", 0x212a22f593810bec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sum, Sum([]byte(tt.data)))
		})
	}
}

func TestVerify(t *testing.T) {
	data := []byte("page payload")
	sum := Sum(data)

	assert.True(t, Verify(data, sum))
	data[0] ^= 0xff
	assert.False(t, Verify(data, sum))
}

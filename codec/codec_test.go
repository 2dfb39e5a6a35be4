package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "sonnet"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("go-json")
	assert.False(t, ok)
}

func TestCodecs_Interchangeable(t *testing.T) {
	in := benchPayload()
	codecs := []Codec{JSON{}, Sonnet{}}
	for _, enc := range codecs {
		for _, dec := range codecs {
			var out benchReport
			require.NoError(t, dec.Unmarshal(MustMarshal(enc, in), &out), "%s -> %s", enc.Name(), dec.Name())
			assert.Equal(t, in, out)
		}
	}
}

func TestSonnet_Append(t *testing.T) {
	b, err := Sonnet{}.Append([]byte("x"), map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `x{"a":1}`, string(b))
}

func TestMustMarshal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(JSON{}, make(chan int)) })
	assert.NotPanics(t, func() { MustMarshal(nil, 1) })
}

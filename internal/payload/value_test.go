package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	v, err := Decode([]byte(`{"text":"hi","size":16,"bold":true,"tags":["a",1],"pad":{"top":4}}`))
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, String("hi"), obj["text"])
	assert.Equal(t, Int(16), obj["size"])
	assert.Equal(t, Bool(true), obj["bold"])
	assert.Equal(t, Array{String("a"), Int(1)}, obj["tags"])
	assert.Equal(t, Object{"top": Int(4)}, obj["pad"])
}

func TestDecodeLargeInt(t *testing.T) {
	v, err := Decode([]byte(`9007199254740993`))
	require.NoError(t, err)
	assert.Equal(t, Int(9007199254740993), v)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"null", `null`},
		{"nested null", `{"a":null}`},
		{"float", `1.5`},
		{"exponent", `1e3`},
		{"float in array", `[1, 2.5]`},
		{"out of range", `99999999999999999999`},
		{"malformed", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestObjectUnmarshalJSON(t *testing.T) {
	var holder struct {
		Props Object `json:"props"`
	}
	err := json.Unmarshal([]byte(`{"props":{"url":"https://example.com"}}`), &holder)
	require.NoError(t, err)
	assert.Equal(t, Object{"url": String("https://example.com")}, holder.Props)

	err = json.Unmarshal([]byte(`{"props":[1]}`), &holder)
	assert.Error(t, err)
}

func TestFromNativeYAMLShapes(t *testing.T) {
	// yaml.v3 produces int and float64 for numbers.
	v, err := FromNative(map[string]any{"width": 600, "ratio": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, Object{"width": Int(600), "ratio": Int(2)}, v)

	_, err = FromNative(map[string]any{"ratio": 0.5})
	assert.Error(t, err)
}

func TestObjectFromNativeNil(t *testing.T) {
	obj, err := ObjectFromNative(nil)
	require.NoError(t, err)
	assert.NotNil(t, obj)
	assert.Empty(t, obj)
}

func TestToNativeRoundTrip(t *testing.T) {
	obj := Of(
		P("text", String("hi")),
		P("n", Int(3)),
		P("list", Array{Bool(false), Object{"k": String("v")}}),
	)

	back, err := FromNative(ToNative(obj))
	require.NoError(t, err)
	assert.True(t, Equal(obj, back))
}

func TestCloneIsDeep(t *testing.T) {
	orig := Object{"pad": Object{"top": Int(4)}, "list": Array{Int(1)}}
	clone := orig.Clone()

	clone["pad"].(Object)["top"] = Int(99)
	clone["list"].(Array)[0] = Int(2)

	assert.Equal(t, Int(4), orig["pad"].(Object)["top"])
	assert.Equal(t, Int(1), orig["list"].(Array)[0])
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Object{"a": Int(1)}, Object{"a": Int(1)}))
	assert.False(t, Equal(Object{"a": Int(1)}, Object{"a": Int(2)}))
	assert.False(t, Equal(Object{"a": Int(1)}, Object{"b": Int(1)}))
	assert.False(t, Equal(String("1"), Int(1)))
	assert.False(t, Equal(Array{Int(1)}, Array{Int(1), Int(2)}))
	assert.True(t, Equal(nil, nil))
}

func TestGetters(t *testing.T) {
	obj := Of(P("s", String("x")), P("i", Int(7)), P("b", Bool(true)), P("o", Object{}))

	s, ok := obj.GetString("s")
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	i, ok := obj.GetInt("i")
	assert.True(t, ok)
	assert.Equal(t, int64(7), i)

	b, ok := obj.GetBool("b")
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = obj.GetObject("o")
	assert.True(t, ok)

	_, ok = obj.GetString("i")
	assert.False(t, ok)
}

package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	v, err := Decode([]byte(`{"name":"demo","count":3,"ratio":0.5,"ok":true,"none":null,"tags":["a"]}`))
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, String("demo"), obj["name"])
	assert.Equal(t, Int(3), obj["count"])
	assert.Equal(t, Float(0.5), obj["ratio"])
	assert.Equal(t, Bool(true), obj["ok"])
	assert.Equal(t, Null{}, obj["none"])
	assert.Equal(t, Array{String("a")}, obj["tags"])
}

func TestDecode_IntegralNumberStaysInt(t *testing.T) {
	v, err := Decode([]byte(`{"n": 2}`))
	require.NoError(t, err)
	assert.Equal(t, Int(2), v.(Object)["n"])

	v, err = Decode([]byte(`{"n": 2.0}`))
	require.NoError(t, err)
	assert.Equal(t, Float(2), v.(Object)["n"], "an explicit decimal point means float")
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`{broken`))
	require.Error(t, err)

	_, err = Decode([]byte(`{} trailing`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing data")
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"a": int64(1),
		"b": 2.5,
		"c": []any{nil, true},
	})
	require.NoError(t, err)

	want := Object{
		"a": Int(1),
		"b": Float(2.5),
		"c": Array{Null{}, Bool(true)},
	}
	assert.True(t, Equal(want, v))
}

func TestFromAny_IntegralFloat64(t *testing.T) {
	v, err := FromAny(3.0)
	require.NoError(t, err)
	assert.Equal(t, Int(3), v)
}

func TestFromAny_Unsupported(t *testing.T) {
	_, err := FromAny(struct{}{})
	require.Error(t, err)
}

func TestToAny_RoundTrip(t *testing.T) {
	doc := Object{
		"n":    Int(3),
		"f":    Float(1.5),
		"s":    String("x"),
		"b":    Bool(false),
		"null": Null{},
		"arr":  Array{Int(1), Int(2)},
	}

	back, err := FromAny(ToAny(doc))
	require.NoError(t, err)
	assert.True(t, Equal(doc, back))
}

func TestEncode(t *testing.T) {
	data, err := Encode(Object{"b": Int(2), "a": Int(1)})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, string(data))
}

func TestEncodeIndent(t *testing.T) {
	data, err := EncodeIndent(Object{"n": Int(1)})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"n\": 1\n}", string(data))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Null{}, Null{}))
	assert.True(t, Equal(Int(1), Int(1)))
	assert.False(t, Equal(Int(1), Int(2)))
	assert.False(t, Equal(Int(1), Float(1)), "ints and floats never compare equal")
	assert.True(t, Equal(Array{Int(1)}, Array{Int(1)}))
	assert.False(t, Equal(Array{Int(1)}, Array{Int(1), Int(2)}))
	assert.True(t, Equal(Object{"a": Int(1)}, Object{"a": Int(1)}))
	assert.False(t, Equal(Object{"a": Int(1)}, Object{"b": Int(1)}))
	assert.False(t, Equal(Object{"a": Int(1)}, String("x")))
}

func TestClone_Independence(t *testing.T) {
	doc := sampleDoc()
	cp := Clone(doc)
	require.True(t, Equal(doc, cp))

	_, err := Set(cp, Path{Key("meta"), Key("version")}, Int(99))
	require.NoError(t, err)

	v, err := Resolve(doc, Path{Key("meta"), Key("version")})
	require.NoError(t, err)
	assert.Equal(t, Int(2), v, "mutating the clone must not touch the original")
}

func TestObject_SortedKeys(t *testing.T) {
	obj := Object{"b": Int(1), "a": Int(2), "c": Int(3)}
	assert.Equal(t, []string{"a", "b", "c"}, obj.SortedKeys())
}

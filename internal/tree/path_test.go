package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() Object {
	return Object{
		"name": String("demo"),
		"meta": Object{
			"version": Int(2),
		},
		"zones": Array{
			Object{"id": String("a")},
			Object{"id": String("b")},
		},
	}
}

func TestPath_String(t *testing.T) {
	assert.Equal(t, "<root>", Path{}.String())
	assert.Equal(t, "meta.version", Path{Key("meta"), Key("version")}.String())
	assert.Equal(t, "zones[1].id", Path{Key("zones"), Index(1), Key("id")}.String())
	assert.Equal(t, "[0]", Path{Index(0)}.String())
}

func TestParsePath(t *testing.T) {
	assert.Nil(t, ParsePath(""))
	assert.Equal(t, Path{Key("meta"), Key("version")}, ParsePath("meta.version"))
	assert.Equal(t, Path{Key("a")}, ParsePath("a."))
	assert.Equal(t, Path{Key("a"), Key("b")}, ParsePath("a..b"))
}

func TestResolve(t *testing.T) {
	doc := sampleDoc()

	v, err := Resolve(doc, nil)
	require.NoError(t, err)
	assert.True(t, Equal(doc, v))

	v, err = Resolve(doc, Path{Key("meta"), Key("version")})
	require.NoError(t, err)
	assert.Equal(t, Int(2), v)

	v, err = Resolve(doc, Path{Key("zones"), Index(1), Key("id")})
	require.NoError(t, err)
	assert.Equal(t, String("b"), v)
}

func TestResolve_Errors(t *testing.T) {
	doc := sampleDoc()

	cases := []struct {
		name string
		path Path
		msg  string
	}{
		{"missing key", Path{Key("nope")}, `missing key "nope"`},
		{"key into array", Path{Key("zones"), Key("id")}, "expected object"},
		{"index into object", Path{Key("meta"), Index(0)}, "expected array"},
		{"index out of range", Path{Key("zones"), Index(2)}, "out of range"},
		{"negative index", Path{Key("zones"), Index(-1)}, "out of range"},
		{"key into scalar", Path{Key("name"), Key("x")}, "expected object"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(doc, tc.path)
			require.Error(t, err)
			var perr *PathError
			require.ErrorAs(t, err, &perr)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestExists(t *testing.T) {
	doc := sampleDoc()
	assert.True(t, Exists(doc, Path{Key("meta"), Key("version")}))
	assert.True(t, Exists(doc, nil))
	assert.False(t, Exists(doc, Path{Key("meta"), Key("nope")}))
}

func TestSet_MutatesInPlace(t *testing.T) {
	doc := sampleDoc()

	root, err := Set(doc, Path{Key("meta"), Key("version")}, Int(3))
	require.NoError(t, err)
	assert.True(t, Equal(doc, root), "root is unchanged for non-empty paths")

	v, err := Resolve(doc, Path{Key("meta"), Key("version")})
	require.NoError(t, err)
	assert.Equal(t, Int(3), v)
}

func TestSet_EmptyPathReplacesRoot(t *testing.T) {
	doc := sampleDoc()
	root, err := Set(doc, nil, Int(7))
	require.NoError(t, err)
	assert.Equal(t, Int(7), root)
}

func TestSet_CreatesMissingFinalKey(t *testing.T) {
	doc := sampleDoc()

	_, err := Set(doc, Path{Key("meta"), Key("owner")}, String("alice"))
	require.NoError(t, err)

	v, err := Resolve(doc, Path{Key("meta"), Key("owner")})
	require.NoError(t, err)
	assert.Equal(t, String("alice"), v)
}

func TestSet_ArrayElement(t *testing.T) {
	doc := sampleDoc()

	_, err := Set(doc, Path{Key("zones"), Index(0)}, String("replaced"))
	require.NoError(t, err)

	v, err := Resolve(doc, Path{Key("zones"), Index(0)})
	require.NoError(t, err)
	assert.Equal(t, String("replaced"), v)

	_, err = Set(doc, Path{Key("zones"), Index(5)}, String("x"))
	require.Error(t, err, "final array index must be in range")
}

func TestSet_MissingIntermediate(t *testing.T) {
	doc := sampleDoc()
	_, err := Set(doc, Path{Key("nope"), Key("deep")}, Int(1))
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	doc := sampleDoc()

	_, err := Delete(doc, Path{Key("meta"), Key("version")})
	require.NoError(t, err)
	assert.False(t, Exists(doc, Path{Key("meta"), Key("version")}))

	// Deleting an absent key is a no-op.
	_, err = Delete(doc, Path{Key("meta"), Key("version")})
	require.NoError(t, err)
}

func TestDelete_Errors(t *testing.T) {
	doc := sampleDoc()

	_, err := Delete(doc, nil)
	require.Error(t, err)

	_, err = Delete(doc, Path{Key("zones"), Index(0)})
	require.Error(t, err, "last token must be a key")

	_, err = Delete(doc, Path{Key("name"), Key("x")})
	require.Error(t, err, "parent must be an object")
}

func TestPath_Clone(t *testing.T) {
	p := Path{Key("a"), Index(1)}
	c := p.Clone()
	c[0] = Key("b")
	assert.Equal(t, Key("a"), p[0])
	assert.Nil(t, Path(nil).Clone())
}

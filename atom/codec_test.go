package atom

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestJSONRoundTrip(t *testing.T) {
	type record struct {
		Name  Atom   `json:"name"`
		Tags  []Atom `json:"tags"`
		Empty Atom   `json:"empty"`
	}

	long := strings.Repeat("json", 10)
	in := record{
		Name: New("short"),
		Tags: []Atom{New(long), Intern("forced"), New("<&>")},
	}

	data, err := json.Marshal(in)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"name":"short"`)
	assert.Contains(t, string(data), `"empty":""`)

	var out record
	assert.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.Name.Equal(in.Name))
	assert.Equal(t, len(in.Tags), len(out.Tags))
	for i := range in.Tags {
		assert.True(t, in.Tags[i].Equal(out.Tags[i]))
	}

	// Forced interning is not part of the encoding.
	assert.Equal(t, Interned, in.Tags[1].Kind())
	assert.Equal(t, Inline, out.Tags[1].Kind())

	for i := range in.Tags {
		in.Tags[i].Release()
		out.Tags[i].Release()
	}
}

func TestUnmarshalJSONNull(t *testing.T) {
	a := New("kept")
	assert.NoError(t, json.Unmarshal([]byte("null"), &a))
	assert.Equal(t, "kept", a.String())

	assert.Error(t, json.Unmarshal([]byte("42"), &a))
}

func TestTextRoundTrip(t *testing.T) {
	long := strings.Repeat("text", 8)
	a := New(long)
	defer a.Release()

	text, err := a.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, long, string(text))

	var b Atom
	assert.NoError(t, b.UnmarshalText(text))
	defer b.Release()
	assert.True(t, a.Equal(b))

	// Reusing the target releases its previous value.
	refs := Default().Refs(long)
	assert.NoError(t, b.UnmarshalText([]byte("other")))
	assert.Equal(t, refs-1, Default().Refs(long))
	assert.Equal(t, "other", b.String())
}

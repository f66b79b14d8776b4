package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/semchunk/schema"
)

func TestConstructFeatures(t *testing.T) {
	var c schema.Construct
	c.AddFeature("public", "", "async", "public")

	assert.Equal(t, []string{"public", "async"}, c.Features)
	assert.True(t, c.HasFeature("async"))
	assert.False(t, c.HasFeature("static"))
}

func TestConstructContext(t *testing.T) {
	var c schema.Construct
	assert.False(t, c.Recovered())

	c.SetContext(schema.ContextRecovered, true)
	assert.True(t, c.Recovered())

	c.SetContext(schema.ContextRecovered, "yes")
	assert.False(t, c.Recovered(), "non-bool values are not treated as recovered")
}

func TestNormalizeExtension(t *testing.T) {
	tests := map[string]string{
		".Go":   "go",
		"py":    "py",
		"":      "",
		".TSX":  "tsx",
		".yaml": "yaml",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, schema.NormalizeExtension(in))
		})
	}
}

func TestDocumentSource(t *testing.T) {
	doc := schema.NewDocument("x", nil)
	assert.NotNil(t, doc.Metadata)
	assert.Empty(t, doc.Source())

	doc.Metadata["source"] = "a/b.go"
	assert.Equal(t, "a/b.go", doc.Source())
}

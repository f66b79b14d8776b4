package css_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/semchunk/parsers/css"
	"github.com/sevigo/semchunk/parsers/engine"
	logger "github.com/sevigo/semchunk/parsers/testing"
	"github.com/sevigo/semchunk/schema"
)

const stylesheet = `@charset "utf-8";
@import url("reset.css");
@import "theme.css" screen;

/* Buttons */
.btn, .button {
  color: var(--primary);
  padding: 4px !important;
}

:root {
  --primary: #333;
}

@media (max-width: 600px) {
  .btn {
    padding: 2px;
  }
}

@keyframes fade {
  from { opacity: 0; }
  to { opacity: 1; }
}

@font-face {
  font-family: "Inter";
  src: url(inter.woff2);
}

@supports (display: grid) {
  .grid { display: grid; }
}
`

func TestCSSPlugin_Stylesheet(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := css.NewCSSPlugin(log)
	chunks := logger.ChunkWith(t, plugin, stylesheet, "site.css")

	t.Run("Imports", func(t *testing.T) {
		reset, ok := logger.FindChunk(chunks, "import", "reset.css")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 2, reset.LineStart)
		assert.Equal(t, schema.ScopeModule, reset.Scope)

		theme, ok := logger.FindChunk(chunks, "import", "theme.css")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, "screen", theme.Context["media"])
	})

	t.Run("Rules", func(t *testing.T) {
		btn, ok := logger.FindChunk(chunks, "rule", ".btn, .button")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 6, btn.LineStart)
		assert.Equal(t, 9, btn.LineEnd)
		assert.Equal(t, []string{".btn", ".button"}, btn.Context["selectors"])
		assert.Equal(t, 2, btn.Context["declarations"])
		assert.Equal(t, "/* Buttons */", btn.Context["doc"])
		assert.True(t, btn.HasFeature("important"))
		assert.True(t, btn.HasFeature("uses_variables"))

		root, ok := logger.FindChunk(chunks, "rule", ":root")
		require.True(t, ok, logger.Names(chunks))
		assert.True(t, root.HasFeature("custom_properties"))
		assert.Equal(t, []string{"--primary"}, root.Context["custom_properties"])
	})

	t.Run("Media", func(t *testing.T) {
		media, ok := logger.FindChunk(chunks, "media", "(max-width: 600px)")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 15, media.LineStart)
		assert.Equal(t, 19, media.LineEnd)
		assert.Equal(t, 1, media.Context["rules"])

		var nested *schema.SemanticChunk
		for i, c := range chunks {
			if c.Kind == "rule" && c.Name == ".btn" {
				nested = &chunks[i]
			}
		}
		require.NotNil(t, nested, logger.Names(chunks))
		assert.Equal(t, "(max-width: 600px)", nested.Parent)
		assert.Equal(t, schema.ScopeBlock, nested.Scope)
		assert.Equal(t, 16, nested.LineStart)
	})

	t.Run("AtRules", func(t *testing.T) {
		fade, ok := logger.FindChunk(chunks, "keyframes", "fade")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 21, fade.LineStart)
		assert.Equal(t, 24, fade.LineEnd)
		assert.Equal(t, 2, fade.Context["steps"])

		font, ok := logger.FindChunk(chunks, "font_face", "Inter")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 26, font.LineStart)
		assert.Equal(t, "url(inter.woff2)", font.Context["src"])

		supports, ok := logger.FindChunk(chunks, "supports", "(display: grid)")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 33, supports.LineEnd)

		grid, ok := logger.FindChunk(chunks, "rule", ".grid")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, "(display: grid)", grid.Parent)
	})
}

func TestCSSPlugin_NestedSelectorPaths(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := css.NewCSSPlugin(log)
	content := `.b {
  .x.c { color: red; }
}

.b.x {
  .c { color: blue; }
}
`
	chunks := logger.ChunkWith(t, plugin, content, "nested.css")

	outer, ok := logger.FindChunk(chunks, "rule", ".b.x")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, `\.b\.x`, outer.Path)

	var inner []schema.SemanticChunk
	for _, c := range logger.OfKind(chunks, "rule") {
		if c.Parent != "" {
			inner = append(inner, c)
		}
	}
	require.Len(t, inner, 2, logger.Names(chunks))
	assert.Equal(t, `\.b.\.x\.c`, inner[0].Path)
	assert.Equal(t, `\.b`, inner[0].Parent)
	assert.Equal(t, `\.b\.x.\.c`, inner[1].Path)
	assert.Equal(t, outer.Path, inner[1].Parent)
	assert.NotEqual(t, inner[0].Path, inner[1].Path)
}

func TestCSSPlugin_Malformed(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := css.NewCSSPlugin(log)
	content := ".card {\n  color: red;\n\n.title {\n  font-weight: bold;\n}\n"

	chunks := logger.ChunkWith(t, plugin, content, "broken.css")
	_, ok := logger.FindByName(chunks, ".card")
	assert.True(t, ok, logger.Names(chunks))

	logger.AssertIdempotent(t, func() []schema.SemanticChunk {
		return logger.ChunkWith(t, plugin, content, "broken.css")
	})
}

func TestCSSPlugin_WholeFileFallback(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := css.NewCSSPlugin(log)
	content := "@media print {\n  .nav {\n    display: none;\n  }\n}\n\n@font-face {\n  font-family: x;\n}\n"

	chunks := plugin.WholeFileFallback(content, "print.css")
	logger.AssertChunkInvariants(t, content, chunks)

	media, ok := logger.FindChunk(chunks, "media", "print")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 1, media.LineStart)
	assert.Equal(t, 5, media.LineEnd)

	nav, ok := logger.FindChunk(chunks, "rule", ".nav")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, "print", nav.Parent)
	assert.Equal(t, 4, nav.LineEnd)

	font, ok := logger.FindChunk(chunks, "font_face", "font_face_L7")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 9, font.LineEnd)
	assert.Equal(t, engine.RecoveryWholeFile, font.Context[schema.ContextRecovery])
}

func TestCSSPlugin_CanHandle(t *testing.T) {
	plugin := css.NewCSSPlugin(nil)
	assert.True(t, plugin.CanHandle("site.css", nil))
	assert.True(t, plugin.CanHandle("theme.SCSS", nil))
	assert.False(t, plugin.CanHandle("site.less", nil))
}

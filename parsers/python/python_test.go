package python_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/parsers/python"
	logger "github.com/sevigo/semchunk/parsers/testing"
	"github.com/sevigo/semchunk/schema"
)

const testPythonContent = `"""Module docstring."""

import os
from typing import List, Optional


class Animal(Base):
    """An animal."""

    def __init__(self, name):
        self.name = name

    @property
    def display(self) -> str:
        return self.name

    async def fetch(self):
        await sleep(1)


@decorator
def helper(x: int) -> int:
    def inner():
        return x
    return inner()
`

func TestPythonPlugin_Chunking(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := python.NewPythonPlugin(log)
	chunks := logger.ChunkWith(t, plugin, testPythonContent, "pkg/animal.py")

	t.Run("should emit imports", func(t *testing.T) {
		osImport, ok := logger.FindChunk(chunks, "import", "os")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 3, osImport.LineStart)

		typing, ok := logger.FindChunk(chunks, "import", "typing")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 4, typing.LineStart)
		assert.True(t, typing.HasFeature("from_import"))
	})

	t.Run("should emit the class with its bases", func(t *testing.T) {
		class, ok := logger.FindChunk(chunks, "class", "Animal")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 7, class.LineStart)
		assert.Equal(t, 18, class.LineEnd)
		assert.Equal(t, []string{"Base"}, class.Context["extends"])
		assert.Equal(t, "An animal.", class.Context["doc"])
		assert.Equal(t, "class Animal(Base)", class.Signature)
	})

	t.Run("should emit methods inside the class scope", func(t *testing.T) {
		init, ok := logger.FindChunk(chunks, "method", "__init__")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, "Animal", init.Parent)
		assert.Equal(t, "Animal.__init__", init.Path)
		assert.True(t, init.HasFeature("dunder"))
		assert.Equal(t, 10, init.LineStart)
		assert.Equal(t, 11, init.LineEnd)

		display, ok := logger.FindChunk(chunks, "method", "display")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 13, display.LineStart, "decorators belong to the construct")
		assert.Equal(t, 15, display.LineEnd)
		assert.Equal(t, []string{"property"}, display.Context["decorators"])
		assert.True(t, display.HasFeature("property"))
		assert.Equal(t, "str", display.Context["returns"])
		assert.Equal(t, "def display(self) -> str", display.Signature)

		fetch, ok := logger.FindChunk(chunks, "method", "fetch")
		require.True(t, ok, logger.Names(chunks))
		assert.True(t, fetch.HasFeature("async"))
	})

	t.Run("should emit decorated and nested functions", func(t *testing.T) {
		helper, ok := logger.FindChunk(chunks, "function", "helper")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 21, helper.LineStart)
		assert.Equal(t, 25, helper.LineEnd)
		assert.True(t, helper.HasFeature("decorated"))

		inner, ok := logger.FindChunk(chunks, "function", "inner")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, "helper", inner.Parent)
		assert.Equal(t, schema.ScopeLocal, inner.Scope)
	})

	t.Run("should keep the module docstring", func(t *testing.T) {
		fragment, ok := logger.FindChunk(chunks, schema.KindFragment, "fragment_L1")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, `"""Module docstring."""`, fragment.Content)
	})
}

func TestPythonPlugin_MalformedInput(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := python.NewPythonPlugin(log)

	content := `def ok():
    return 1

class Broken(
    def method(self):
        pass

def also_ok():
    return 2
`
	chunks := logger.ChunkWith(t, plugin, content, "broken.py")
	_, ok := logger.FindByName(chunks, "ok")
	assert.True(t, ok, logger.Names(chunks))
	_, ok = logger.FindByName(chunks, "also_ok")
	assert.True(t, ok, logger.Names(chunks))

	logger.AssertIdempotent(t, func() []schema.SemanticChunk {
		return logger.ChunkWith(t, plugin, content, "broken.py")
	})
}

func TestPythonPlugin_WholeFileFallback(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := python.NewPythonPlugin(log)

	content := "import sys\n\nclass A:\n    def run(self):\n        pass\n\ndef main():\n    A().run()\n"
	chunks := plugin.WholeFileFallback(content, "a.py")
	logger.AssertChunkInvariants(t, content, chunks)

	class, ok := logger.FindChunk(chunks, "class", "A")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 3, class.LineStart)
	assert.Equal(t, 5, class.LineEnd)

	run, ok := logger.FindChunk(chunks, "method", "run")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, "A", run.Parent)
	assert.Equal(t, engine.RecoveryWholeFile, run.Context[schema.ContextRecovery])

	main, ok := logger.FindChunk(chunks, "function", "main")
	require.True(t, ok)
	assert.Equal(t, 7, main.LineStart)
	assert.Equal(t, 8, main.LineEnd)
}

func TestPythonPlugin_KindEquivalence(t *testing.T) {
	plugin := python.NewPythonPlugin(nil)
	eq, ok := plugin.(engine.KindEquivalence)
	require.True(t, ok)
	assert.True(t, eq.EquivalentKinds("function", "method"))
	assert.True(t, eq.EquivalentKinds("method", "function"))
	assert.False(t, eq.EquivalentKinds("class", "function"))

	assert.True(t, plugin.CanHandle("stubs/mod.pyi", nil))
	assert.False(t, plugin.CanHandle("mod.pyc", nil))
}

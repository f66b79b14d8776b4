package yaml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/semchunk/parsers/engine"
	logger "github.com/sevigo/semchunk/parsers/testing"
	"github.com/sevigo/semchunk/parsers/yaml"
	"github.com/sevigo/semchunk/schema"
)

const testConfigContent = `---
name: test-service
version: "1.0.0"

database:
  host: localhost
  port: 5432
  credentials:
    username: admin

logging:
  level: info
  outputs:
    - console
    - file
defaults: &defaults
  retries: 3
`

func TestYamlPlugin(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := yaml.NewYamlPlugin(log)

	t.Run("BasicInfo", func(t *testing.T) {
		assert.Equal(t, "yaml", plugin.Name())
		assert.Equal(t, []string{".yaml", ".yml"}, plugin.Extensions())
		assert.True(t, plugin.CanHandle("config.yaml", nil))
		assert.True(t, plugin.CanHandle("docker-compose.YML", nil))
		assert.False(t, plugin.CanHandle("config.json", nil))
	})

	t.Run("Structure", func(t *testing.T) {
		chunks := logger.ChunkWith(t, plugin, testConfigContent, "config.yaml")

		doc, ok := logger.FindChunk(chunks, "document", "document_1")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 1, doc.LineStart)
		assert.Contains(t, doc.Context["keys"], "database")

		name, ok := logger.FindChunk(chunks, "pair", "name")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 2, name.LineStart)
		assert.Equal(t, "document_1.name", name.Path)
		assert.Equal(t, "test-service", name.Context["value"])

		database, ok := logger.FindChunk(chunks, "mapping", "database")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 5, database.LineStart)
		assert.Equal(t, 9, database.LineEnd)
		assert.Equal(t, 3, database.Context["keys"])

		credentials, ok := logger.FindChunk(chunks, "mapping", "credentials")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, "document_1.database.credentials", credentials.Path)
		assert.Equal(t, "document_1.database", credentials.Parent)
		assert.Equal(t, 8, credentials.LineStart)
		assert.Equal(t, 9, credentials.LineEnd)

		_, ok = logger.FindChunk(chunks, "pair", "host")
		assert.False(t, ok, "nested scalars stay inside their mapping")

		outputs, ok := logger.FindChunk(chunks, "sequence", "outputs")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 13, outputs.LineStart)
		assert.Equal(t, 15, outputs.LineEnd)
		assert.Equal(t, 2, outputs.Context["items"])
		assert.Equal(t, "document_1.logging.outputs", outputs.Path)

		defaults, ok := logger.FindChunk(chunks, "mapping", "defaults")
		require.True(t, ok, logger.Names(chunks))
		assert.True(t, defaults.HasFeature("anchor"))

		for _, c := range chunks {
			assert.Equal(t, "yaml", c.Language)
			assert.Equal(t, "yaml", c.Extension)
		}
	})

	t.Run("MultipleDocuments", func(t *testing.T) {
		content := "apiVersion: v1\nkind: Service\n---\napiVersion: apps/v1\nkind: Deployment\n"
		chunks := logger.ChunkWith(t, plugin, content, "k8s.yaml")

		assert.Len(t, logger.OfKind(chunks, "document"), 2)
		second, ok := logger.FindChunk(chunks, "document", "document_2")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 5, second.LineEnd)

		var kinds []string
		for _, c := range logger.OfKind(chunks, "pair") {
			if c.Name == "kind" {
				kinds = append(kinds, c.Path)
			}
		}
		assert.Equal(t, []string{"document_1.kind", "document_2.kind"}, kinds)
	})

	t.Run("SequenceOfMappings", func(t *testing.T) {
		content := "- name: install\n  apt: nginx\n- name: start\n  service: nginx\n"
		chunks := logger.ChunkWith(t, plugin, content, "playbook.yml")

		install, ok := logger.FindChunk(chunks, "mapping", "install")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 1, install.LineStart)
		assert.Equal(t, 2, install.LineEnd)
		assert.True(t, install.HasFeature("sequence_item"))

		_, ok = logger.FindChunk(chunks, "mapping", "start")
		assert.True(t, ok, logger.Names(chunks))
		assert.Empty(t, logger.OfKind(chunks, "pair"))
	})

	t.Run("Malformed", func(t *testing.T) {
		content := "server:\n  port: 80\nitems: [unclosed\nname: x\n  bad: : :\n"
		chunks := logger.ChunkWith(t, plugin, content, "broken.yaml")
		assert.NotEmpty(t, chunks)
		logger.AssertIdempotent(t, func() []schema.SemanticChunk {
			return logger.ChunkWith(t, plugin, content, "broken.yaml")
		})
	})

	t.Run("Empty", func(t *testing.T) {
		chunks := logger.ChunkWith(t, plugin, "", "empty.yaml")
		require.Len(t, chunks, 1)
		assert.Equal(t, schema.KindFallback, chunks[0].Kind)
	})

	t.Run("Equivalence", func(t *testing.T) {
		eq, ok := plugin.(engine.KindEquivalence)
		require.True(t, ok)
		assert.True(t, eq.EquivalentKinds("mapping", "pair"))
		assert.False(t, eq.EquivalentKinds("mapping", "sequence"))
	})
}

func TestYamlPlugin_WholeFileFallback(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := yaml.NewYamlPlugin(log)

	content := "server:\n  port: 80\nitems:\n- a\n- b\nname: x\n"
	chunks := plugin.WholeFileFallback(content, "app.yaml")
	logger.AssertChunkInvariants(t, content, chunks)

	server, ok := logger.FindChunk(chunks, "mapping", "server")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 1, server.LineStart)
	assert.Equal(t, 2, server.LineEnd)

	items, ok := logger.FindChunk(chunks, "mapping", "items")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 3, items.LineStart)
	assert.Equal(t, 5, items.LineEnd)

	name, ok := logger.FindChunk(chunks, "pair", "name")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 6, name.LineStart)
	assert.Equal(t, engine.RecoveryWholeFile, name.Context[schema.ContextRecovery])
}

func TestYamlPlugin_ExtractMetadata(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := yaml.NewYamlPlugin(log)
	extractor, ok := plugin.(engine.MetadataExtractor)
	require.True(t, ok)

	t.Run("Config", func(t *testing.T) {
		metadata, err := extractor.ExtractMetadata(testConfigContent, "config.yaml")
		require.NoError(t, err)

		assert.Equal(t, "yaml", metadata.Language)
		assert.Equal(t, "config.yaml", metadata.FilePath)
		assert.Equal(t, "true", metadata.Properties["valid"])
		assert.Equal(t, "1", metadata.Properties["documents"])
		assert.Equal(t, "mapping", metadata.Properties["root_type"])
		assert.Equal(t, "true", metadata.Properties["has_anchors"])

		var defs []string
		for _, d := range metadata.Definitions {
			defs = append(defs, d.Name)
		}
		assert.Contains(t, defs, "database")
		assert.Contains(t, defs, "database.credentials")
		assert.Contains(t, defs, "logging.outputs")

		var username *schema.CodeSymbol
		for i := range metadata.Symbols {
			if metadata.Symbols[i].Name == "database.credentials.username" {
				username = &metadata.Symbols[i]
			}
		}
		require.NotNil(t, username)
		assert.Equal(t, "scalar", username.Type)
		assert.Equal(t, 9, username.LineStart)
	})

	t.Run("Manifest", func(t *testing.T) {
		content := "apiVersion: v1\nkind: Service\n---\napiVersion: apps/v1\nkind: Deployment\n"
		metadata, err := extractor.ExtractMetadata(content, "k8s.yaml")
		require.NoError(t, err)
		assert.Equal(t, "2", metadata.Properties["documents"])
		assert.Equal(t, "true", metadata.Properties["kubernetes_manifest"])
	})

	t.Run("Invalid", func(t *testing.T) {
		metadata, err := extractor.ExtractMetadata("key: [unclosed\n", "bad.yaml")
		require.Error(t, err)
		assert.Equal(t, "false", metadata.Properties["valid"])
	})
}

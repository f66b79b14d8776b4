package parsers

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sevigo/semchunk/parsers/engine"
)

// ErrPluginNotFound is returned when a plugin is not found
var ErrPluginNotFound = errors.New("language plugin not found")

// registry implements the ParserRegistry interface
type registry struct {
	plugins    map[string]engine.LanguagePlugin // Map of language name to plugin
	extensions map[string]engine.LanguagePlugin // Map of file extension to plugin
	logger     *slog.Logger
	mu         sync.RWMutex
}

// NewRegistry creates a new language plugin registry
func NewRegistry(logger *slog.Logger) ParserRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &registry{
		plugins:    make(map[string]engine.LanguagePlugin),
		extensions: make(map[string]engine.LanguagePlugin),
		logger:     logger,
	}
}

// DotExtension lower-cases ext and gives it a leading dot, the form used as a
// registry key. Chunks carry the dotless form from schema.NormalizeExtension.
func DotExtension(ext string) string {
	if ext == "" {
		return ""
	}
	ext = strings.ToLower(ext)
	if ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}

// RegisterParser adds a language plugin to the registry
func (r *registry) RegisterParser(plugin engine.LanguagePlugin) error {
	if plugin == nil {
		return errors.New("cannot register nil plugin")
	}

	name := plugin.Name()
	if name == "" {
		return errors.New("plugin must have a non-empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin with name %q already registered", name)
	}

	for _, ext := range plugin.Extensions() {
		ext = DotExtension(ext)
		if ext == "" {
			continue
		}
		if owner, taken := r.extensions[ext]; taken {
			return fmt.Errorf("extension %s of plugin %q already registered by %q", ext, name, owner.Name())
		}
	}

	r.plugins[name] = plugin
	for _, ext := range plugin.Extensions() {
		if ext = DotExtension(ext); ext != "" {
			r.extensions[ext] = plugin
		}
	}

	r.logger.Debug("Registered language plugin", "language", name, "extensions", plugin.Extensions())
	return nil
}

// GetParser retrieves a plugin by language name
func (r *registry) GetParser(language string) (engine.LanguagePlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, ok := r.plugins[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, language)
	}
	return plugin, nil
}

// GetParserForFile returns the appropriate plugin for a file
func (r *registry) GetParserForFile(path string, info fs.FileInfo) (engine.LanguagePlugin, error) {
	if ext := filepath.Ext(path); ext != "" {
		plugin, err := r.GetParserForExtension(ext)
		if err == nil {
			return plugin, nil
		}
	}

	// If no plugin found by extension, ask each plugin in name order
	for _, plugin := range r.GetAllParsers() {
		if plugin.CanHandle(path, info) {
			return plugin, nil
		}
	}

	return nil, fmt.Errorf("%w for file %s", ErrPluginNotFound, path)
}

// GetParserForExtension returns a plugin for a file extension
func (r *registry) GetParserForExtension(ext string) (engine.LanguagePlugin, error) {
	ext = DotExtension(ext)
	if ext == "" {
		return nil, fmt.Errorf("%w: empty extension", ErrPluginNotFound)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, ok := r.extensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w for extension %s", ErrPluginNotFound, ext)
	}

	return plugin, nil
}

// GetAllParsers returns all registered plugins sorted by name
func (r *registry) GetAllParsers() []engine.LanguagePlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugins := make([]engine.LanguagePlugin, 0, len(r.plugins))
	for _, plugin := range r.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Name() < plugins[j].Name()
	})

	return plugins
}

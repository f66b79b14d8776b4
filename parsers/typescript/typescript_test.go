package typescript_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/semchunk/parsers/engine"
	logger "github.com/sevigo/semchunk/parsers/testing"
	"github.com/sevigo/semchunk/parsers/typescript"
	"github.com/sevigo/semchunk/schema"
)

const testTSContent = `import { Injectable } from "@angular/core";
import type { User } from "./user";

/** Greets users. */
export interface Greeter extends Base {
  greet(name: string): string;
}

export type ID = string | number;

export enum Color {
  Red,
  Green,
}

@Injectable()
export class UserService extends BaseService implements Greeter {
  private readonly cache = new Map<string, User>();

  constructor(private http: Http) {
    super();
  }

  async load(id: ID): Promise<User> {
    return this.http.get(id);
  }

  static create(): UserService {
    return new UserService(null);
  }

  handle = (event: Event) => {
    console.log(event);
  };
}

export function helper<T>(value: T): T {
  return value;
}

export const add = (a: number, b: number): number => a + b;

namespace Utils {
  export function noop() {}
}
`

func TestTypeScriptPlugin_Chunking(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := typescript.NewTypeScriptPlugin(log)
	chunks := logger.ChunkWith(t, plugin, testTSContent, "src/user.service.ts")

	t.Run("should emit imports", func(t *testing.T) {
		imp, ok := logger.FindChunk(chunks, "import", "@angular/core")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 1, imp.LineStart)

		_, ok = logger.FindChunk(chunks, "import", "./user")
		assert.True(t, ok, logger.Names(chunks))
	})

	t.Run("should emit type declarations", func(t *testing.T) {
		iface, ok := logger.FindChunk(chunks, "interface", "Greeter")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 5, iface.LineStart)
		assert.Equal(t, 7, iface.LineEnd)
		assert.True(t, iface.HasFeature("export"))
		assert.Equal(t, []string{"Base"}, iface.Context["extends"])
		assert.Equal(t, "/** Greets users. */", iface.Context["doc"])

		id, ok := logger.FindChunk(chunks, "type", "ID")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 9, id.LineStart)

		enum, ok := logger.FindChunk(chunks, "enum", "Color")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 11, enum.LineStart)
		assert.Equal(t, 14, enum.LineEnd)
	})

	t.Run("should emit the decorated class with heritage", func(t *testing.T) {
		class, ok := logger.FindChunk(chunks, "class", "UserService")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 16, class.LineStart)
		assert.Equal(t, 35, class.LineEnd)
		assert.True(t, class.HasFeature("export"))
		assert.Equal(t, []string{"BaseService"}, class.Context["extends"])
		assert.Equal(t, []string{"Greeter"}, class.Context["implements"])
		assert.Equal(t, []string{"Injectable"}, class.Context["decorators"])
	})

	t.Run("should emit class members", func(t *testing.T) {
		ctor, ok := logger.FindChunk(chunks, "method", "constructor")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, "UserService", ctor.Parent)
		assert.Equal(t, "UserService.constructor", ctor.Path)
		assert.True(t, ctor.HasFeature("constructor"))
		assert.Equal(t, 20, ctor.LineStart)
		assert.Equal(t, 22, ctor.LineEnd)

		load, ok := logger.FindChunk(chunks, "method", "load")
		require.True(t, ok, logger.Names(chunks))
		assert.True(t, load.HasFeature("async"))
		assert.Equal(t, "Promise<User>", load.Context["returns"])

		create, ok := logger.FindChunk(chunks, "method", "create")
		require.True(t, ok, logger.Names(chunks))
		assert.True(t, create.HasFeature("static"))

		handle, ok := logger.FindChunk(chunks, "method", "handle")
		require.True(t, ok, logger.Names(chunks))
		assert.True(t, handle.HasFeature("arrow"))
		assert.Equal(t, 32, handle.LineStart)

		_, ok = logger.FindByName(chunks, "cache")
		assert.False(t, ok, "plain fields are not constructs")
	})

	t.Run("should emit exported functions", func(t *testing.T) {
		helper, ok := logger.FindChunk(chunks, "function", "helper")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 37, helper.LineStart)
		assert.Equal(t, 39, helper.LineEnd)
		assert.True(t, helper.HasFeature("generic"))
		assert.True(t, helper.HasFeature("export"))
		assert.Equal(t, "export function helper<T>(value: T): T", helper.Signature)

		add, ok := logger.FindChunk(chunks, "function", "add")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 41, add.LineStart)
		assert.True(t, add.HasFeature("arrow"))
		assert.True(t, add.HasFeature("export"))
	})

	t.Run("should scope namespace members", func(t *testing.T) {
		ns, ok := logger.FindChunk(chunks, "namespace", "Utils")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, 43, ns.LineStart)
		assert.Equal(t, 45, ns.LineEnd)

		noop, ok := logger.FindChunk(chunks, "function", "noop")
		require.True(t, ok, logger.Names(chunks))
		assert.Equal(t, "Utils.noop", noop.Path)
		assert.Equal(t, schema.ScopeNamespace, noop.Scope)
	})
}

func TestJavaScriptPlugin_Chunking(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := typescript.NewJavaScriptPlugin(log)

	content := `const express = require("express");

class Router extends Base {
  #secret = 1;

  get name() {
    return "r";
  }

  *items() {
    yield 1;
  }
}

function handler(req, res) {
  res.send("ok");
}

describe("router", () => {
  it("works", () => {});
});

module.exports = { Router, handler };
`
	chunks := logger.ChunkWith(t, plugin, content, "router.js")

	class, ok := logger.FindChunk(chunks, "class", "Router")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 3, class.LineStart)
	assert.Equal(t, 13, class.LineEnd)
	assert.Equal(t, []string{"Base"}, class.Context["extends"])

	getter, ok := logger.FindChunk(chunks, "method", "name")
	require.True(t, ok, logger.Names(chunks))
	assert.True(t, getter.HasFeature("getter"))
	assert.Equal(t, "Router.name", getter.Path)

	items, ok := logger.FindChunk(chunks, "method", "items")
	require.True(t, ok, logger.Names(chunks))
	assert.True(t, items.HasFeature("generator"))

	handler, ok := logger.FindChunk(chunks, "function", "handler")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 15, handler.LineStart)
	assert.Equal(t, 17, handler.LineEnd)

	callback, ok := logger.FindChunk(chunks, "anonymous_function", "anonymous_function_L19")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 21, callback.LineEnd)
	assert.Equal(t, "describe", callback.Context["callee"])
	assert.Len(t, logger.OfKind(chunks, "anonymous_function"), 1, "nested callbacks stay inside their parent")

	for _, c := range chunks {
		assert.Equal(t, "javascript", c.Language)
		assert.Equal(t, "js", c.Extension)
	}
}

func TestTSXPlugin_Chunking(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := typescript.NewTSXPlugin(log)

	content := `import React from "react";

export function Button({ label }: Props) {
  return <button className="btn">{label}</button>;
}

export default Button;
`
	chunks := logger.ChunkWith(t, plugin, content, "Button.tsx")

	button, ok := logger.FindChunk(chunks, "function", "Button")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 3, button.LineStart)
	assert.Equal(t, 5, button.LineEnd)
	assert.False(t, button.Recovered())

	exp, ok := logger.FindChunk(chunks, "export", "default")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 7, exp.LineStart)
}

func TestTypeScriptPlugin_MalformedInput(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := typescript.NewTypeScriptPlugin(log)

	content := `export function ok(): number {
  return 1;
}

export class Broken {
  method( {
    if (x) {
  }

export function alsoOk() {
  return 2;
}
`
	chunks := logger.ChunkWith(t, plugin, content, "broken.ts")
	_, ok := logger.FindByName(chunks, "ok")
	assert.True(t, ok, logger.Names(chunks))
	_, ok = logger.FindByName(chunks, "Broken")
	assert.True(t, ok, logger.Names(chunks))
	_, ok = logger.FindByName(chunks, "if")
	assert.False(t, ok, "control flow must not be recovered as a method")

	var alsoOk []schema.SemanticChunk
	for _, c := range chunks {
		if c.Name == "alsoOk" {
			alsoOk = append(alsoOk, c)
		}
	}
	require.Len(t, alsoOk, 1, logger.Names(chunks))
	assert.Equal(t, 10, alsoOk[0].LineStart)
	assert.Equal(t, 12, alsoOk[0].LineEnd)

	logger.AssertIdempotent(t, func() []schema.SemanticChunk {
		return logger.ChunkWith(t, plugin, content, "broken.ts")
	})
}

func TestTypeScriptPlugin_TruncatedFile(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	content := "class A {\n  f() {}\n}\nclass B {\n  g() {\n    let x = 1;\n"

	for _, tc := range []struct {
		plugin engine.LanguagePlugin
		path   string
	}{
		{typescript.NewTypeScriptPlugin(log), "a.ts"},
		{typescript.NewJavaScriptPlugin(log), "a.js"},
	} {
		t.Run(tc.path, func(t *testing.T) {
			chunks := logger.ChunkWith(t, tc.plugin, content, tc.path)

			a, ok := logger.FindChunk(chunks, "class", "A")
			require.True(t, ok, logger.Names(chunks))
			assert.False(t, a.Recovered())
			assert.Equal(t, 1, a.LineStart)
			assert.Equal(t, 3, a.LineEnd)
			assert.NotEqual(t, engine.RecoveryWholeFile, a.Context[schema.ContextRecovery])

			b, ok := logger.FindChunk(chunks, "class", "B")
			require.True(t, ok, logger.Names(chunks))
			assert.True(t, b.Recovered())
			assert.Equal(t, 4, b.LineStart)
		})
	}
}

func TestRecoveryStopsAtTopLevelDeclaration(t *testing.T) {
	plugin := typescript.NewTypeScriptPlugin(nil)
	content := `export class Broken {
  run(x) {
    go(x);

export function next() {
  return 2;
}
`
	chunks := plugin.WholeFileFallback(content, "broken.ts")
	logger.AssertChunkInvariants(t, content, chunks)

	broken, ok := logger.FindChunk(chunks, "class", "Broken")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 3, broken.LineEnd)

	next, ok := logger.FindChunk(chunks, "function", "next")
	require.True(t, ok, logger.Names(chunks))
	assert.Empty(t, next.Parent)
	assert.Equal(t, 5, next.LineStart)
	assert.Equal(t, 7, next.LineEnd)
}

func TestTypeScriptPlugin_WholeFileFallback(t *testing.T) {
	plugin := typescript.NewTypeScriptPlugin(nil)

	content := `import { a } from "./a";

export class Store {
  save(item: Item): void {
    if (item) {
      persist(item);
    }
  }
}

export const load = async (id: string) => {
  return fetch(id);
};
`
	chunks := plugin.WholeFileFallback(content, "store.ts")
	logger.AssertChunkInvariants(t, content, chunks)

	class, ok := logger.FindChunk(chunks, "class", "Store")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 3, class.LineStart)
	assert.Equal(t, 9, class.LineEnd)

	save, ok := logger.FindChunk(chunks, "method", "save")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, "Store", save.Parent)
	assert.Equal(t, 4, save.LineStart)
	assert.Equal(t, 8, save.LineEnd)

	load, ok := logger.FindChunk(chunks, "function", "load")
	require.True(t, ok, logger.Names(chunks))
	assert.Equal(t, 11, load.LineStart)
	assert.Equal(t, 13, load.LineEnd)
	assert.Equal(t, engine.RecoveryWholeFile, load.Context[schema.ContextRecovery])
}

func TestPlugins_Handling(t *testing.T) {
	ts := typescript.NewTypeScriptPlugin(nil)
	js := typescript.NewJavaScriptPlugin(nil)
	tsx := typescript.NewTSXPlugin(nil)

	assert.True(t, ts.CanHandle("a.ts", nil))
	assert.True(t, ts.CanHandle("a.mts", nil))
	assert.False(t, ts.CanHandle("a.tsx", nil))
	assert.True(t, tsx.CanHandle("a.tsx", nil))
	assert.True(t, js.CanHandle("a.cjs", nil))
	assert.True(t, js.CanHandle("a.JSX", nil))
	assert.False(t, js.CanHandle("a.ts", nil))

	eq, ok := ts.(engine.KindEquivalence)
	require.True(t, ok)
	assert.True(t, eq.EquivalentKinds("method", "function"))
	assert.True(t, eq.EquivalentKinds("anonymous_function", "function"))
}

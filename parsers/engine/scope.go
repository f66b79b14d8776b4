package engine

import (
	"slices"
	"strings"
)

// PathSeparator joins scope names into dotted paths.
const PathSeparator = "."

// ScopeStack tracks the names of the scopes enclosing the current node.
type ScopeStack struct {
	names []string
}

// NewScopeStack returns a stack holding the given names, outermost first.
func NewScopeStack(names ...string) *ScopeStack {
	return &ScopeStack{names: slices.Clone(names)}
}

// Push enters a scope and returns the guard that restores the stack to its
// depth before the push. The guard is idempotent:
//
//	restore := s.Push("Outer")
//	defer restore()
func (s *ScopeStack) Push(name string) (restore func()) {
	depth := len(s.names)
	s.names = append(s.names, name)
	return func() {
		if len(s.names) > depth {
			s.names = s.names[:depth]
		}
	}
}

func (s *ScopeStack) Depth() int {
	return len(s.names)
}

// Top returns the innermost scope name, or "" at file scope.
func (s *ScopeStack) Top() string {
	if len(s.names) == 0 {
		return ""
	}
	return s.names[len(s.names)-1]
}

// Names returns a copy of the stack, outermost first.
func (s *ScopeStack) Names() []string {
	return slices.Clone(s.names)
}

// Parent returns the dotted path of the current scope.
func (s *ScopeStack) Parent() string {
	return JoinPath(s.names, "")
}

// Path returns the dotted path of name inside the current scope.
func (s *ScopeStack) Path(name string) string {
	return JoinPath(s.names, name)
}

var pathEscaper = strings.NewReplacer(`\`, `\\`, PathSeparator, `\`+PathSeparator)

// EscapeName makes name safe to use as a single path segment, for names such
// as CSS selectors that contain the separator themselves.
func EscapeName(name string) string {
	return pathEscaper.Replace(name)
}

// JoinPath joins scope names and a trailing name, skipping empty parts.
func JoinPath(scope []string, name string) string {
	parts := make([]string, 0, len(scope)+1)
	for _, s := range scope {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if name != "" {
		parts = append(parts, name)
	}
	return strings.Join(parts, PathSeparator)
}

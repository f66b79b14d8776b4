package engine

import (
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrorKind is the node type tree-sitter reports for syntax error regions.
const ErrorKind = "ERROR"

// IsErrorNode reports whether node is a syntax error region.
func IsErrorNode(node *sitter.Node) bool {
	return node != nil && node.Type() == ErrorKind
}

// LineSpan returns the 1-indexed inclusive lines covered by node. A node whose
// end point sits at column 0 of a later row does not own that row.
func LineSpan(node *sitter.Node) (int, int) {
	start := int(node.StartPoint().Row) + 1
	endPoint := node.EndPoint()
	end := int(endPoint.Row) + 1
	if endPoint.Column == 0 && end > start {
		end--
	}
	return start, max(start, end)
}

// TextStartRow returns the 0-based row of the first non-whitespace byte of
// node. Some grammars, Lua among them, start a statement at the newline that
// precedes it.
func TextStartRow(node *sitter.Node, src []byte) int {
	row := int(node.StartPoint().Row)
	from, to := node.StartByte(), node.EndByte()
	if to > uint32(len(src)) || from >= to {
		return row
	}
	for _, b := range src[from:to] {
		switch b {
		case '\n':
			row++
		case ' ', '\t', '\r', '\f', '\v':
		default:
			return row
		}
	}
	return int(node.StartPoint().Row)
}

// NodeText returns the source text of node, or "" for nil.
func NodeText(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(src)
}

// FieldText returns the text of a named field child.
func FieldText(node *sitter.Node, field string, src []byte) string {
	if node == nil {
		return ""
	}
	return NodeText(node.ChildByFieldName(field), src)
}

// ChildByType returns the first direct child whose type is one of types.
func ChildByType(node *sitter.Node, types ...string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && slices.Contains(types, child.Type()) {
			return child
		}
	}
	return nil
}

// ChildrenByType returns every direct child whose type is one of types.
func ChildrenByType(node *sitter.Node, types ...string) []*sitter.Node {
	if node == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && slices.Contains(types, child.Type()) {
			out = append(out, child)
		}
	}
	return out
}

// ChildTextByType returns the text of the first direct child of one of types.
func ChildTextByType(node *sitter.Node, src []byte, types ...string) string {
	return NodeText(ChildByType(node, types...), src)
}

// FindDescendant does a pre-order search for the first node of one of types,
// not descending past maxDepth levels.
func FindDescendant(node *sitter.Node, maxDepth int, types ...string) *sitter.Node {
	if node == nil || maxDepth < 0 {
		return nil
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if slices.Contains(types, child.Type()) {
			return child
		}
		if found := FindDescendant(child, maxDepth-1, types...); found != nil {
			return found
		}
	}
	return nil
}

// HasChildType reports whether node has a direct child of one of types,
// including anonymous tokens such as keywords.
func HasChildType(node *sitter.Node, types ...string) bool {
	return ChildByType(node, types...) != nil
}

// LeadingComment returns the block of comment siblings that ends directly
// above node, or "" when there is none.
func LeadingComment(node *sitter.Node, src []byte, commentTypes ...string) string {
	if node == nil {
		return ""
	}
	var parts []string
	expect := TextStartRow(node, src)
	for prev := node.PrevSibling(); prev != nil && slices.Contains(commentTypes, prev.Type()); prev = prev.PrevSibling() {
		if int(prev.EndPoint().Row) < expect-1 {
			break
		}
		parts = append(parts, prev.Content(src))
		expect = int(prev.StartPoint().Row)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "\n")
}

// HeaderText returns the declaration text of node up to the start of its
// body child, with whitespace collapsed.
func HeaderText(node *sitter.Node, src []byte, bodyField string) string {
	return HeaderFrom(node, node, src, bodyField)
}

// HeaderFrom is HeaderText starting at outer, a wrapper of node such as an
// export statement or decorated definition.
func HeaderFrom(outer, node *sitter.Node, src []byte, bodyField string) string {
	if outer == nil || node == nil {
		return ""
	}
	end := outer.EndByte()
	if body := node.ChildByFieldName(bodyField); body != nil {
		end = body.StartByte()
	}
	if end > uint32(len(src)) || end < outer.StartByte() {
		return ""
	}
	return Truncate(CollapseWhitespace(string(src[outer.StartByte():end])), maxSignatureLength)
}

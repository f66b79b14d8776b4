package engine

import (
	"github.com/sevigo/semchunk/schema"
)

// FillGaps returns fragment constructs for every run of lines that contains
// non-blank text and is covered by none of constructs. Blank lines never start
// or end a fragment.
func FillGaps(lines []string, constructs []schema.Construct) []schema.Construct {
	n := len(lines)
	covered := make([]bool, n+1)
	for _, c := range constructs {
		for l := max(c.LineStart, 1); l <= c.LineEnd && l <= n; l++ {
			covered[l] = true
		}
	}

	var fragments []schema.Construct
	for l := 1; l <= n; {
		if covered[l] || IsBlank(lines[l-1]) {
			l++
			continue
		}
		start, end := l, l
		for ; l <= n && !covered[l]; l++ {
			if !IsBlank(lines[l-1]) {
				end = l
			}
		}
		fragments = append(fragments, fragment(lines, start, end))
	}
	return fragments
}

func fragment(lines []string, start, end int) schema.Construct {
	name := SyntheticName(schema.KindFragment, start)
	text := SliceLines(lines, start, end)
	return schema.Construct{
		Kind:      schema.KindFragment,
		Name:      name,
		Path:      name,
		Scope:     schema.ScopeGlobal,
		LineStart: start,
		LineEnd:   end,
		Text:      text,
		Signature: Signature(text),
	}
}

// UncoveredLines lists non-blank lines that no chunk covers.
func UncoveredLines(lines []string, chunks []schema.SemanticChunk) []int {
	covered := make([]bool, len(lines)+1)
	for _, c := range chunks {
		for l := max(c.LineStart, 1); l <= c.LineEnd && l <= len(lines); l++ {
			covered[l] = true
		}
	}
	var missing []int
	for l := 1; l <= len(lines); l++ {
		if !covered[l] && !IsBlank(lines[l-1]) {
			missing = append(missing, l)
		}
	}
	return missing
}

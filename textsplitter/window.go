package textsplitter

import (
	"context"
	"strings"
)

// WindowChunker cuts text into line-aligned windows of at most chunkSize
// bytes. It is used for files that have no language plugin.
type WindowChunker struct {
	chunkSize     int
	chunkOverlap  int
	indexComments bool
	splitter      *RecursiveCharacter
}

// unit is one line, or one piece of a line longer than the window size.
type unit struct {
	text string
	line int
}

// NewWindowChunker returns a chunker configured by opts. Only the chunk size,
// overlap and index_comments settings apply.
func NewWindowChunker(opts ...Option) (*WindowChunker, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return newWindowChunker(o), nil
}

func newWindowChunker(o options) *WindowChunker {
	return &WindowChunker{
		chunkSize:     o.chunkSize,
		chunkOverlap:  o.chunkOverlap,
		indexComments: o.indexComments,
		splitter:      NewRecursiveCharacter(WithChunkSize(o.chunkSize), WithChunkOverlap(0)),
	}
}

// Chunk returns the windows of content in order. Two pieces of one split
// line never share a window. The result is never empty: blank content
// yields a single empty window on line 1.
func (w *WindowChunker) Chunk(content string) []TextWindow {
	units := w.units(content)

	var windows []TextWindow
	var current []unit
	size := 0
	for _, u := range units {
		if len(current) > 0 && (size+1+len(u.text) > w.chunkSize || current[len(current)-1].line == u.line) {
			windows = append(windows, window(current))
			current = w.overlap(current, u)
			size = joinedSize(current)
		}
		if len(current) > 0 {
			size++
		}
		current = append(current, u)
		size += len(u.text)
	}
	if len(current) > 0 {
		windows = append(windows, window(current))
	}

	windows = dropBlank(windows)
	if !w.indexComments {
		windows = dropCommentOnly(windows)
	}
	if len(windows) == 0 {
		return []TextWindow{{Content: "", LineStart: 1, LineEnd: 1}}
	}
	return windows
}

// units splits content into lines, cutting lines longer than chunkSize with
// the recursive splitter. A trailing newline does not start another line.
func (w *WindowChunker) units(content string) []unit {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	units := make([]unit, 0, len(lines))
	for i, line := range lines {
		if len(line) <= w.chunkSize {
			units = append(units, unit{text: line, line: i + 1})
			continue
		}
		pieces, err := w.splitter.SplitText(context.Background(), line)
		if err != nil {
			pieces = hardSplit(line, w.chunkSize)
		}
		for _, piece := range pieces {
			units = append(units, unit{text: piece, line: i + 1})
		}
	}
	return units
}

// overlap returns the whole trailing lines of prev that fit in chunkOverlap
// and still leave room for next.
func (w *WindowChunker) overlap(prev []unit, next unit) []unit {
	if w.chunkOverlap == 0 || prev[len(prev)-1].line == next.line {
		return nil
	}
	budget := min(w.chunkOverlap, w.chunkSize-len(next.text)-1)
	size := 0
	start := len(prev)
	for i := len(prev) - 1; i > 0; i-- {
		// Stop at pieces of a split line.
		if prev[i].line == prev[i-1].line {
			break
		}
		add := len(prev[i].text)
		if size > 0 {
			add++
		}
		if size+add > budget {
			break
		}
		size += add
		start = i
	}
	if start == len(prev) {
		return nil
	}
	return append([]unit(nil), prev[start:]...)
}

func window(units []unit) TextWindow {
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.text
	}
	return TextWindow{
		Content:   strings.Join(texts, "\n"),
		LineStart: units[0].line,
		LineEnd:   units[len(units)-1].line,
	}
}

func joinedSize(units []unit) int {
	if len(units) == 0 {
		return 0
	}
	size := len(units) - 1
	for _, u := range units {
		size += len(u.text)
	}
	return size
}

func dropBlank(windows []TextWindow) []TextWindow {
	out := windows[:0]
	for _, w := range windows {
		if strings.TrimSpace(w.Content) != "" {
			out = append(out, w)
		}
	}
	return out
}

// dropCommentOnly removes comment-only windows unless that would remove all
// of them.
func dropCommentOnly(windows []TextWindow) []TextWindow {
	var out []TextWindow
	for _, w := range windows {
		if !isCommentOnly(w.Content) {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return windows
	}
	return out
}

// hardSplit cuts s into byte slices of at most size bytes.
func hardSplit(s string, size int) []string {
	var out []string
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	return append(out, s)
}

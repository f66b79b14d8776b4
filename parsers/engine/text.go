package engine

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxSignatureLength bounds synthesized one-line signatures.
const maxSignatureLength = 200

// SplitLines splits content on "\n". Line i (1-indexed) is lines[i-1].
func SplitLines(content string) []string {
	return strings.Split(content, "\n")
}

// SliceLines returns lines start..end (1-indexed, inclusive) joined by "\n".
// Out-of-range bounds are clamped.
func SliceLines(lines []string, start, end int) string {
	start, end = ClampLines(len(lines), start, end)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

// ClampLines fits a 1-indexed inclusive range into a file of n lines while
// keeping 1 <= start <= end.
func ClampLines(n, start, end int) (int, int) {
	if n < 1 {
		n = 1
	}
	start = min(max(start, 1), n)
	end = min(max(end, start), n)
	return start, end
}

// IsBlank reports whether a line holds only whitespace.
func IsBlank(line string) bool {
	return strings.TrimFunc(line, unicode.IsSpace) == ""
}

// Signature renders the first non-blank line of text as a one-line signature.
func Signature(text string) string {
	for _, line := range SplitLines(text) {
		if IsBlank(line) {
			continue
		}
		sig := strings.TrimSpace(line)
		sig = strings.TrimSuffix(sig, "{")
		sig = strings.TrimSpace(sig)
		return Truncate(sig, maxSignatureLength)
	}
	return ""
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// SyntheticName names a construct that has no identifier in source.
func SyntheticName(kind string, line int) string {
	return fmt.Sprintf("%s_L%d", kind, line)
}

// CollapseWhitespace folds runs of whitespace into single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Unquote strips one level of matching single, double or back quotes.
func Unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

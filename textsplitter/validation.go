package textsplitter

import (
	"fmt"
	"strings"
)

func (o options) validate() error {
	if err := validateChunkSize(o.chunkSize); err != nil {
		return err
	}
	if err := validateOverlap(o.chunkOverlap, o.chunkSize); err != nil {
		return err
	}
	if o.maxFileSize < 0 {
		return fmt.Errorf("%w: max file size cannot be negative: %d", ErrInvalidChunkSize, o.maxFileSize)
	}
	return nil
}

func validateChunkSize(chunkSize int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive: %d", ErrInvalidChunkSize, chunkSize)
	}

	if chunkSize > maxChunkSize {
		return fmt.Errorf("%w: chunk size too large: %d (max: %d)", ErrInvalidChunkSize, chunkSize, maxChunkSize)
	}

	return nil
}

func validateOverlap(overlap, chunkSize int) error {
	if overlap < 0 {
		return fmt.Errorf("%w: overlap cannot be negative: %d", ErrInvalidChunkSize, overlap)
	}

	if overlap >= chunkSize {
		return fmt.Errorf("%w: overlap (%d) must be less than chunk size (%d)",
			ErrInvalidChunkSize, overlap, chunkSize)
	}

	return nil
}

// isCommentLine reports whether a trimmed line starts with a comment marker.
func isCommentLine(trimmed string) bool {
	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// isCommentOnly reports whether every non-blank line of text is a comment.
// Blank text is not comment-only.
func isCommentOnly(text string) bool {
	seen := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !isCommentLine(trimmed) {
			return false
		}
		seen = true
	}
	return seen
}

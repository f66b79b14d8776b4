package textsplitter

import (
	"context"
	"fmt"
	"strings"
)

// RecursiveCharacter is a text splitter that recursively tries to split text
// using a list of separators. It aims to keep semantically related parts of
// the text together as long as possible. Separators stay attached to the
// piece they end, so without overlap the pieces concatenate back to the
// input.
type RecursiveCharacter struct {
	opts options
}

// NewRecursiveCharacter creates a new RecursiveCharacter text splitter.
func NewRecursiveCharacter(opts ...Option) *RecursiveCharacter {
	o := options{
		chunkSize:    1000, // Default chunk size in bytes
		chunkOverlap: 200,  // Default overlap in bytes
	}

	for _, opt := range opts {
		opt(&o)
	}

	return &RecursiveCharacter{
		opts: o,
	}
}

// SplitText splits a single text document into multiple chunks.
func (s *RecursiveCharacter) SplitText(_ context.Context, text string) ([]string, error) {
	if err := validateChunkSize(s.opts.chunkSize); err != nil {
		return nil, err
	}
	separators := []string{"\n\n", "\n", " ", ""} // Default separators, from largest to smallest
	chunks := s.splitTextRecursive(text, separators)

	// If overlap is configured, merge the chunks back together with overlap.
	if s.opts.chunkOverlap > 0 && len(chunks) > 1 {
		return s.mergeWithOverlap(chunks)
	}
	return chunks, nil
}

// splitTextRecursive is the core logic that recursively splits text.
func (s *RecursiveCharacter) splitTextRecursive(text string, separators []string) []string {
	// If the text is already small enough, just return it.
	if len(text) <= s.opts.chunkSize {
		return []string{text}
	}

	// Base case for the recursion: If we've run out of separators,
	// we must add the oversized text as-is and stop.
	if len(separators) == 0 {
		return []string{text}
	}

	separator := separators[0]
	remainingSeparators := separators[1:]

	var goodSplits []string
	currentSplit := ""
	for _, split := range strings.SplitAfter(text, separator) {
		if split == "" {
			continue
		}

		// If adding the next split doesn't exceed the chunk size, merge it.
		if currentSplit != "" && len(currentSplit)+len(split) <= s.opts.chunkSize {
			currentSplit += split
			continue
		}
		if currentSplit != "" {
			goodSplits = append(goodSplits, currentSplit)
		}
		currentSplit = split
	}
	if currentSplit != "" {
		goodSplits = append(goodSplits, currentSplit)
	}

	// Splits that are still too large go down to the next separator.
	var finalChunks []string
	for _, split := range goodSplits {
		if len(split) <= s.opts.chunkSize {
			finalChunks = append(finalChunks, split)
			continue
		}
		finalChunks = append(finalChunks, s.splitTextRecursive(split, remainingSeparators)...)
	}

	return finalChunks
}

// mergeWithOverlap combines chunks, adding the specified overlap between them.
func (s *RecursiveCharacter) mergeWithOverlap(chunks []string) ([]string, error) {
	if err := validateOverlap(s.opts.chunkOverlap, s.opts.chunkSize); err != nil {
		return nil, fmt.Errorf("cannot merge chunks: %w", err)
	}

	var mergedChunks []string
	currentChunk := ""

	for i, chunk := range chunks {
		if currentChunk == "" {
			currentChunk = chunk
		} else {
			var overlap string
			if len(currentChunk) > s.opts.chunkOverlap {
				overlap = currentChunk[len(currentChunk)-s.opts.chunkOverlap:]
			} else {
				overlap = currentChunk
			}

			if len(currentChunk)+len(chunk) <= s.opts.chunkSize {
				currentChunk += chunk
			} else {
				// Finalize the current chunk and start a new one with the overlap.
				mergedChunks = append(mergedChunks, currentChunk)
				currentChunk = overlap + chunk
			}
		}

		if i == len(chunks)-1 {
			mergedChunks = append(mergedChunks, currentChunk)
		}
	}

	return mergedChunks, nil
}

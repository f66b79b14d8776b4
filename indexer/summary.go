package indexer

import (
	"errors"
	"time"
)

// Summary aggregates a batch of results.
type Summary struct {
	Files     int            `json:"files"`
	Chunks    int            `json:"chunks"`
	Failed    int            `json:"failed"`
	TimedOut  int            `json:"timed_out"`
	Recovered int            `json:"recovered"`
	Languages map[string]int `json:"languages"`
	Duration  time.Duration  `json:"duration_ns"`
}

// Summarize counts files, chunks and failures. Languages maps the language
// of each successfully chunked file to a file count.
func Summarize(results []Result) Summary {
	s := Summary{Languages: make(map[string]int)}
	for _, r := range results {
		s.Files++
		s.Duration += r.Duration
		if r.Err != nil {
			s.Failed++
			if errors.Is(r.Err, ErrFileTimeout) {
				s.TimedOut++
			}
			continue
		}
		s.Chunks += len(r.Chunks)
		if len(r.Chunks) > 0 {
			s.Languages[r.Chunks[0].Language]++
		}
		for _, c := range r.Chunks {
			if c.Recovered() {
				s.Recovered++
			}
		}
	}
	return s
}

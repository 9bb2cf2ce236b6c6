// Package chunker splits normalized document text into fixed-size
// overlapping windows.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultWindowSize is the default number of characters per chunk.
const DefaultWindowSize = 1024

// DefaultOverlap is the default number of overlapping characters between
// consecutive chunks.
const DefaultOverlap = 128

// controlRe matches control and binary characters that appear when badly
// decoded bytes make it into the text.
var controlRe = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]+`)

// Chunker slides a fixed window over text in steps of windowSize-overlap.
// Chunk is a pure function of its input: identical text always yields
// identical output.
type Chunker struct {
	windowSize int
	overlap    int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithWindowSize sets the window size in characters.
func WithWindowSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.windowSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		windowSize: DefaultWindowSize,
		overlap:    DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	// The step must stay positive.
	if c.overlap >= c.windowSize {
		c.overlap = c.windowSize / 4
	}
	return c
}

// Chunk splits text into sanitized, non-empty windows. Windows that become
// empty after control-character stripping and trimming are skipped, but the
// cursor still advances by the full step; skipped regions are never
// re-probed at finer granularity. Emitted chunks are numbered by their
// position in the returned slice, which is contiguous over kept chunks only.
func (c *Chunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}

	// Windows are rune-indexed so multi-byte characters never split.
	runes := []rune(text)
	step := c.windowSize - c.overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.windowSize
		if end > len(runes) {
			end = len(runes)
		}

		w := controlRe.ReplaceAllString(string(runes[start:end]), " ")
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		chunks = append(chunks, w)
	}
	return chunks
}

// WindowSize reports the configured window size.
func (c *Chunker) WindowSize() int { return c.windowSize }

// Overlap reports the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Package linebreak splits a stream of raw bytes read from a tailed file
// into discrete lines, adapted from the teacher's
// pkg/logs/decoder/breaker.LineBreaker. Only the UTF8Newline framing is
// kept here: spec.md's Non-goals exclude parsing formats beyond the
// enumerated set, so the UTF16BE/UTF16LE/Shift-JIS/Docker-stream matchers
// the teacher carries for its broader integration surface have no home in
// this spec (see DESIGN.md).
package linebreak

import (
	"bytes"
	"sync/atomic"
)

// EndLineMatcher recognizes the end of a line within a byte stream. Mirrors
// the teacher's breaker.EndLineMatcher so the Breaker's matching loop can
// stay unchanged even though only one implementation survives here.
type EndLineMatcher interface {
	// Match reports whether the byte at position j in newBuf (given the
	// bytes already buffered in existingBuf) ends a line.
	Match(existingBuf, newBuf []byte, i, j int) bool
	// SeparatorLen is the width, in bytes, of the matched separator.
	SeparatorLen() int
}

// NewLineMatcher recognizes a single '\n' byte as a line separator.
type NewLineMatcher struct{}

// Match reports whether newBuf[j] is a newline.
func (m *NewLineMatcher) Match(existingBuf, newBuf []byte, i, j int) bool {
	return newBuf[j] == '\n'
}

// SeparatorLen is 1: a bare '\n'.
func (m *NewLineMatcher) SeparatorLen() int {
	return 1
}

// Breaker accumulates raw chunks (via Process) and emits complete lines to
// outputFn, carrying partial lines across calls. Line content longer than
// contentLenLimit is split at that length regardless of framing, the same
// overlong-line handling as the teacher's LineBreaker.
type Breaker struct {
	linesDecoded int64

	outputFn func(content []byte, rawDataLen int)

	matcher         EndLineMatcher
	lineBuffer      *bytes.Buffer
	contentLenLimit int
	rawDataLen      int
}

// NewBreaker builds a Breaker using UTF8Newline framing. contentLenLimit
// bounds the length of a single emitted line.
func NewBreaker(outputFn func(content []byte, rawDataLen int), contentLenLimit int) *Breaker {
	return &Breaker{
		outputFn:        outputFn,
		matcher:         &NewLineMatcher{},
		lineBuffer:      &bytes.Buffer{},
		contentLenLimit: contentLenLimit,
	}
}

// LineCount returns the number of lines decoded so far. Safe from any
// goroutine.
func (b *Breaker) LineCount() int64 {
	return atomic.LoadInt64(&b.linesDecoded)
}

// Process handles an incoming chunk, invoking outputFn for every line it
// completes. Partial lines persist across calls. inBuf is not retained.
func (b *Breaker) Process(inBuf []byte) {
	i, j := 0, 0
	n := len(inBuf)
	maxj := b.contentLenLimit - b.lineBuffer.Len()

	for ; j < n; j++ {
		switch {
		case j == maxj:
			b.lineBuffer.Write(inBuf[i:j])
			b.rawDataLen += j - i
			b.sendLine()
			i = j
			maxj = i + b.contentLenLimit
		case b.matcher.Match(b.lineBuffer.Bytes(), inBuf, i, j):
			b.lineBuffer.Write(inBuf[i:j])
			b.rawDataLen += j - i
			b.rawDataLen++ // account for the matched separator byte
			b.sendLine()
			i = j + 1
			maxj = i + b.contentLenLimit
		}
	}
	b.lineBuffer.Write(inBuf[i:j])
	b.rawDataLen += j - i
}

func (b *Breaker) sendLine() {
	content := make([]byte, b.lineBuffer.Len()-(b.matcher.SeparatorLen()-1))
	copy(content, b.lineBuffer.Bytes())
	b.lineBuffer.Reset()
	b.outputFn(content, b.rawDataLen)
	b.rawDataLen = 0
	atomic.AddInt64(&b.linesDecoded, 1)
}

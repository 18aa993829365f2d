// Package sse turns the raw bytes of a text/event-stream response into the
// sequence of data payloads it carries, independent of how the network
// fragmented them.
package sse

import (
	"bytes"
	"strings"
)

// LineKind discriminates the payloads a FrameAssembler emits.
type LineKind int

const (
	// LineData carries one data payload, prefix stripped.
	LineData LineKind = iota
	// LineDone is the [DONE] sentinel. The stream is over; no payload.
	LineDone
)

type Line struct {
	Kind LineKind
	Data []byte
}

// doneSentinel marks intentional, successful end of generation.
const doneSentinel = "[DONE]"

// FrameAssembler accumulates network chunks and extracts complete SSE lines.
// It is push-driven so the same instance behaves identically no matter how
// the body was split into reads: a partial trailing line (including a
// multi-byte UTF-8 sequence cut mid-rune) stays buffered until the bytes that
// finish it arrive. Splitting happens at the byte level on '\n', which can
// never appear inside a multi-byte sequence, so no rune is ever torn.
type FrameAssembler struct {
	buf []byte
}

func NewFrameAssembler() *FrameAssembler {
	return &FrameAssembler{buf: make([]byte, 0, 4096)}
}

// Push appends a chunk and returns every complete line it unlocked, filtered
// down to data payloads and the done sentinel. Blank lines, comment lines
// (":" prefix) and non-data fields are dropped here so downstream code only
// ever sees payload-bearing lines.
func (a *FrameAssembler) Push(chunk []byte) []Line {
	a.buf = append(a.buf, chunk...)
	var lines []Line
	for {
		i := bytes.IndexByte(a.buf, '\n')
		if i < 0 {
			return lines
		}
		raw := a.buf[:i]
		a.buf = a.buf[i+1:]
		if n := len(raw); n > 0 && raw[n-1] == '\r' {
			raw = raw[:n-1]
		}
		line, ok := classifyLine(raw)
		if !ok {
			continue
		}
		lines = append(lines, line)
	}
}

// Pending reports how many buffered bytes are still waiting for a terminator.
func (a *FrameAssembler) Pending() int { return len(a.buf) }

// Reset discards any partial line. Called at stream end.
func (a *FrameAssembler) Reset() { a.buf = a.buf[:0] }

func classifyLine(raw []byte) (Line, bool) {
	line := strings.TrimSpace(string(raw))
	if line == "" || strings.HasPrefix(line, ":") {
		return Line{}, false
	}
	if !strings.HasPrefix(line, "data:") {
		return Line{}, false
	}
	payload := strings.TrimLeft(strings.TrimPrefix(line, "data:"), " \t")
	if payload == doneSentinel {
		return Line{Kind: LineDone}, true
	}
	return Line{Kind: LineData, Data: []byte(payload)}, true
}

package chat

import (
	"context"
	"errors"
	"io"
	"strings"

	"chatstream/internal/config"
	"chatstream/internal/sse"
)

const (
	chunkBufferSize = 128
	readBufferSize  = 32 * 1024
)

// Stream opens the chat-stream request and pumps classified chunks in exact
// source-line order. The chunk channel closes when the stream is over; the
// done channel then carries exactly one value: nil on clean completion, the
// context's error on cancellation, or the failure that ended the stream.
//
// The session's cancel handle is registered under the returned key before
// the network call is made, so a cancel issued during connection setup (or
// during the retry backoff) still takes effect. The registry entry is
// removed exactly once whatever the outcome.
func (c *Client) Stream(ctx context.Context, req Request) (string, <-chan Chunk, <-chan error) {
	key := req.StreamKey
	if key == "" {
		key = NewStreamKey(req.SessionID)
	}
	sctx, cancel := context.WithCancel(ctx)
	sess := c.registry.Register(key, cancel)

	out := make(chan Chunk, chunkBufferSize)
	done := make(chan error, 1)
	go func() {
		defer close(out)
		defer c.registry.release(sess)
		defer cancel()
		resp, err := c.open(sctx, req)
		if err != nil {
			done <- err
			return
		}
		done <- c.pump(sctx, key, resp.Body, out)
	}()
	return key, out, done
}

// pump is the read loop. It feeds raw reads through the frame assembler and
// classifier and tracks the completion guard: completed flips to true on the
// [DONE] sentinel or a complete chunk and never flips back. EOF without
// completion is a protocol violation, not a success.
func (c *Client) pump(ctx context.Context, key string, body io.ReadCloser, out chan<- Chunk) error {
	defer body.Close()
	asm := sse.NewFrameAssembler()
	defer asm.Reset()
	completed := false
	debug := config.Debug()
	buf := make([]byte, readBufferSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range asm.Push(buf[:n]) {
				if line.Kind == sse.LineDone {
					return nil
				}
				payload, ok := TryParse(line.Data)
				if !ok {
					if debug {
						c.logger.Debug("skipping malformed stream line", "stream", key, "line", string(line.Data))
					}
					continue
				}
				chunk, err := Classify(payload)
				if err != nil {
					return err
				}
				if chunk == nil {
					continue
				}
				if ec, isErr := chunk.(ErrorChunk); isErr {
					return &ProtocolError{Message: ec.Message, ErrorType: ec.ErrorType, Suggestion: ec.Suggestion}
				}
				if _, isComplete := chunk.(StreamComplete); isComplete {
					completed = true
				}
				select {
				case out <- chunk:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(readErr, io.EOF) {
				if completed {
					return nil
				}
				return newIncompleteStreamError(key)
			}
			return readErr
		}
	}
}

// CollectResult aggregates a stream consumed to completion.
type CollectResult struct {
	Content   string
	Reasoning string
	Usage     map[string]any
}

// Collect consumes a whole stream and concatenates the content and reasoning
// deltas, for callers that do not need incremental delivery.
func (c *Client) Collect(ctx context.Context, req Request) (CollectResult, error) {
	_, chunks, done := c.Stream(ctx, req)
	content := strings.Builder{}
	reasoning := strings.Builder{}
	var usage map[string]any
	for chunk := range chunks {
		switch v := chunk.(type) {
		case ContentDelta:
			content.WriteString(v.Content)
		case Reasoning:
			if !v.Done && !v.Keepalive {
				reasoning.WriteString(v.Content)
			}
		case Usage:
			usage = v.Usage
		}
	}
	res := CollectResult{Content: content.String(), Reasoning: reasoning.String(), Usage: usage}
	return res, <-done
}

// Package chat implements the streaming chat response consumer: it issues
// the chat-stream request, decodes the event stream into typed chunks, and
// enforces that a stream which ends without a completion marker is reported
// as an error rather than a success.
package chat

// Chunk is one discrete, typed unit of the normalized output sequence. The
// set of variants is closed; every emitted Chunk corresponds to exactly one
// well-formed data line of the wire stream.
type Chunk interface {
	chunk()
}

// ContentDelta is an increment of assistant-visible text.
type ContentDelta struct {
	Content string
}

// Usage reports token accounting as sent by the server.
type Usage struct {
	Usage map[string]any
}

// Reasoning covers the three reasoning sub-events, mutually exclusive:
// an incremental text delta (Content), the terminal marker (Done, with the
// total Duration when the server reports one), or a keepalive heartbeat
// (Keepalive, with the idle time so far). Meta rides along on any shape.
type Reasoning struct {
	Content   string
	Done      bool
	Duration  *float64
	Keepalive bool
	IdleMs    *float64
	Meta      map[string]any
}

// ReasoningUnavailable tells the client why reasoning output was withheld.
type ReasoningUnavailable struct {
	Code       string
	Reason     string
	Suggestion string
	Protocol   string
	Decision   string
}

// ToolEvent reports progress of a server-side tool invocation.
type ToolEvent struct {
	Tool    string
	Stage   string
	ID      string
	Query   string
	Hits    any
	Error   string
	Summary string
	Details map[string]any
	Meta    map[string]any
}

// ImageEvent delivers generated images for a message.
type ImageEvent struct {
	GeneratedImages any
	MessageID       *int64
}

// ArtifactEvent delivers structured artifacts for a message.
type ArtifactEvent struct {
	Artifacts []any
	MessageID *int64
}

// StreamStart announces the persisted message identities for this exchange.
// Absent or unparseable IDs stay nil.
type StreamStart struct {
	MessageID                *int64
	AssistantMessageID       *int64
	AssistantClientMessageID *int64
}

// StreamEnd marks the end of the content phase.
type StreamEnd struct{}

// StreamComplete marks successful completion of the whole exchange. Seeing
// one satisfies the completion guard just like the [DONE] sentinel.
type StreamComplete struct{}

// SkillApprovalRequest asks the client to confirm a skill execution. The
// payload is passed through verbatim; the approval surface interprets it.
type SkillApprovalRequest struct {
	Payload map[string]any
}

// SkillApprovalResult reports the outcome of a skill approval round-trip.
type SkillApprovalResult struct {
	Payload map[string]any
}

// Quota reports the caller's remaining quota.
type Quota struct {
	Quota map[string]any
}

// ErrorChunk is a structured in-band failure. The reader escalates it to a
// ProtocolError; it never reaches consumers as a yielded chunk.
type ErrorChunk struct {
	Message    string
	ErrorType  string
	Suggestion string
}

func (ContentDelta) chunk()         {}
func (Usage) chunk()                {}
func (Reasoning) chunk()            {}
func (ReasoningUnavailable) chunk() {}
func (ToolEvent) chunk()            {}
func (ImageEvent) chunk()           {}
func (ArtifactEvent) chunk()        {}
func (StreamStart) chunk()          {}
func (StreamEnd) chunk()            {}
func (StreamComplete) chunk()       {}
func (SkillApprovalRequest) chunk() {}
func (SkillApprovalResult) chunk()  {}
func (Quota) chunk()                {}
func (ErrorChunk) chunk()           {}

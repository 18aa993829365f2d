package chat

import (
	"encoding/json"
	"strconv"
	"strings"

	"chatstream/internal/util"
)

// TryParse decodes one raw data payload. A malformed payload is not an
// error condition for the stream; callers skip it and move on.
func TryParse(data []byte) (map[string]any, bool) {
	payload := map[string]any{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false
	}
	return payload, true
}

const fallbackErrorMessage = "The assistant hit an unexpected error."

// Classify maps one decoded payload to at most one Chunk. A nil, nil return
// means the payload is ignorable: either a recognized type whose required
// fields are absent, or an unknown future type older clients must tolerate.
// The one fatal case is a payload carrying a top-level error field without a
// recognized type: that is not an event, it is the server failing at us.
func Classify(payload map[string]any) (Chunk, error) {
	t, _ := payload["type"].(string)
	switch t {
	case "content":
		if s, ok := payload["content"].(string); ok && s != "" {
			return ContentDelta{Content: s}, nil
		}
		return nil, nil
	case "usage":
		if u, ok := payload["usage"].(map[string]any); ok {
			return Usage{Usage: u}, nil
		}
		return nil, nil
	case "reasoning":
		return classifyReasoning(payload), nil
	case "reasoning_unavailable":
		return ReasoningUnavailable{
			Code:       stringField(payload, "code"),
			Reason:     stringField(payload, "reason"),
			Suggestion: stringField(payload, "suggestion"),
			Protocol:   stringField(payload, "protocol"),
			Decision:   stringField(payload, "decision"),
		}, nil
	case "tool":
		details, _ := payload["details"].(map[string]any)
		meta, _ := payload["meta"].(map[string]any)
		return ToolEvent{
			Tool:    stringField(payload, "tool"),
			Stage:   stringField(payload, "stage"),
			ID:      stringField(payload, "id"),
			Query:   stringField(payload, "query"),
			Hits:    payload["hits"],
			Error:   stringField(payload, "error"),
			Summary: stringField(payload, "summary"),
			Details: details,
			Meta:    meta,
		}, nil
	case "image":
		return ImageEvent{
			GeneratedImages: payload["generatedImages"],
			MessageID:       numericID(payload, "messageId"),
		}, nil
	case "artifact":
		arts, ok := payload["artifacts"].([]any)
		if !ok {
			return nil, nil
		}
		return ArtifactEvent{
			Artifacts: arts,
			MessageID: numericID(payload, "messageId"),
		}, nil
	case "start":
		// Two field-naming generations coexist on the wire; accept both.
		return StreamStart{
			MessageID:                numericID(payload, "messageId", "message_id"),
			AssistantMessageID:       numericID(payload, "assistantMessageId", "assistant_message_id"),
			AssistantClientMessageID: numericID(payload, "assistantClientMessageId", "assistant_client_message_id"),
		}, nil
	case "end":
		return StreamEnd{}, nil
	case "complete":
		return StreamComplete{}, nil
	case "skill_approval_request":
		return SkillApprovalRequest{Payload: payload}, nil
	case "skill_approval_result":
		return SkillApprovalResult{Payload: payload}, nil
	case "quota":
		if q, ok := payload["quota"].(map[string]any); ok {
			return Quota{Quota: q}, nil
		}
		return nil, nil
	case "error":
		msg := strings.TrimSpace(stringField(payload, "error"))
		if msg == "" {
			msg = fallbackErrorMessage
		}
		return ErrorChunk{
			Message:    msg,
			ErrorType:  stringField(payload, "errorType"),
			Suggestion: stringField(payload, "suggestion"),
		}, nil
	default:
		if errVal, hasErr := payload["error"]; hasErr {
			msg := strings.TrimSpace(looseString(errVal))
			if msg == "" {
				msg = fallbackErrorMessage
			}
			return nil, &ProtocolError{Message: msg}
		}
		return nil, nil
	}
}

func classifyReasoning(payload map[string]any) Chunk {
	meta, _ := payload["meta"].(map[string]any)
	if util.ToBool(payload["done"]) {
		return Reasoning{Done: true, Duration: numericValue(payload["duration"]), Meta: meta}
	}
	if util.ToBool(payload["keepalive"]) {
		return Reasoning{Keepalive: true, IdleMs: numericValue(payload["idle_ms"]), Meta: meta}
	}
	if s, ok := payload["content"].(string); ok {
		return Reasoning{Content: s, Meta: meta}
	}
	return nil
}

func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

func looseString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func numericValue(v any) *float64 {
	n, ok := util.NumFrom(v)
	if !ok {
		return nil
	}
	return &n
}

// numericID coalesces the first present key and parses it as an integer ID.
// Present but unparseable values yield nil rather than falling back to the
// next key; the generations never mix within one payload.
func numericID(payload map[string]any, keys ...string) *int64 {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			id := int64(n)
			return &id
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
			if err != nil {
				return nil
			}
			return &parsed
		default:
			return nil
		}
	}
	return nil
}

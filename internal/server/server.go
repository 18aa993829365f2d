// Package server re-exposes the normalized chat stream over HTTP: the relay
// consumes the upstream wire format through the chat client and emits the
// typed chunks back out as a clean event stream.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chatstream/internal/chat"
	"chatstream/internal/config"
	"chatstream/internal/util"
)

type App struct {
	Router *chi.Mux
	client *chat.Client
}

func NewApp(client *chat.Client) *App {
	app := &App{client: client}
	r := chi.NewRouter()
	r.Use(middleware.GetHead)
	r.Get("/healthz", app.health)
	r.Get("/readyz", app.health)
	r.Post("/v1/chat/stream", app.stream)
	r.Delete("/v1/streams/{key}", app.cancelStream)
	app.Router = r
	return app
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	util.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type streamRequest struct {
	SessionID int64                  `json:"sessionId"`
	Content   string                 `json:"content"`
	Images    []chat.ImageAttachment `json:"images,omitempty"`
	Options   map[string]any         `json:"options,omitempty"`
	StreamKey string                 `json:"streamKey,omitempty"`
}

func (a *App) stream(w http.ResponseWriter, r *http.Request) {
	var req streamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		util.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	key, chunks, done := a.client.Stream(r.Context(), chat.Request{
		SessionID: req.SessionID,
		Content:   req.Content,
		Images:    req.Images,
		Options:   req.Options,
		StreamKey: req.StreamKey,
	})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Stream-Key", key)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for chunk := range chunks {
		payload, err := json.Marshal(encodeChunk(chunk))
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
	if err := <-done; err != nil {
		config.Logger.Warn("relayed stream failed", "stream", key, "error", err)
		fmt.Fprintf(w, "data: %s\n\n", encodeStreamError(err))
	} else {
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
	flusher.Flush()
}

func (a *App) cancelStream(w http.ResponseWriter, r *http.Request) {
	// Cancelling an unknown key is a no-op; 204 either way.
	a.client.Registry().Cancel(chi.URLParam(r, "key"))
	w.WriteHeader(http.StatusNoContent)
}

func encodeStreamError(err error) []byte {
	body := map[string]any{"type": "error", "error": err.Error()}
	var incomplete *chat.IncompleteStreamError
	var quota *chat.QuotaError
	switch {
	case errors.As(err, &incomplete):
		body["errorType"] = incomplete.Code
	case errors.As(err, &quota):
		body["errorType"] = "QUOTA_EXCEEDED"
		if quota.Body != nil {
			body["details"] = quota.Body
		}
	case errors.Is(err, chat.ErrUnauthorized):
		body["errorType"] = "UNAUTHORIZED"
	}
	payload, _ := json.Marshal(body)
	return payload
}

// encodeChunk maps a typed chunk back to its wire shape. The switch is
// exhaustive over the closed chunk set.
func encodeChunk(chunk chat.Chunk) map[string]any {
	switch v := chunk.(type) {
	case chat.ContentDelta:
		return map[string]any{"type": "content", "content": v.Content}
	case chat.Usage:
		return map[string]any{"type": "usage", "usage": v.Usage}
	case chat.Reasoning:
		body := map[string]any{"type": "reasoning"}
		switch {
		case v.Done:
			body["done"] = true
			if v.Duration != nil {
				body["duration"] = *v.Duration
			}
		case v.Keepalive:
			body["keepalive"] = true
			if v.IdleMs != nil {
				body["idle_ms"] = *v.IdleMs
			}
		default:
			body["content"] = v.Content
		}
		if v.Meta != nil {
			body["meta"] = v.Meta
		}
		return body
	case chat.ReasoningUnavailable:
		return map[string]any{
			"type": "reasoning_unavailable", "code": v.Code, "reason": v.Reason,
			"suggestion": v.Suggestion, "protocol": v.Protocol, "decision": v.Decision,
		}
	case chat.ToolEvent:
		body := map[string]any{"type": "tool", "tool": v.Tool, "stage": v.Stage}
		if v.ID != "" {
			body["id"] = v.ID
		}
		if v.Query != "" {
			body["query"] = v.Query
		}
		if v.Hits != nil {
			body["hits"] = v.Hits
		}
		if v.Error != "" {
			body["error"] = v.Error
		}
		if v.Summary != "" {
			body["summary"] = v.Summary
		}
		if v.Details != nil {
			body["details"] = v.Details
		}
		if v.Meta != nil {
			body["meta"] = v.Meta
		}
		return body
	case chat.ImageEvent:
		body := map[string]any{"type": "image", "generatedImages": v.GeneratedImages}
		if v.MessageID != nil {
			body["messageId"] = *v.MessageID
		}
		return body
	case chat.ArtifactEvent:
		body := map[string]any{"type": "artifact", "artifacts": v.Artifacts}
		if v.MessageID != nil {
			body["messageId"] = *v.MessageID
		}
		return body
	case chat.StreamStart:
		body := map[string]any{"type": "start"}
		if v.MessageID != nil {
			body["messageId"] = *v.MessageID
		}
		if v.AssistantMessageID != nil {
			body["assistantMessageId"] = *v.AssistantMessageID
		}
		if v.AssistantClientMessageID != nil {
			body["assistantClientMessageId"] = *v.AssistantClientMessageID
		}
		return body
	case chat.StreamEnd:
		return map[string]any{"type": "end"}
	case chat.StreamComplete:
		return map[string]any{"type": "complete"}
	case chat.SkillApprovalRequest:
		return v.Payload
	case chat.SkillApprovalResult:
		return v.Payload
	case chat.Quota:
		return map[string]any{"type": "quota", "quota": v.Quota}
	case chat.ErrorChunk:
		return map[string]any{"type": "error", "error": v.Message, "errorType": v.ErrorType, "suggestion": v.Suggestion}
	default:
		return map[string]any{"type": "unknown"}
	}
}

package upstream

// Endpoint paths of the chat application's API.
const (
	ChatStreamPath = "/api/chat/stream"
	ChatCancelPath = "/api/chat/cancel"
)

// BaseHeaders are sent on every upstream request. The fingerprint must stay
// consistent with the TLS hello profile in internal/transport.
var BaseHeaders = map[string]string{
	"Accept":          "text/event-stream",
	"Content-Type":    "application/json",
	"Accept-Encoding": "gzip, br",
	"Cache-Control":   "no-cache",
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

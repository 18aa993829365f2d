package transport

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"testing"

	"github.com/andybalholm/brotli"
)

func responseWith(encoding string, body []byte) *http.Response {
	resp := &http.Response{Header: http.Header{}, Body: io.NopCloser(bytes.NewReader(body))}
	if encoding != "" {
		resp.Header.Set("Content-Encoding", encoding)
	}
	return resp
}

func TestDecodeBodyBrotli(t *testing.T) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write([]byte("data: {\"type\":\"content\"}\n")); err != nil {
		t.Fatalf("brotli write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("brotli close failed: %v", err)
	}

	body := DecodeBody(responseWith("br", buf.Bytes()))
	defer body.Close()
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != "data: {\"type\":\"content\"}\n" {
		t.Fatalf("unexpected decoded body: %q", got)
	}
}

func TestDecodeBodyGzip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte("data: [DONE]\n")); err != nil {
		t.Fatalf("gzip write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close failed: %v", err)
	}

	body := DecodeBody(responseWith("gzip", buf.Bytes()))
	defer body.Close()
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != "data: [DONE]\n" {
		t.Fatalf("unexpected decoded body: %q", got)
	}
}

func TestDecodeBodyIdentityPassthrough(t *testing.T) {
	body := DecodeBody(responseWith("", []byte("plain")))
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != "plain" {
		t.Fatalf("unexpected body: %q", got)
	}
}

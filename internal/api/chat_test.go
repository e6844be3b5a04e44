package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain collects the stream and the (optional) stream error.
func drain(t *testing.T, stream <-chan string, errs <-chan error) (string, error) {
	t.Helper()

	var sb strings.Builder
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-stream:
			if !ok {
				return sb.String(), <-errs
			}
			sb.WriteString(chunk)
		case <-timeout:
			t.Fatal("stream did not finish")
			return "", nil
		}
	}
}

func TestChatTextStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req struct {
			Messages []ChatMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, RoleUser, req.Messages[0].Role)
		assert.Equal(t, "hello", req.Messages[0].Content)

		flusher := w.(http.Flusher)
		for _, part := range []string{"Hel", "lo, ", "wörld"} {
			w.Write([]byte(part))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Options{})
	stream, errs, err := client.Chat(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hello"}})
	require.NoError(t, err)

	text, streamErr := drain(t, stream, errs)
	require.NoError(t, streamErr)
	assert.Equal(t, "Hello, wörld", text)
}

func TestChatTextStreamKeepsSplitRunesWhole(t *testing.T) {
	// "é" is 0xC3 0xA9; send the two bytes in separate flushes
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write([]byte{'c', 'a', 'f', 0xC3})
		flusher.Flush()
		time.Sleep(20 * time.Millisecond)
		w.Write([]byte{0xA9})
		flusher.Flush()
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Options{})
	stream, errs, err := client.Chat(context.Background(), []ChatMessage{{Role: RoleUser, Content: "x"}})
	require.NoError(t, err)

	var chunks []string
	for chunk := range stream {
		chunks = append(chunks, chunk)
	}
	require.NoError(t, <-errs)

	assert.Equal(t, "café", strings.Join(chunks, ""))
	for _, chunk := range chunks {
		assert.NotContains(t, chunk, "�")
	}
}

func TestChatDataStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("f:{\"messageId\":\"m1\"}\n"))
		w.Write([]byte("0:\"Hello\"\n"))
		w.Write([]byte("0:\" there\\n\"\n"))
		w.Write([]byte("e:{\"finishReason\":\"stop\"}\n"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Options{StreamProtocol: StreamProtocolData})
	stream, errs, err := client.Chat(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)

	text, streamErr := drain(t, stream, errs)
	require.NoError(t, streamErr)
	assert.Equal(t, "Hello there\n", text)
}

func TestChatDataStreamErrorPart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0:\"partial\"\n"))
		w.Write([]byte("3:\"model overloaded\"\n"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Options{StreamProtocol: StreamProtocolData})
	stream, errs, err := client.Chat(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)

	text, streamErr := drain(t, stream, errs)
	assert.Equal(t, "partial", text)
	require.Error(t, streamErr)
	assert.Contains(t, streamErr.Error(), "model overloaded")
}

func TestChatBackendErrorIsReturnedImmediately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail":"LLM not configured"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, Options{})
	_, _, err := client.Chat(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Equal(t, "LLM not configured", Detail(err, ""))
}

func TestChatRequiresMessages(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", Options{})
	_, _, err := client.Chat(context.Background(), nil)
	assert.Error(t, err)
}

func TestChatCancelClosesStreamWithoutError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("first"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(srv.URL, Options{})
	stream, errs, err := client.Chat(ctx, []ChatMessage{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)

	var got string
	for got != "first" {
		got += <-stream
	}
	cancel()

	text, streamErr := drain(t, stream, errs)
	assert.Empty(t, text)
	assert.NoError(t, streamErr)
}

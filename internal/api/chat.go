package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Chat posts the conversation and streams the assistant reply. Text chunks
// arrive on the first channel; it is closed when the reply ends. A stream
// failure is delivered once on the error channel.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (<-chan string, <-chan error, error) {
	if len(messages) == 0 {
		return nil, nil, errors.New("chat: no messages provided")
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/chat", chatRequest{Messages: messages})
	if err != nil {
		return nil, nil, fmt.Errorf("chat: %w", err)
	}

	streamChan := make(chan string, 10)
	errChan := make(chan error, 1)

	go func() {
		defer resp.Body.Close()
		defer close(streamChan)
		defer close(errChan)

		var err error
		if c.streamProtocol == StreamProtocolData {
			err = readDataStream(ctx, resp.Body, streamChan)
		} else {
			err = readTextStream(ctx, resp.Body, streamChan)
		}
		if err != nil && ctx.Err() == nil {
			errChan <- err
		}
	}()

	return streamChan, errChan, nil
}

// readTextStream forwards whatever text is available after each read, never
// splitting a multi-byte character across chunks.
func readTextStream(ctx context.Context, body io.Reader, out chan<- string) error {
	reader := bufio.NewReader(transform.NewReader(body, unicode.UTF8.NewDecoder()))

	var chunk strings.Builder
	flush := func() bool {
		if chunk.Len() == 0 {
			return true
		}
		select {
		case out <- chunk.String():
			chunk.Reset()
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		r, _, err := reader.ReadRune()
		if err != nil {
			if !flush() {
				return ctx.Err()
			}
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("error reading stream: %w", err)
		}

		chunk.WriteRune(r)
		if reader.Buffered() == 0 && !flush() {
			return ctx.Err()
		}
	}
}

// readDataStream parses the line-oriented AI data stream: `0:"text"` parts
// carry text, `3:"message"` parts carry an error, everything else is metadata.
func readDataStream(ctx context.Context, body io.Reader, out chan<- string) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		kind, payload, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		switch kind {
		case "0":
			var text string
			if err := json.Unmarshal([]byte(payload), &text); err != nil {
				return fmt.Errorf("failed to decode text part: %w", err)
			}
			if text == "" {
				continue
			}
			select {
			case out <- text:
			case <-ctx.Done():
				return ctx.Err()
			}
		case "3":
			var msg string
			if err := json.Unmarshal([]byte(payload), &msg); err != nil {
				msg = payload
			}
			return fmt.Errorf("chat stream error: %s", msg)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading stream: %w", err)
	}
	return nil
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Service is everything the terminal client needs from the backend.
type Service interface {
	ListReferences(ctx context.Context, keywords []string) ([]Reference, error)
	GetReference(ctx context.Context, id string, withContents bool) (*Reference, error)
	AddReference(ctx context.Context, url string) (*Reference, error)
	DeleteReference(ctx context.Context, id string) error
	ReindexReference(ctx context.Context, id string) (*Reference, error)
	ReferenceKeywords(ctx context.Context, id string) ([]string, error)
	KeywordCounts(ctx context.Context, selected []string) (KeywordCounts, error)
	Chat(ctx context.Context, messages []ChatMessage) (<-chan string, <-chan error, error)
}

const ReferenceTypeURL = "url"

// Reference is a document tracked by the backend.
// A nil Keywords slice means the backend did not include them.
type Reference struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Title     string   `json:"title,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	Source    string   `json:"source,omitempty"`
	Contents  string   `json:"contents,omitempty"`
	Indexed   bool     `json:"indexed"`
	CreatedAt string   `json:"created_at"`
	Keywords  []string `json:"keywords,omitempty"`
}

func (r Reference) IsURL() bool {
	return r.Type == ReferenceTypeURL
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// CreatedTime parses CreatedAt, which the backend emits in ISO-8601 with or
// without a zone.
func (r Reference) CreatedTime() (time.Time, bool) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, r.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type addReferenceRequest struct {
	Type     string `json:"type"`
	Contents string `json:"contents"`
}

// KeywordCount is one entry of the keyword frequency map
type KeywordCount struct {
	Keyword string
	Count   int
}

// KeywordCounts keeps the backend's object key order, which is the tie-break
// order when counts are sorted.
type KeywordCounts []KeywordCount

func (k *KeywordCounts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*k = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("keyword counts: expected object, got %v", tok)
	}

	counts := KeywordCounts{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		keyword, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("keyword counts: expected string key, got %v", keyTok)
		}

		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("keyword counts: value for %q: %w", keyword, err)
		}
		if count < 0 {
			return fmt.Errorf("keyword counts: negative count %d for %q", count, keyword)
		}
		counts = append(counts, KeywordCount{Keyword: keyword, Count: count})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*k = counts
	return nil
}

// ChatMessage is one turn of a conversation sent to /api/chat
type ChatMessage struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ListReferences returns all references, or only those tagged with every
// keyword when keywords is non-empty.
func (c *Client) ListReferences(ctx context.Context, keywords []string) ([]Reference, error) {
	endpoint := "/api/references"
	if len(keywords) > 0 {
		endpoint += "?" + url.Values{"keywords": {strings.Join(keywords, ",")}}.Encode()
	}

	var refs []Reference
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &refs); err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	if refs == nil {
		refs = []Reference{}
	}
	return refs, nil
}

func (c *Client) GetReference(ctx context.Context, id string, withContents bool) (*Reference, error) {
	endpoint := "/api/references/" + url.PathEscape(id)
	if withContents {
		endpoint += "?contents=true"
	}

	var ref Reference
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &ref); err != nil {
		return nil, fmt.Errorf("get reference %s: %w", id, err)
	}
	return &ref, nil
}

// AddReference asks the backend to fetch and index a URL.
func (c *Client) AddReference(ctx context.Context, rawURL string) (*Reference, error) {
	req := addReferenceRequest{Type: ReferenceTypeURL, Contents: rawURL}

	var ref Reference
	if err := c.doJSON(ctx, http.MethodPost, "/api/references/add", req, &ref); err != nil {
		return nil, fmt.Errorf("add reference: %w", err)
	}
	return &ref, nil
}

func (c *Client) DeleteReference(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/api/references/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete reference %s: %w", id, err)
	}
	return nil
}

func (c *Client) ReindexReference(ctx context.Context, id string) (*Reference, error) {
	var ref Reference
	endpoint := "/api/references/" + url.PathEscape(id) + "/reindex"
	if err := c.doJSON(ctx, http.MethodPost, endpoint, nil, &ref); err != nil {
		return nil, fmt.Errorf("reindex reference %s: %w", id, err)
	}
	return &ref, nil
}

func (c *Client) ReferenceKeywords(ctx context.Context, id string) ([]string, error) {
	var keywords []string
	endpoint := "/api/references/" + url.PathEscape(id) + "/keywords"
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &keywords); err != nil {
		return nil, fmt.Errorf("reference keywords %s: %w", id, err)
	}
	if keywords == nil {
		keywords = []string{}
	}
	return keywords, nil
}

// KeywordCounts returns keyword frequencies, restricted to references
// matching the selected tags when any are given.
func (c *Client) KeywordCounts(ctx context.Context, selected []string) (KeywordCounts, error) {
	endpoint := "/api/keywords/counts"
	if len(selected) > 0 {
		endpoint += "?" + url.Values{"selected_tags": {strings.Join(selected, ",")}}.Encode()
	}

	var counts KeywordCounts
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &counts); err != nil {
		return nil, fmt.Errorf("keyword counts: %w", err)
	}
	if counts == nil {
		counts = KeywordCounts{}
	}
	return counts, nil
}

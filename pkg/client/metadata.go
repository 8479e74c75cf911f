package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Authors accepts either a single string or a list of strings.
type Authors []string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Authors) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if strings.TrimSpace(single) == "" {
			*a = nil
			return nil
		}
		*a = Authors{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("author: expected string or list of strings")
	}
	*a = Authors(many)
	return nil
}

// String joins the authors for display.
func (a Authors) String() string {
	return strings.Join(a, ", ")
}

// Metadata describes the model behind a prediction endpoint. It is used for
// display only.
type Metadata struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Author      Authors `json:"author,omitempty"`
	License     string  `json:"license,omitempty"`
	Description string  `json:"description,omitempty"`
	Summary     string  `json:"summary,omitempty"`
	Version     string  `json:"version,omitempty"`
	URL         string  `json:"url,omitempty"`
}

// Title returns the display title.
func (m Metadata) Title() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// Metadata GETs the metadata document at path, normally the parent of the
// prediction endpoint.
func (c *Client) Metadata(ctx context.Context, path string) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Resolve(path), nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("client: build metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("client: metadata %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Metadata{}, fmt.Errorf("client: metadata %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return Metadata{}, fmt.Errorf("client: decode metadata: %w", err)
	}
	c.logger.Debug("metadata loaded", "path", path, "name", meta.Title())
	return meta, nil
}

// Package ipfs pins proposal metadata documents through the Pinata API.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/chainsafe/dao-governance/pkg/config"
)

// ErrNotConfigured is returned when no pinning credentials are configured.
var ErrNotConfigured = errors.New("ipfs pinning is not configured")

// Client pins JSON documents and resolves gateway URLs.
type Client struct {
	apiURL     string
	gatewayURL string
	jwt        string
	http       *http.Client
}

// PinResult describes pinned content.
type PinResult struct {
	CID       string `json:"IpfsHash"`
	Size      int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type pinJSONRequest struct {
	Content  any            `json:"pinataContent"`
	Metadata pinataMetadata `json:"pinataMetadata"`
}

type pinataMetadata struct {
	Name string `json:"name"`
}

// NewClient creates a Pinata client from configuration
func NewClient(cfg *config.IPFSConfig) *Client {
	return &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		jwt:        cfg.JWT,
		http:       &http.Client{Timeout: cfg.Timeout},
	}
}

// PinJSON uploads content as a JSON document and returns its CID.
func (c *Client) PinJSON(ctx context.Context, name string, content any) (*PinResult, error) {
	if c.jwt == "" {
		return nil, ErrNotConfigured
	}

	buf, err := json.Marshal(pinJSONRequest{Content: content, Metadata: pinataMetadata{Name: name}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode pin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/pinning/pinJSONToIPFS", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinning request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pinning failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result PinResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode pin response: %w", err)
	}
	if result.CID, err = ParseCID(result.CID); err != nil {
		return nil, fmt.Errorf("pinning service returned %w", err)
	}
	return &result, nil
}

// GatewayURL returns the public gateway URL of c.
func (c *Client) GatewayURL(cid string) string {
	return c.gatewayURL + "/" + cid
}

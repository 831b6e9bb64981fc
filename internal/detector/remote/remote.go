// Package remote calls an inference service over HTTP. The service shares
// the filesystem with this process, so requests carry paths rather than bytes.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mediadetect/internal/detector"
)

// Options configures the client.
type Options struct {
	InferenceURL string
	HTTPClient   *http.Client
}

// Client implements detector.Detector against a remote inference endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

type predictRequest struct {
	Source  string `json:"source"`
	Save    bool   `json:"save"`
	Project string `json:"project,omitempty"`
	Name    string `json:"name,omitempty"`
}

type predictResponse struct {
	Frames []detector.Frame `json:"frames"`
	Error  string           `json:"error"`
}

// New returns a Client. No request timeout is set; callers bound work with ctx.
func New(opts Options) (*Client, error) {
	url := strings.TrimRight(strings.TrimSpace(opts.InferenceURL), "/")
	if url == "" {
		return nil, errors.New("remote detector: inference url is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{url: url, httpClient: hc}, nil
}

func (c *Client) Name() string { return "remote" }

// Predict posts req to the inference URL and returns the reported frames.
func (c *Client) Predict(ctx context.Context, req detector.Request) ([]detector.Frame, error) {
	body := predictRequest{Source: req.Source}
	if req.Render != nil {
		body.Save = true
		body.Project = req.Render.Project
		body.Name = req.Render.Name
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("remote detector: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("remote detector: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("remote detector: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote detector: read response: %w", err)
	}
	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("remote detector: inference failed with status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("remote detector: decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("remote detector: %s", out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote detector: inference failed with status %d", resp.StatusCode)
	}
	return out.Frames, nil
}

// CheckHealth probes <inference url>/health.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote detector unhealthy: %d", resp.StatusCode)
	}
	return nil
}

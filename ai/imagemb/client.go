// Copyright 2025 Vinolog Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package imagemb is a client for the image embedding service, a plain HTTP
// endpoint that fetches a label photograph and returns its vector.
package imagemb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vinolog/vinolog/ai"
	"github.com/vinolog/vinolog/core"
)

var _ ai.ImageEmbedder = (*Client)(nil)

// Client implements ai.ImageEmbedder against the embedding service's
// /embed/image endpoint.
type Client struct {
	host       string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the image embedding service at host.
func NewClient(host, model string) *Client {
	return &Client{
		host:  host,
		model: model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default().With("component", "imagemb-client"),
	}
}

type embedRequest struct {
	Model    string `json:"model"`
	ImageURL string `json:"image_url"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// EmbedImage fetches the image at imageURL through the embedding service and
// returns its vector. A 404 or 410 from the service means the image is no
// longer retrievable and is reported as core.ErrResourceVanished.
func (c *Client) EmbedImage(ctx context.Context, imageURL string) ([]float32, error) {
	payload, err := json.Marshal(embedRequest{
		Model:    c.model,
		ImageURL: imageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.host+"/embed/image", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("image embedding request failed", "url", imageURL, "err", err)
		return nil, fmt.Errorf("calling image embedding service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading embed response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return nil, fmt.Errorf("%w: image %s", core.ErrResourceVanished, imageURL)
	default:
		c.logger.Error("image embedding service error",
			"status", resp.StatusCode,
			"body", string(body))
		return nil, fmt.Errorf("image embedding service returned status %d", resp.StatusCode)
	}

	var result embedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedResponse, err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("image embedding service: %s", result.Error)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", core.ErrMalformedResponse)
	}

	c.logger.Debug("embedded image", "url", imageURL, "dim", len(result.Embedding))
	return result.Embedding, nil
}

// Package blob uploads binary files to the external blob-storage
// collaborator and returns public download URLs. Roster spreadsheets and
// facility placement photos both land here.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the blob service's HTTP API.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a blob client for the given endpoint.
func NewClient(baseURL, apiKey string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetAuthToken(apiKey)
	return &Client{httpClient: httpClient}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload stores the file under the given path and returns its public URL.
func (c *Client) Upload(ctx context.Context, path, filename string, contents []byte) (string, error) {
	var result uploadResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(contents)).
		SetFormData(map[string]string{"path": path}).
		SetResult(&result).
		Post("/v1/files")
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("blob service rejected %s: %s", filename, resp.Status())
	}
	if result.URL == "" {
		return "", fmt.Errorf("blob service returned no url for %s", filename)
	}
	return result.URL, nil
}

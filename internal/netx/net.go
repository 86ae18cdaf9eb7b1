package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Download issues a GET and returns the body with its content type.
// The caller closes the body. fallbackType is used when the server
// sends no Content-Type.
func Download(ctx context.Context, client *http.Client, url, fallbackType string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, "", fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = fallbackType
	}
	return resp.Body, contentType, nil
}

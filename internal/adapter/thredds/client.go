// Package thredds downloads Daymet files from the ORNL DAAC THREDDS
// fileServer endpoint.
package thredds

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/daymet-etl/internal/domain"
)

// partSuffix marks a download in progress. Only completed files carry
// their final name.
const partSuffix = ".part"

// Client fetches remote files over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a client whose requests time out after timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "daymet-etl",
		logger:    logger,
	}
}

// Download streams url into dest and returns the number of bytes written.
// The body is written to dest+".part" and renamed on success, so dest
// either does not exist or is complete. A 404 returns
// domain.ErrRemoteNotFound.
func (c *Client) Download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, fmt.Errorf("%w: %s", domain.ErrRemoteNotFound, url)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("thredds error: status %d: %s", resp.StatusCode, body)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create directory for %s: %w", dest, err)
	}

	tmp := dest + partSuffix
	n, err := writeFile(tmp, resp.Body)
	if err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("download %s: short body: got %d of %d bytes", url, n, resp.ContentLength)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("rename %s: %w", tmp, err)
	}

	c.logger.Debug("download complete", "url", url, "path", dest, "bytes", n)
	return n, nil
}

func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

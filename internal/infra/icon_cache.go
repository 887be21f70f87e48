package infra

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// DefaultIconSize is the edge length of cached badge icons in pixels
const DefaultIconSize = 64

// IconCache downloads collection icons once and keeps a resized PNG copy.
type IconCache struct {
	dir    string
	size   int
	client *http.Client
}

// NewIconCache creates the cache directory. size <= 0 selects DefaultIconSize.
func NewIconCache(dir string, size int) (*IconCache, error) {
	if size <= 0 {
		size = DefaultIconSize
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create icon directory: %w", err)
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &IconCache{
		dir:  dir,
		size: size,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Path returns where the icon for name is (or would be) stored.
func (c *IconCache) Path(name string) string {
	return filepath.Join(c.dir, strings.ToLower(sanitizeName(name))+".png")
}

// Fetch downloads url as name unless it is already cached and returns the
// local path. Images are resized to size x size.
func (c *IconCache) Fetch(ctx context.Context, name, url string) (string, error) {
	if sanitizeName(name) == "" {
		return "", fmt.Errorf("invalid icon name: %q", name)
	}
	filePath := c.Path(name)

	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Cache hit
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	src, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// High-quality Lanczos filter
	resized := imaging.Resize(src, c.size, c.size, imaging.Lanczos)
	if err := imaging.Save(resized, filePath); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	return filePath, nil
}

// sanitizeName keeps ASCII letters, digits, '-' and '_' to prevent path traversal.
func sanitizeName(name string) string {
	res := make([]rune, 0, len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			res = append(res, r)
		}
	}
	return string(res)
}

package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

const maxManifestBytes = 4 << 20

type HTTPSource struct {
	client *http.Client
	url    string
}

func NewHTTPSource(client *http.Client, manifestURL string) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{client: client, url: manifestURL}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build manifest request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch manifest: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// FileSource re-reads the manifest from disk on every fetch.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(ctx context.Context) ([]Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", s.path, err)
	}
	return ParseManifest(data)
}

type ObjectReader interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// ObjectSource reads the manifest from S3-compatible storage.
type ObjectSource struct {
	objects ObjectReader
	key     string
}

func NewObjectSource(objects ObjectReader, key string) *ObjectSource {
	return &ObjectSource{objects: objects, key: key}
}

func (s *ObjectSource) Fetch(ctx context.Context) ([]Video, error) {
	data, err := s.objects.GetObject(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest object: %w", err)
	}
	return ParseManifest(data)
}

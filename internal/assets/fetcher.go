// Package assets downloads the model package's content-addressed chunks at
// build time so the service can run without reaching the content server.
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// Chunk is a content-addressed fragment of a model resource.
type Chunk struct {
	Hash string `json:"hash"`
}

// Resource is one logical model file described by the manifest.
type Resource struct {
	Chunks []Chunk `json:"chunks"`
}

// Manifest maps logical resource paths to their constituent chunks.
type Manifest map[string]Resource

// Config locates the model package on the content server and the local
// destination directory.
type Config struct {
	Package string
	Version string
	BaseURL string
	Dir     string
}

// Stats summarizes one fetch run.
type Stats struct {
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
}

// Fetcher resolves the manifest and mirrors missing chunks locally.
type Fetcher struct {
	cfg      Config
	client   *http.Client
	strategy retry.Strategy
}

func New(cfg Config, strategy retry.Strategy) *Fetcher {
	return &Fetcher{
		cfg:      cfg,
		client:   &http.Client{Timeout: 2 * time.Minute},
		strategy: strategy,
	}
}

// packageURL builds a content URL under the package's version root.
func (f *Fetcher) packageURL(parts ...string) string {
	url := f.cfg.BaseURL + "/" + f.cfg.Package + "/" + f.cfg.Version
	for _, p := range parts {
		url += "/" + p
	}
	return url
}

// FetchManifest downloads and parses the resource manifest. Any failure
// here is fatal to the run.
func (f *Fetcher) FetchManifest(ctx context.Context) (Manifest, error) {
	url := f.packageURL("resources.json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build manifest request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch manifest: unexpected status %s", resp.Status)
	}

	var m Manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	return m, nil
}

// Fetch mirrors every chunk the manifest references. Chunks already present
// locally are skipped; a failed chunk is logged and counted but does not
// abort the run.
func (f *Fetcher) Fetch(ctx context.Context) (Stats, error) {
	var stats Stats

	manifest, err := f.FetchManifest(ctx)
	if err != nil {
		return stats, err
	}

	if err := os.MkdirAll(f.cfg.Dir, 0o755); err != nil {
		return stats, fmt.Errorf("create assets dir: %w", err)
	}

	for _, hash := range chunkUnion(manifest) {
		dest := filepath.Join(f.cfg.Dir, hash)

		if _, err := os.Stat(dest); err == nil {
			stats.Skipped++
			continue
		}

		n, err := f.fetchChunk(ctx, hash, dest)
		if err != nil {
			zlog.Logger.Err(err).Str("chunk", hash).Msg("failed to fetch chunk")
			stats.Failed++
			continue
		}

		stats.Downloaded++
		stats.Bytes += n
	}

	return stats, nil
}

// chunkUnion collects the distinct chunk hashes across all resources, in a
// stable order.
func chunkUnion(m Manifest) []string {
	seen := make(map[string]struct{})
	for _, res := range m {
		for _, c := range res.Chunks {
			seen[c.Hash] = struct{}{}
		}
	}

	hashes := make([]string, 0, len(seen))
	for h := range seen {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	return hashes
}

// fetchChunk downloads one chunk with retries and persists it atomically.
func (f *Fetcher) fetchChunk(ctx context.Context, hash, dest string) (int64, error) {
	var written int64

	err := retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.packageURL("chunks", hash), nil)
		if err != nil {
			return err
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %s", resp.Status)
		}

		tmp, err := os.CreateTemp(filepath.Dir(dest), "."+hash+".*")
		if err != nil {
			return err
		}

		written, err = io.Copy(tmp, resp.Body)
		if closeErr := tmp.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(tmp.Name())
			return err
		}

		if err := os.Rename(tmp.Name(), dest); err != nil {
			os.Remove(tmp.Name())
			return err
		}

		return nil
	}, f.strategy)

	if err != nil {
		return 0, err
	}

	return written, nil
}

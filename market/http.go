package market

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/etnz/folio/date"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// diskCache is an http.RoundTripper keeping successful responses on disk.
// Entries expire with the period they were fetched in.
type diskCache struct {
	base   http.RoundTripper
	dir    string
	period date.Period
	log    zerolog.Logger
}

func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	// the key changes with the period, so yesterday's entries are never read
	rangeID := c.period.Range(date.Today()).Identifier()
	key := fmt.Sprintf("%s %s %s", rangeID, req.Method, req.URL.String())
	key = fmt.Sprintf("%s-%x", c.period, sha1.Sum([]byte(key)))

	if resp, err := c.get(key, req); err == nil {
		c.log.Debug().Str("url", req.URL.Path).Msg("cache hit")
		return resp, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).
		Int("status", resp.StatusCode).Msg("fetched")
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		c.log.Warn().Err(err).Msg("cache write failed, ignored")
	}
	return resp, nil
}

func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}

// throttle is an http.RoundTripper waiting on a rate limiter before each call.
type throttle struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *throttle) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// ClientOptions configure NewClient.
type ClientOptions struct {
	// CacheDir holds the cached responses, none if empty.
	CacheDir string
	// RequestsPerSecond limits outgoing calls, unlimited if zero.
	RequestsPerSecond float64
	Logger            zerolog.Logger
}

// NewClient returns an http.Client for the providers: calls are throttled,
// then answered from a daily disk cache when possible.
func NewClient(opts ClientOptions) *http.Client {
	var rt http.RoundTripper = http.DefaultTransport
	if opts.RequestsPerSecond > 0 {
		burst := max(1, int(opts.RequestsPerSecond))
		rt = &throttle{base: rt, limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)}
	}
	if opts.CacheDir != "" {
		rt = &diskCache{base: rt, dir: opts.CacheDir, period: date.Daily, log: opts.Logger}
	}
	return &http.Client{Transport: rt}
}

// DefaultCacheDir is where NewClient callers keep responses by default.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "folio")
	}
	return filepath.Join(os.TempDir(), "folio")
}

// jwget performs a GET request and decodes the JSON response into data.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}

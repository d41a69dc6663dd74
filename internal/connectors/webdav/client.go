package webdav

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// maxBodySize bounds the size of a fetched document.
const maxBodySize = 64 << 20

// Client performs WebDAV requests relative to the watched root.
type Client struct {
	http     *http.Client
	base     url.URL
	rootPath string
	user     string
	password string
	limiter  *rate.Limiter
}

// NewClient creates a WebDAV client. A bearer token is sent through an
// oauth2 transport; otherwise basic auth is used when a user is set.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("webdav: parsing url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	user := cfg.User
	var hc *http.Client
	if cfg.Token != "" {
		user = ""
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		hc = oauth2.NewClient(ctx, ts)
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = timeout

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	rootPath := strings.TrimSuffix(base.Path, "/")
	if root := strings.Trim(cfg.Root, "/"); root != "" {
		rootPath += "/" + root
	}

	return &Client{
		http:     hc,
		base:     url.URL{Scheme: base.Scheme, Host: base.Host, User: base.User},
		rootPath: rootPath,
		user:     user,
		password: cfg.Password,
		limiter:  rate.NewLimiter(limit, 1),
	}, nil
}

// URL returns the URL of a path relative to the root. Folders end with "/".
func (c *Client) URL(rel string, folder bool) string {
	u := c.base
	u.Path = c.rootPath + "/"
	if rel != "" {
		u.Path += rel
		if folder {
			u.Path += "/"
		}
	}
	return u.String()
}

// Propfind lists a folder and its direct children. The folder itself is
// included in the result with its own relative path.
func (c *Client) Propfind(ctx context.Context, folder string) ([]Entry, error) {
	target := c.URL(folder, true)
	req, err := http.NewRequestWithContext(ctx, "PROPFIND", target, strings.NewReader(propfindBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Depth", "1")
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMultiStatus {
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, URL: target}
	}

	resources, err := parseMultistatus(resp.Body)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(resources))
	for _, res := range resources {
		p, err := hrefPath(res.Href)
		if err != nil {
			return nil, err
		}
		rel, ok := relativePath(c.rootPath, p)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Path:         rel,
			IsFolder:     res.IsCollection,
			ETag:         res.ETag,
			LastModified: res.LastModified,
			Size:         res.Size,
		})
	}
	return entries, nil
}

// Get retrieves the content of a file.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	target := c.URL(path, false)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, URL: target}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("webdav: reading %s: %w", target, err)
	}
	return data, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	return c.http.Do(req)
}

// Entry is one child reported by Propfind.
type Entry struct {
	Path         string
	IsFolder     bool
	ETag         string
	LastModified string
	Size         int64
}

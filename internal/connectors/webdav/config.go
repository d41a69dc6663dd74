package webdav

import (
	"errors"
	"net/url"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond is the default request throttle.
	DefaultRequestsPerSecond = 10
)

// Config holds the connection settings of a WebDAV share.
type Config struct {
	// URL is the base URL of the share, e.g. https://host/remote.php/dav/files/user.
	URL string

	// Root is the watched folder below URL.
	Root string

	// User and Password enable basic auth.
	User     string
	Password string

	// Token enables bearer auth and takes precedence over basic auth.
	Token string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// RequestsPerSecond throttles requests. Zero or less disables throttling.
	RequestsPerSecond float64

	// StableFolderTokens declares that the server changes a folder's ETag
	// whenever anything below it changes.
	StableFolderTokens bool
}

// Validate checks that the config can be used.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("webdav: url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("webdav: url must be http or https")
	}
	return nil
}

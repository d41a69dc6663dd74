package webdav

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMultistatus = `<?xml version="1.0"?>
<d:multistatus xmlns:d="DAV:" xmlns:oc="http://owncloud.org/ns">
  <d:response>
    <d:href>/dav/EMPI-RF/</d:href>
    <d:propstat>
      <d:prop>
        <d:resourcetype><d:collection/></d:resourcetype>
        <d:getetag>"root"</d:getetag>
        <d:getlastmodified>Mon, 01 Jan 2024 00:00:00 GMT</d:getlastmodified>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
  <d:response>
    <d:href>/dav/EMPI-RF/My%20Form.json</d:href>
    <d:propstat>
      <d:prop>
        <d:resourcetype/>
        <d:getetag>"e1"</d:getetag>
        <d:getlastmodified>Tue, 02 Jan 2024 00:00:00 GMT</d:getlastmodified>
        <d:getcontentlength>42</d:getcontentlength>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
    <d:propstat>
      <d:prop><oc:size/></d:prop>
      <d:status>HTTP/1.1 404 Not Found</d:status>
    </d:propstat>
  </d:response>
  <d:response>
    <d:href>http://example.com/dav/EMPI-RF/sub/</d:href>
    <d:propstat>
      <d:prop>
        <d:resourcetype><d:collection/></d:resourcetype>
        <d:getetag>"f1"</d:getetag>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
</d:multistatus>`

func TestParseMultistatus(t *testing.T) {
	resources, err := parseMultistatus(strings.NewReader(sampleMultistatus))
	require.NoError(t, err)
	require.Len(t, resources, 3)

	assert.True(t, resources[0].IsCollection)
	assert.Equal(t, `"root"`, resources[0].ETag)

	file := resources[1]
	assert.False(t, file.IsCollection)
	assert.Equal(t, "/dav/EMPI-RF/My%20Form.json", file.Href)
	assert.Equal(t, `"e1"`, file.ETag)
	assert.Equal(t, "Tue, 02 Jan 2024 00:00:00 GMT", file.LastModified)
	assert.Equal(t, int64(42), file.Size)

	assert.True(t, resources[2].IsCollection)
	assert.Empty(t, resources[2].LastModified)
}

func TestParseMultistatus_Invalid(t *testing.T) {
	_, err := parseMultistatus(strings.NewReader("<html>nope"))
	assert.Error(t, err)
}

func TestHrefPath(t *testing.T) {
	tests := []struct {
		href     string
		expected string
	}{
		{"/dav/EMPI-RF/My%20Form.json", "/dav/EMPI-RF/My Form.json"},
		{"http://example.com/dav/EMPI-RF/sub/", "/dav/EMPI-RF/sub/"},
		{"  /dav/a.json\n", "/dav/a.json"},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got, err := hrefPath(tt.href)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRelativePath(t *testing.T) {
	tests := []struct {
		name     string
		root     string
		href     string
		expected string
		ok       bool
	}{
		{"root itself", "/dav/EMPI-RF", "/dav/EMPI-RF/", "", true},
		{"direct child", "/dav/EMPI-RF", "/dav/EMPI-RF/a.json", "a.json", true},
		{"nested folder", "/dav/EMPI-RF/", "/dav/EMPI-RF/x/y/", "x/y", true},
		{"outside root", "/dav/EMPI-RF", "/dav/other/a.json", "", false},
		{"sibling prefix", "/dav/EMPI-RF", "/dav/EMPI-RF2/a.json", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := relativePath(tt.root, tt.href)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

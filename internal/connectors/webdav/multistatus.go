package webdav

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// propfindBody requests the properties needed for change detection.
const propfindBody = `<?xml version="1.0" encoding="utf-8"?>
<d:propfind xmlns:d="DAV:">
  <d:prop>
    <d:resourcetype/>
    <d:getetag/>
    <d:getlastmodified/>
    <d:getcontentlength/>
  </d:prop>
</d:propfind>`

type multistatus struct {
	XMLName   xml.Name   `xml:"DAV: multistatus"`
	Responses []response `xml:"DAV: response"`
}

type response struct {
	Href      string     `xml:"DAV: href"`
	Propstats []propstat `xml:"DAV: propstat"`
}

type propstat struct {
	Prop   prop   `xml:"DAV: prop"`
	Status string `xml:"DAV: status"`
}

type prop struct {
	ResourceType  resourceType `xml:"DAV: resourcetype"`
	ETag          string       `xml:"DAV: getetag"`
	LastModified  string       `xml:"DAV: getlastmodified"`
	ContentLength string       `xml:"DAV: getcontentlength"`
}

type resourceType struct {
	Collection *struct{} `xml:"DAV: collection"`
}

// resource is one parsed multistatus response.
type resource struct {
	Href         string
	IsCollection bool
	ETag         string
	LastModified string
	Size         int64
}

// parseMultistatus decodes a 207 Multi-Status body. Properties from
// propstat blocks with a non-200 status are ignored.
func parseMultistatus(r io.Reader) ([]resource, error) {
	var ms multistatus
	if err := xml.NewDecoder(r).Decode(&ms); err != nil {
		return nil, fmt.Errorf("webdav: decoding multistatus: %w", err)
	}

	resources := make([]resource, 0, len(ms.Responses))
	for _, resp := range ms.Responses {
		res := resource{Href: resp.Href}
		for _, ps := range resp.Propstats {
			if ps.Status != "" && !strings.Contains(ps.Status, " 200") {
				continue
			}
			if ps.Prop.ResourceType.Collection != nil {
				res.IsCollection = true
			}
			if ps.Prop.ETag != "" {
				res.ETag = ps.Prop.ETag
			}
			if ps.Prop.LastModified != "" {
				res.LastModified = ps.Prop.LastModified
			}
			if n, err := strconv.ParseInt(strings.TrimSpace(ps.Prop.ContentLength), 10, 64); err == nil {
				res.Size = n
			}
		}
		resources = append(resources, res)
	}
	return resources, nil
}

// hrefPath returns the unescaped path of an href, which may be an absolute
// URL or an absolute path.
func hrefPath(href string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("webdav: invalid href %q: %w", href, err)
	}
	return u.Path, nil
}

// relativePath makes an href relative to the root path. Both are unescaped
// paths. It reports false when the href lies outside the root.
func relativePath(rootPath, href string) (string, bool) {
	root := strings.TrimSuffix(rootPath, "/")
	p := strings.TrimSuffix(href, "/")
	if p == root {
		return "", true
	}
	if !strings.HasPrefix(p, root+"/") {
		return "", false
	}
	return strings.TrimPrefix(p, root+"/"), true
}

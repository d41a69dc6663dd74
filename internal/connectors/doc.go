// Package connectors holds the remote listers mdingest can watch.
// Each subpackage implements driven.RemoteLister for one kind of source:
// webdav for WebDAV shares and filesystem for local directories.
package connectors

// Package webdav lists and fetches JSON documents from a WebDAV share.
//
// Folders are walked breadth first with one PROPFIND (Depth: 1) request per
// folder. Entry paths are reported relative to the watched root using
// forward slashes, with the root itself being "".
package webdav

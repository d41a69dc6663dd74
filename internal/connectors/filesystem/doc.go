// Package filesystem lists JSON documents from a local directory tree and
// signals changes to it through fsnotify.
package filesystem

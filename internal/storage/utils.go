package storage

import (
	"path"
	"strings"
)

// GetContentType determines the MIME content type based on file extension
func GetContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".js":
		return "application/javascript"
	case ".css":
		return "text/css"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// CacheControl returns the cache header for a published file. Data snapshots
// change every interval and must not be cached by the browser.
func CacheControl(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "no-cache, max-age=0"
	}
	return "public, max-age=300"
}

// cleanKey turns a relative path into an object key
func cleanKey(p string) string {
	k := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(k, "/")
}

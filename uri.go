package shellsense

import (
	"net/url"
	"path/filepath"
	"strings"
)

const fileScheme = "file://"

// PathToURI converts a file path to a percent-encoded file:// URI, the form
// editors send. Relative paths are made absolute against the working
// directory. A file URI is accepted too and comes back normalized.
func PathToURI(path string) string {
	if strings.HasPrefix(path, fileScheme) {
		path = URIToPath(path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		// C:/x -> /C:/x
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// URIToPath converts a file:// URI to a local path, decoding percent
// escapes. Anything that is not a file URI is returned unchanged.
func URIToPath(uri string) string {
	if !strings.HasPrefix(uri, fileScheme) {
		return uri
	}
	p := strings.TrimPrefix(uri, fileScheme)
	if u, err := url.Parse(uri); err == nil {
		p = u.Path
	}
	if strings.HasPrefix(p, "/") && filepath.VolumeName(filepath.FromSlash(p[1:])) != "" {
		// /C:/x -> C:/x
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

// NormalizeURI rewrites a file URI into the encoding PathToURI produces, so
// the same file reached through differently escaped URIs maps to one
// document. Other URIs are returned unchanged.
func NormalizeURI(uri string) string {
	if !strings.HasPrefix(uri, fileScheme) {
		return uri
	}
	return PathToURI(URIToPath(uri))
}

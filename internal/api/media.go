package api

import "strings"

// MediaURL maps a storage path to its stable display URL. It never touches the
// network.
func MediaURL(base, path string) string {
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/media/" + path
}

// Media binds MediaURL to base.
func Media(base string) func(string) string {
	return func(path string) string { return MediaURL(base, path) }
}

package common

import "strings"

// IsImageFormat reports whether the path or URL ends with a supported image extension.
// The check is case-insensitive so that "photo.JPG" is accepted as well.
func IsImageFormat(url string) bool {
	url = strings.ToLower(url)
	return strings.HasSuffix(url, ".jpg") ||
		strings.HasSuffix(url, ".jpeg") ||
		strings.HasSuffix(url, ".png") ||
		strings.HasSuffix(url, ".bmp") ||
		strings.HasSuffix(url, ".gif")
}

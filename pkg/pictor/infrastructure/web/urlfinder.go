package web

import "github.com/mvdan/xurls"

type URLFinder struct{}

func NewURLFinder() *URLFinder {
	return &URLFinder{}
}

// FindURLs uses the strict matcher: for image input we only care about things which are
// unambiguously URLs, everything else is treated as a local file path.
func (u *URLFinder) FindURLs(str string) []string {
	return xurls.Strict.FindAllString(str, -1)
}

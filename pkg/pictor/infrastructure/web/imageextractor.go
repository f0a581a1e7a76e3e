package web

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pictorlab.dev/pictor/pkg/common"
	"pictorlab.dev/pictor/pkg/pictor/domain"
)

var errNoImageOnPage = errors.New("no image found on the page")

// PageImageExtractor finds the main image of an HTML page so that pasting an article link still
// yields something recognizable. Candidates are tried in decreasing order of intent: og:image,
// twitter:image, link rel=image_src, finally the first <img> on the page.
type PageImageExtractor struct {
	timeout time.Duration
}

func NewPageImageExtractor(config *common.Config) *PageImageExtractor {
	return &PageImageExtractor{
		timeout: config.GetDurationOrDefault(domain.ConfigKeyDownloadTimeout, time.Second*30),
	}
}

func (p *PageImageExtractor) ExtractMainImageURL(pageURL string) (string, error) {
	page, err := common.ReadAllFromURL(pageURL, p.timeout)
	if err != nil {
		return "", err
	}
	document, err := goquery.NewDocumentFromReader(strings.NewReader(string(page)))
	if err != nil {
		return "", err
	}
	candidates := []func() (string, bool){
		func() (string, bool) { return document.Find(`meta[property="og:image"]`).Attr("content") },
		func() (string, bool) { return document.Find(`meta[name="twitter:image"]`).Attr("content") },
		func() (string, bool) { return document.Find(`link[rel="image_src"]`).Attr("href") },
		func() (string, bool) { return document.Find("img").First().Attr("src") },
	}
	for _, candidate := range candidates {
		imageURL, ok := candidate()
		imageURL = strings.TrimSpace(imageURL)
		if ok && imageURL != "" {
			return resolveURL(pageURL, imageURL)
		}
	}
	return "", errNoImageOnPage
}

// resolveURL makes relative image references absolute against the page URL.
func resolveURL(pageURL, imageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	reference, err := url.Parse(imageURL)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(reference).String(), nil
}

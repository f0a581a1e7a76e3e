package rss

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"

	"pictorlab.dev/pictor/pkg/common"
)

// HeadlineProvider pulls item titles from an RSS feed. Used as a source of prompt inspiration.
type HeadlineProvider struct {
	url     string
	timeout time.Duration
}

func NewHeadlineProvider(url string, timeout time.Duration) *HeadlineProvider {
	return &HeadlineProvider{
		url:     url,
		timeout: timeout,
	}
}

func (h *HeadlineProvider) GetHeadlines(maxCount int) ([]string, error) {
	data, err := common.ReadAllFromURL(h.url, h.timeout)
	if err != nil {
		return nil, err
	}
	parser := rss.Parser{}
	feed, err := parser.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}
	var result []string
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		result = append(result, title)
		if len(result) == maxCount {
			break
		}
	}
	return result, nil
}

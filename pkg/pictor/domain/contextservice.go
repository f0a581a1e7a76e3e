package domain

import (
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"pictorlab.dev/pictor/pkg/common"
)

// URLFinder detects URLs in free-form user input.
type URLFinder interface {
	FindURLs(str string) []string
}

// PageImageExtractor finds the main image of an HTML page (og:image and friends).
type PageImageExtractor interface {
	ExtractMainImageURL(pageURL string) (string, error)
}

// TopicProvider fetches a short encyclopedic summary of a subject.
type TopicProvider interface {
	GetSummary(subject string, maxSentenceCount int) (string, error)
}

// HeadlineProvider fetches current headlines used as prompt inspiration.
type HeadlineProvider interface {
	GetHeadlines(maxCount int) ([]string, error)
}

// ContextService feeds the two text fields the dispatcher owns (the prompt draft and the
// description) from sources other than typing: remote images, topic summaries, headlines.
// It adds no lifecycle semantics of its own.
type ContextService struct {
	urlFinder        URLFinder
	imageExtractor   PageImageExtractor
	topicProvider    TopicProvider
	headlineProvider HeadlineProvider
	scratch          ScratchStorage
	downloadTimeout  time.Duration
	sentenceCount    int
	logger           common.Logger
}

func NewContextService(
	urlFinder URLFinder,
	imageExtractor PageImageExtractor,
	topicProvider TopicProvider,
	headlineProvider HeadlineProvider,
	scratch ScratchStorage,
	config *common.Config,
	logger common.Logger,
) *ContextService {
	return &ContextService{
		urlFinder:        urlFinder,
		imageExtractor:   imageExtractor,
		topicProvider:    topicProvider,
		headlineProvider: headlineProvider,
		scratch:          scratch,
		downloadTimeout:  config.GetDurationOrDefault(ConfigKeyDownloadTimeout, time.Second*30),
		sentenceCount:    config.GetIntOrDefault(ConfigKeyTopicSentenceCount, 3),
		logger:           logger,
	}
}

// ResolveImagePath turns user input (a local path or a URL) into a local image file path usable
// for recognition. Direct image URLs are downloaded into the scratch directory; HTML pages go
// through the extractor first so that pasting an article link still yields its main image.
func (c *ContextService) ResolveImagePath(input string) (string, error) {
	input = strings.TrimSpace(input)
	urls := c.urlFinder.FindURLs(input)
	if len(urls) == 0 {
		_, err := os.Stat(input)
		if err != nil {
			return "", fmt.Errorf("image file not found: %w", err)
		}
		return input, nil
	}
	imageURL := urls[0]
	if !common.IsImageFormat(imageURL) {
		extractedURL, err := c.imageExtractor.ExtractMainImageURL(imageURL)
		if err != nil {
			return "", err
		}
		imageURL = extractedURL
	}
	return c.download(imageURL)
}

// TopicSummary returns a short summary of the subject, suitable for SetDescription.
func (c *ContextService) TopicSummary(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("no subject given")
	}
	summary, err := c.topicProvider.GetSummary(subject, c.sentenceCount)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

// InspirePrompt returns a prompt seed built from a random current headline.
func (c *ContextService) InspirePrompt() (string, error) {
	headlines, err := c.headlineProvider.GetHeadlines(10)
	if err != nil {
		return "", err
	}
	if len(headlines) == 0 {
		return "", fmt.Errorf("no headlines found in the feed")
	}
	return "An illustration of: " + headlines[rand.Intn(len(headlines))], nil
}

func (c *ContextService) download(imageURL string) (string, error) {
	data, err := common.ReadAllFromURL(imageURL, c.downloadTimeout)
	if err != nil {
		return "", fmt.Errorf("failed to download the image: %w", err)
	}
	fileName := "download-" + uuid.NewString() + downloadExtension(imageURL)
	localPath, err := c.scratch.WriteFile(fileName, data)
	if err != nil {
		return "", err
	}
	c.logger.Log("downloaded \"" + imageURL + "\" to \"" + localPath + "\"\n")
	return localPath, nil
}

// downloadExtension preserves the remote extension when it's a known image format so that MIME
// inference on the local copy matches the original; anything else becomes .png.
func downloadExtension(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err == nil && common.IsImageFormat(parsed.Path) {
		return strings.ToLower(path.Ext(parsed.Path))
	}
	return ".png"
}

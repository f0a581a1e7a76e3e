package wiki

import (
	"sync"

	gowiki "github.com/trietmn/go-wiki"
)

// TopicProvider fetches short Wikipedia summaries. Summaries are cached per subject for the
// lifetime of the process: the same topic requested twice shouldn't hit the network twice.
type TopicProvider struct {
	mutex        sync.Mutex
	summaryCache map[string]string
}

func NewTopicProvider() *TopicProvider {
	return &TopicProvider{
		summaryCache: make(map[string]string),
	}
}

func (t *TopicProvider) GetSummary(subject string, maxSentenceCount int) (string, error) {
	cachedSummary, ok := t.summaryInCache(subject)
	if ok {
		return cachedSummary, nil
	}
	summary, err := gowiki.Summary(subject, maxSentenceCount, -1, false, true)
	if err != nil {
		return "", err
	}
	t.cacheSummary(subject, summary)
	return summary, nil
}

func (t *TopicProvider) summaryInCache(subject string) (string, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	summary, ok := t.summaryCache[subject]
	return summary, ok
}

func (t *TopicProvider) cacheSummary(subject, summary string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.summaryCache[subject] = summary
}

package common

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// ReadAllFromURL reads all content from the URL. `timeout` covers the whole request, including
// reading the body, so a slow or infinitely streaming page cannot stall the caller forever.
func ReadAllFromURL(url string, timeout time.Duration) ([]byte, error) {
	client := &http.Client{Timeout: timeout}
	res, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code %d for \"%s\"", res.StatusCode, url)
	}
	content, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	return content, nil
}

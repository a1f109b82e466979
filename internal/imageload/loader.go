// Package imageload provides asynchronous image fetching and decoding.
// Decodes happen on background goroutines; completion is marshalled back to
// the host's event dispatch path through the dispatcher supplied at
// construction, so consumers never observe a result off-thread.
package imageload

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Result is the outcome of a single load request.
type Result struct {
	ID    string
	Image image.Image
	Err   error
}

// Loader starts asynchronous loads. Implementations must invoke deliver on
// the host's event dispatch path, exactly once per request.
type Loader interface {
	Load(id, url string, deliver func(Result))
}

// FileLoader fetches images from local paths or http(s) URLs.
type FileLoader struct {
	client   *http.Client
	dispatch func(func())
}

// NewLoader creates a loader that marshals completions through dispatch.
func NewLoader(dispatch func(func())) *FileLoader {
	return &FileLoader{
		client:   &http.Client{Timeout: 30 * time.Second},
		dispatch: dispatch,
	}
}

// Load fetches and decodes the image in a background goroutine and delivers
// the result through the dispatcher.
func (l *FileLoader) Load(id, url string, deliver func(Result)) {
	go func() {
		img, err := l.fetchDecode(url)
		l.dispatch(func() {
			deliver(Result{ID: id, Image: img, Err: err})
		})
	}()
}

func (l *FileLoader) fetchDecode(url string) (image.Image, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		resp, err := l.client.Get(url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch image: status %s", resp.Status)
		}
		img, _, err := image.Decode(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		return img, nil
	}

	file, err := os.Open(url)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

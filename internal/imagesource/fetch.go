// Package imagesource retrieves image bytes from a user-supplied URL.
package imagesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrFetchFailed covers any failure to retrieve the image from its URL.
// It is distinct from cache and provider errors so the UI can tell the
// user the problem is the link, not the service.
var ErrFetchFailed = errors.New("image fetch failed")

type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
	log        *logrus.Entry
}

func NewFetcher(logger *logrus.Logger, httpClient *http.Client, maxBytes int64) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		maxBytes:   maxBytes,
		log:        logger.WithField("component", "image_fetcher"),
	}
}

// Fetch downloads the image at rawURL, enforcing the size cap while reading
// so an oversized body never fully lands in memory.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid url %q", ErrFetchFailed, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.log.WithError(err).WithField("url", rawURL).Warn("Image fetch failed")
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d from %s", ErrFetchFailed, resp.StatusCode, u.Host)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%w: not an image (content-type %s)", ErrFetchFailed, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrFetchFailed, f.maxBytes)
	}

	return body, nil
}

package feeds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// DefaultFetchTimeout bounds a single feed download and parse.
const DefaultFetchTimeout = 10 * time.Second

// ErrTimeout is returned when a feed does not respond within the fetch
// timeout.
var ErrTimeout = errors.New("feed fetch timed out")

// Fetcher downloads and parses syndication feeds (RSS, Atom, JSON Feed).
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewFetcher creates a Fetcher whose requests carry a browser-like user agent
// and are cancelled after timeout. A non-positive timeout uses
// DefaultFetchTimeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		client: &http.Client{
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		timeout: timeout,
	}
}

// userAgentTransport wraps an http.RoundTripper to inject a custom User-Agent
// header on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	// Some publishers reject requests without a browser-like User-Agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	return t.base.RoundTrip(req)
}

// Fetch downloads the feed at feedURL and returns its items in feed order.
// A deadline hit is reported as ErrTimeout; any other transport, HTTP status
// or parse failure is returned wrapped.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %s", ErrTimeout, f.timeout, feedURL)
		}
		return nil, fmt.Errorf("parsing feed %q: %w", feedURL, err)
	}

	return itemsFromFeed(feed), nil
}

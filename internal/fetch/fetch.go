package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options enumerates the fetcher's construction-time knobs.
type Options struct {
	MinDelay   time.Duration // minimum spacing between requests to one host
	Timeout    time.Duration // per-request timeout
	MaxRetries int           // transient retries per Fetch call
	UserAgent  string
}

// Fetcher retrieves product pages and extracts current prices. Requests to
// the same host are serialized and paced by MinDelay; different hosts
// proceed independently.
type Fetcher struct {
	client   *http.Client
	registry *Registry
	opts     Options
	logger   *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	backoffBase time.Duration // doubled per retry
}

// New builds a Fetcher. A nil registry gets the generic extractor only.
func New(opts Options, registry *Registry, logger *zap.Logger) *Fetcher {
	if registry == nil {
		registry = NewRegistry()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Fetcher{
		client:      &http.Client{Timeout: opts.Timeout},
		registry:    registry,
		opts:        opts,
		logger:      logger,
		limiters:    make(map[string]*rate.Limiter),
		backoffBase: time.Second,
	}
}

// Fetch retrieves the page at rawURL and extracts its price. Transient
// failures are retried with exponential backoff up to MaxRetries; each
// attempt waits its turn on the per-host throttle.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Result {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return permanent(fmt.Errorf("malformed url %q", rawURL))
	}

	extractor := f.registry.Find(rawURL)
	limiter := f.hostLimiter(u.Host)

	var last Result
	for attempt := 0; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return transient(err)
		}

		last = f.attempt(ctx, rawURL, extractor)
		if last.Kind != KindTransient || attempt >= f.opts.MaxRetries {
			return last
		}

		backoff := f.backoffBase << attempt
		f.logger.Debug("transient fetch failure, backing off",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(last.Err))
		select {
		case <-ctx.Done():
			return transient(ctx.Err())
		case <-time.After(backoff):
		}
	}
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string, extractor Extractor) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return permanent(err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// handled below
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return transient(fmt.Errorf("status %d from %s", resp.StatusCode, rawURL))
	default:
		return permanent(fmt.Errorf("status %d from %s", resp.StatusCode, rawURL))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return transient(fmt.Errorf("reading body: %w", err))
	}

	price, ok := extractor.Extract(doc)
	if !ok {
		return notFound()
	}
	return priced(price)
}

// classifyTransportError sorts client errors into retryable and not.
// Timeouts and connection failures are transient; anything structurally
// wrong with the request is permanent.
func classifyTransportError(err error) Result {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if uerr.Timeout() {
			return transient(err)
		}
		var nerr net.Error
		if errors.As(uerr.Err, &nerr) {
			return transient(err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return transient(err)
	}
	return permanent(err)
}

func (f *Fetcher) hostLimiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		if f.opts.MinDelay > 0 {
			l = rate.NewLimiter(rate.Every(f.opts.MinDelay), 1)
		} else {
			l = rate.NewLimiter(rate.Inf, 1)
		}
		f.limiters[host] = l
	}
	return l
}

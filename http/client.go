package http

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"time"

	"github.com/fwojciec/mangadl"
	"golang.org/x/net/publicsuffix"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// DefaultUserAgent is sent with every request. Several sites refuse the Go
// default user agent.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:60.0) Gecko/20100101 Firefox/60.0"

type options struct {
	timeout   time.Duration
	userAgent string
	limiter   mangadl.DomainLimiter
	retries   []time.Duration
}

// Option configures a Fetcher or a Materializer.
type Option func(*options)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithLimiter rate limits requests per host.
func WithLimiter(l mangadl.DomainLimiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

func newOptions(opts []Option) options {
	o := options{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) client() *http.Client {
	// cookiejar.New only fails on a nil PublicSuffixList misuse, never here.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &http.Client{
		Timeout: o.timeout,
		Jar:     jar,
	}
}

func (o options) header() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", o.userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	return h
}

// get issues a GET request and returns the response of a 2xx reply.
// The caller must close the body.
func get(ctx context.Context, client *http.Client, limiter mangadl.DomainLimiter, header http.Header, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, mangadl.Errorf(mangadl.EINVALID, "invalid url %q", url)
	}
	req.Header = header.Clone()

	if limiter != nil {
		if err := limiter.Wait(ctx, req.URL.Host); err != nil {
			return nil, err
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, StatusError(resp.StatusCode, url)
	}
	return resp, nil
}

// StatusError maps a non-2xx status of url to an error. Missing pages are
// ENOTFOUND, which ends page probing; anything else is EUNAVAILABLE.
func StatusError(code int, url string) error {
	if code == http.StatusNotFound || code == http.StatusGone {
		return mangadl.Errorf(mangadl.ENOTFOUND, "HTTP %d for %s", code, url)
	}
	return mangadl.Errorf(mangadl.EUNAVAILABLE, "HTTP %d for %s", code, url)
}

// Host returns the host part of rawURL, or rawURL itself when it does not parse.
func Host(rawURL string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

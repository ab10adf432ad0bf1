// Package goquery implements manga sites as mangadl.Source values, scraping
// their HTML with goquery and the JavaScript variables embedded in it.
package goquery

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/mangadl"
)

type options struct {
	baseURL string
}

// Option configures a source.
type Option func(*options)

// WithBaseURL points a source at another origin, such as a mirror or a test server.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimSuffix(u, "/")
	}
}

func newOptions(defaultBase string, opts []Option) options {
	o := options{baseURL: defaultBase}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func parseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, mangadl.Errorf(mangadl.EINVALID, "failed to parse HTML: %v", err)
	}
	return doc, nil
}

// resolveURL resolves href against base. It returns "" for unparsable input.
func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

// matchHost reports whether rawURL is served by one of hosts.
// A leading "www." is ignored on both sides.
func matchHost(rawURL string, hosts ...string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	h := strings.TrimPrefix(u.Host, "www.")
	for _, host := range hosts {
		if h == strings.TrimPrefix(host, "www.") {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// scriptVar returns the literal assigned to a JavaScript variable, e.g. the
// value of `vm.Chapters = [...];`.
// A statement ending its line is preferred, so that a semicolon inside the
// literal does not cut it short.
func scriptVar(html, name string) (string, bool) {
	q := regexp.QuoteMeta(name)
	for _, pattern := range []string{`(?m)` + q + ` = (.*?);[ \t\r]*$`, q + ` = (.*?);`} {
		if m := regexp.MustCompile(pattern).FindStringSubmatch(html); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// decodeScriptVar unmarshals the JSON literal of a script variable into v.
func decodeScriptVar(html, name string, v any) (bool, error) {
	raw, ok := scriptVar(html, name)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, mangadl.Errorf(mangadl.EINVALID, "malformed %s: %v", name, err)
	}
	return true, nil
}

// pageTitle returns the document title without suffix.
func pageTitle(doc *goquery.Document, suffix string) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	return strings.TrimSpace(strings.TrimSuffix(title, suffix))
}

// lastSegment returns the final path segment of rawURL.
func lastSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := strings.TrimSuffix(u.Path, "/")
	return p[strings.LastIndex(p, "/")+1:]
}

package goquery

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/mangadl"
	"github.com/fwojciec/mangadl/bloom"
)

// BatotoURL is the default origin of Batoto.
const BatotoURL = "https://bato.to"

// maxSearchPages bounds paginated searches.
const maxSearchPages = 50

var _ mangadl.Source = (*Batoto)(nil)

// Batoto scrapes bato.to. Chapter pages list their images in the
// `const imgHttps` script variable.
type Batoto struct {
	fetcher mangadl.Fetcher
	baseURL string
}

// NewBatoto returns the Batoto source.
func NewBatoto(fetcher mangadl.Fetcher, opts ...Option) *Batoto {
	o := newOptions(BatotoURL, opts)
	return &Batoto{fetcher: fetcher, baseURL: o.baseURL}
}

func (s *Batoto) Name() string {
	return "batoto"
}

func (s *Batoto) Match(url string) bool {
	return matchHost(url, hostOf(s.baseURL), "bato.to", "battwo.com")
}

// Search walks result pages while the previous page links to the next one.
func (s *Batoto) Search(ctx context.Context, query string, limit int) ([]mangadl.SearchResult, error) {
	pageURL := func(n int) string {
		u := s.baseURL + "/search?word=" + url.QueryEscape(query)
		if n > 1 {
			u += fmt.Sprintf("&page=%d", n)
		}
		return u
	}
	return paginate(ctx, s.fetcher, pageURL, limit, func(doc *goquery.Document) []mangadl.SearchResult {
		var results []mangadl.SearchResult
		doc.Find("a.item-title").Each(func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok {
				return
			}
			results = append(results, mangadl.SearchResult{
				Title: strings.TrimSpace(sel.Text()),
				URL:   resolveURL(s.baseURL, href),
			})
		})
		return results
	})
}

// Resolve loads a series page. Chapters keep the names shown on the site.
func (s *Batoto) Resolve(ctx context.Context, url string) (*mangadl.Series, error) {
	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	series := &mangadl.Series{
		Website: s.Name(),
		Name:    pageTitle(doc, " Manga"),
		Slug:    lastSegment(url),
		URL:     url,
	}
	if series.Name == "" {
		return nil, mangadl.Errorf(mangadl.ENOTFOUND, "no series at %s", url)
	}
	if desc, err := doc.Find("div.limit-html").First().Html(); err == nil {
		series.Description = strings.TrimSpace(desc)
	}

	doc.Find("a.chapt").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		name := strings.TrimSpace(sel.Find("b").First().Text())
		if !ok || name == "" {
			return
		}
		series.Chapters = append(series.Chapters, &mangadl.Chapter{
			Website: s.Name(),
			Series:  series.Name,
			Name:    name,
			URL:     resolveURL(s.baseURL, href),
		})
	})
	return series, nil
}

// Parts reads the image list of the chapter page. Part IDs start at 000.
func (s *Batoto) Parts(ctx context.Context, ch *mangadl.Chapter) iter.Seq2[mangadl.Part, error] {
	return func(yield func(mangadl.Part, error) bool) {
		html, err := s.fetcher.Fetch(ctx, ch.URL)
		if err != nil {
			yield(mangadl.Part{}, err)
			return
		}

		var images []string
		found, err := decodeScriptVar(html, "const imgHttps", &images)
		if err != nil || !found {
			yield(mangadl.Part{}, mangadl.Errorf(mangadl.EUNAVAILABLE, "website cannot be reached"))
			return
		}

		for i, image := range images {
			if !yield(mangadl.Part{ID: mangadl.PartID(i), URL: image}, nil) {
				return
			}
		}
	}
}

// paginate collects search results from consecutive pages until limit is
// reached, a page adds nothing new or the page does not link to the next.
// Duplicate URLs across pages are dropped.
func paginate(ctx context.Context, fetcher mangadl.Fetcher, pageURL func(n int) string, limit int,
	extract func(*goquery.Document) []mangadl.SearchResult) ([]mangadl.SearchResult, error) {
	seen := bloom.NewFilter(1000, 1e-6)
	var results []mangadl.SearchResult

	for n := 1; n <= maxSearchPages; n++ {
		html, err := fetcher.Fetch(ctx, pageURL(n))
		if err != nil {
			if n > 1 && mangadl.ErrorCode(err) == mangadl.ENOTFOUND {
				break
			}
			return nil, err
		}
		doc, err := parseHTML(html)
		if err != nil {
			return nil, err
		}

		added := 0
		for _, r := range extract(doc) {
			if seen.TestAndAdd(r.URL) {
				continue
			}
			results = append(results, r)
			added++
			if limit > 0 && len(results) >= limit {
				return results, nil
			}
		}
		if added == 0 || !strings.Contains(html, fmt.Sprintf("page=%d", n+1)) {
			break
		}
	}
	return results, nil
}

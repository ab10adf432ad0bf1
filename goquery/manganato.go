package goquery

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/mangadl"
)

// ManganatoURL is the default origin of Manganato.
const ManganatoURL = "https://manganato.com"

var _ mangadl.Source = (*Manganato)(nil)

// Manganato scrapes manganato.com, whose chapters are served from
// chapmanganato hosts.
type Manganato struct {
	fetcher mangadl.Fetcher
	baseURL string
}

// NewManganato returns the Manganato source.
func NewManganato(fetcher mangadl.Fetcher, opts ...Option) *Manganato {
	o := newOptions(ManganatoURL, opts)
	return &Manganato{fetcher: fetcher, baseURL: o.baseURL}
}

func (s *Manganato) Name() string {
	return "manganato"
}

func (s *Manganato) Match(url string) bool {
	return matchHost(url, hostOf(s.baseURL), "manganato.com", "chapmanganato.to", "chapmanganato.com", "readmanganato.com")
}

func (s *Manganato) Search(ctx context.Context, query string, limit int) ([]mangadl.SearchResult, error) {
	word := strings.ReplaceAll(strings.TrimSpace(query), " ", "_")
	pageURL := func(n int) string {
		u := s.baseURL + "/search/story/" + url.PathEscape(word)
		if n > 1 {
			u += fmt.Sprintf("?page=%d", n)
		}
		return u
	}
	return paginate(ctx, s.fetcher, pageURL, limit, func(doc *goquery.Document) []mangadl.SearchResult {
		var results []mangadl.SearchResult
		doc.Find("a.item-img.bookmark_check").Each(func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			title, _ := sel.Attr("title")
			if !ok {
				return
			}
			results = append(results, mangadl.SearchResult{
				Title: strings.TrimSpace(title),
				URL:   resolveURL(s.baseURL, href),
			})
		})
		return results
	})
}

// Resolve loads a series page. Chapter names are decoded from chapter URLs.
func (s *Manganato) Resolve(ctx context.Context, url string) (*mangadl.Series, error) {
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
		Name:    pageTitle(doc, "Manga Online Free - Manganato"),
		Slug:    lastSegment(url),
		URL:     url,
	}
	if series.Name == "" {
		return nil, mangadl.Errorf(mangadl.ENOTFOUND, "no series at %s", url)
	}
	if desc, err := doc.Find("#panel-story-info-description").First().Html(); err == nil {
		series.Description = strings.TrimSpace(desc)
	}

	var decodeErr error
	doc.Find("a.chapter-name").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		chapterURL := resolveURL(url, href)
		name, err := DecodeManganatoChapter(chapterURL)
		if err != nil {
			decodeErr = err
			return false
		}
		series.Chapters = append(series.Chapters, &mangadl.Chapter{
			Website: s.Name(),
			Series:  series.Name,
			Name:    name,
			URL:     chapterURL,
			Slug:    series.Slug,
		})
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return series, nil
}

// Parts lists the reader images. Part IDs number the images in reader order;
// image file names are not reliable page numbers.
func (s *Manganato) Parts(ctx context.Context, ch *mangadl.Chapter) iter.Seq2[mangadl.Part, error] {
	return func(yield func(mangadl.Part, error) bool) {
		html, err := s.fetcher.Fetch(ctx, ch.URL)
		if err != nil {
			yield(mangadl.Part{}, err)
			return
		}
		doc, err := parseHTML(html)
		if err != nil {
			yield(mangadl.Part{}, err)
			return
		}

		var parts []mangadl.Part
		doc.Find("div.container-chapter-reader img").Each(func(_ int, sel *goquery.Selection) {
			src, ok := sel.Attr("src")
			if !ok || src == "" {
				return
			}
			parts = append(parts, mangadl.Part{ID: mangadl.PartID(len(parts) + 1), URL: resolveURL(ch.URL, src)})
		})

		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// DecodeManganatoChapter derives a sortable chapter name from a chapter URL:
// ".../chapter-12.5" becomes "0012.5".
func DecodeManganatoChapter(chapterURL string) (string, error) {
	seg := lastSegment(chapterURL)
	num := seg[strings.LastIndex(seg, "-")+1:]
	whole, frac, hasFrac := strings.Cut(num, ".")
	n, err := strconv.Atoi(whole)
	if err != nil {
		return "", mangadl.Errorf(mangadl.EINVALID, "cannot decode chapter from %q", chapterURL)
	}
	name := fmt.Sprintf("%04d", n)
	if hasFrac {
		name += "." + frac
	}
	return name, nil
}

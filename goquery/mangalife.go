package goquery

import (
	"context"
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/fwojciec/mangadl"
)

// MangalifeURL is the default origin of Mangalife.
const MangalifeURL = "https://www.manga4life.com"

var _ mangadl.Source = (*Mangalife)(nil)

// Mangalife scrapes manga4life.com. Its catalogue, chapter lists and reader
// state are JSON literals assigned to `vm.*` variables in the page scripts.
type Mangalife struct {
	fetcher mangadl.Fetcher
	baseURL string

	mu        sync.Mutex
	directory []directoryEntry
}

type directoryEntry struct {
	Slug  string `json:"i"`
	Title string `json:"s"`
}

type mangalifeChapter struct {
	Chapter   string `json:"Chapter"`
	Directory string `json:"Directory"`
}

// NewMangalife returns the Mangalife source.
func NewMangalife(fetcher mangadl.Fetcher, opts ...Option) *Mangalife {
	o := newOptions(MangalifeURL, opts)
	return &Mangalife{fetcher: fetcher, baseURL: o.baseURL}
}

func (s *Mangalife) Name() string {
	return "mangalife"
}

func (s *Mangalife) Match(url string) bool {
	return matchHost(url, hostOf(s.baseURL), "manga4life.com", "mangalife.us")
}

// Search matches query against the site directory, which is downloaded on
// first use. Words of the query may be separated by anything in a title.
func (s *Mangalife) Search(ctx context.Context, query string, limit int) ([]mangadl.SearchResult, error) {
	directory, err := s.loadDirectory(ctx)
	if err != nil {
		return nil, err
	}

	match := titleMatcher(query)
	var results []mangadl.SearchResult
	for _, e := range directory {
		if limit > 0 && len(results) >= limit {
			break
		}
		if match(strings.ToLower(e.Title)) {
			results = append(results, mangadl.SearchResult{
				Title: e.Title,
				URL:   s.baseURL + "/manga/" + e.Slug,
			})
		}
	}
	return results, nil
}

func (s *Mangalife) loadDirectory(ctx context.Context) ([]directoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.directory != nil {
		return s.directory, nil
	}

	html, err := s.fetcher.Fetch(ctx, s.baseURL+"/search/")
	if err != nil {
		return nil, fmt.Errorf("load mangalife directory: %w", err)
	}
	var directory []directoryEntry
	found, err := decodeScriptVar(html, "vm.Directory", &directory)
	if err != nil {
		return nil, err
	} else if !found {
		return nil, mangadl.Errorf(mangadl.EUNAVAILABLE, "website is protected")
	}
	slices.SortFunc(directory, func(a, b directoryEntry) int {
		return strings.Compare(a.Slug, b.Slug)
	})
	s.directory = directory
	return directory, nil
}

// titleMatcher turns query into a lowercase pattern where spaces match any
// run of characters. Queries that are not valid patterns match as substrings.
func titleMatcher(query string) func(title string) bool {
	q := strings.ToLower(query)
	re, err := regexp.Compile(strings.ReplaceAll(q, " ", ".*"))
	if err != nil {
		return func(title string) bool {
			return strings.Contains(title, q)
		}
	}
	return re.MatchString
}

// Resolve loads a series page. Chapters are named by the site's chapter code.
func (s *Mangalife) Resolve(ctx context.Context, url string) (*mangadl.Series, error) {
	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	var chapters []mangalifeChapter
	found, err := decodeScriptVar(html, "vm.Chapters", &chapters)
	if err != nil {
		return nil, err
	} else if !found {
		return nil, mangadl.Errorf(mangadl.EUNAVAILABLE, "website is protected")
	}

	series := &mangadl.Series{
		Website: s.Name(),
		Name:    pageTitle(doc, "| MangaLife"),
		Slug:    lastSegment(url),
		URL:     url,
	}
	if desc, err := doc.Find("div.Content").First().Html(); err == nil {
		series.Description = strings.TrimSpace(desc)
	}
	if series.Name == "" {
		return nil, mangadl.Errorf(mangadl.ENOTFOUND, "no series at %s", url)
	}

	for _, c := range chapters {
		num, index, err := decodeMangalifeChapter(c.Chapter)
		if err != nil {
			return nil, err
		}
		series.Chapters = append(series.Chapters, &mangadl.Chapter{
			Website: s.Name(),
			Series:  series.Name,
			Name:    c.Chapter,
			URL:     s.readerURL(series.Slug, num, index, 1),
			Slug:    series.Slug,
			Ref:     c.Chapter,
		})
	}
	return series, nil
}

// Parts probes reader pages one by one until the site reports that the page
// does not exist. Each reader page names the image server and directory of
// its image.
func (s *Mangalife) Parts(ctx context.Context, ch *mangadl.Chapter) iter.Seq2[mangadl.Part, error] {
	return func(yield func(mangadl.Part, error) bool) {
		num, index, err := decodeMangalifeChapter(ch.Ref)
		if err != nil {
			yield(mangadl.Part{}, err)
			return
		}

		for n := 1; ; n++ {
			html, err := s.fetcher.Fetch(ctx, s.readerURL(ch.Slug, num, index, n))
			if mangadl.ErrorCode(err) == mangadl.ENOTFOUND {
				return
			} else if err != nil {
				yield(mangadl.Part{}, err)
				return
			}
			if strings.Contains(html, "<title>404 Page Not Found</title>") {
				return
			}

			server, ok := scriptVar(html, "vm.CurPathName")
			if !ok {
				yield(mangadl.Part{}, mangadl.Errorf(mangadl.EUNAVAILABLE, "website is protected"))
				return
			}
			var cur mangalifeChapter
			if found, err := decodeScriptVar(html, "vm.CurChapter", &cur); err != nil || !found {
				yield(mangadl.Part{}, mangadl.Errorf(mangadl.EUNAVAILABLE, "website is protected"))
				return
			}

			image, err := mangalifeImageURL(strings.Trim(server, `"`), ch.Slug, cur, n)
			if err != nil {
				yield(mangadl.Part{}, err)
				return
			}
			if !yield(mangadl.Part{ID: mangadl.PartID(n), URL: image}, nil) {
				return
			}
		}
	}
}

func (s *Mangalife) readerURL(slug, num, index string, page int) string {
	return fmt.Sprintf("%s/read-online/%s-chapter-%s%s-page-%d.html", s.baseURL, slug, num, index, page)
}

// decodeMangalifeChapter splits a chapter code such as "100105" into the
// chapter number used in reader URLs ("10.5") and the season suffix ("" for
// the first season, "-index-2" for the second).
func decodeMangalifeChapter(code string) (num, index string, err error) {
	if len(code) < 3 {
		return "", "", mangadl.Errorf(mangadl.EINVALID, "invalid chapter code %q", code)
	}
	n, err := strconv.Atoi(code[1 : len(code)-1])
	if err != nil {
		return "", "", mangadl.Errorf(mangadl.EINVALID, "invalid chapter code %q", code)
	}
	num = strconv.Itoa(n)
	if last := code[len(code)-1]; last != '0' {
		num += "." + string(last)
	}
	if code[0] != '1' {
		index = "-index-" + code[:1]
	}
	return num, index, nil
}

// mangalifeImageURL keeps the zero padding of the chapter code, which the
// image servers expect.
func mangalifeImageURL(server, slug string, cur mangalifeChapter, page int) (string, error) {
	code := cur.Chapter
	if len(code) < 3 {
		return "", mangadl.Errorf(mangadl.EINVALID, "invalid chapter code %q", code)
	}
	num := code[1 : len(code)-1]
	if last := code[len(code)-1]; last != '0' {
		num += "." + string(last)
	}
	dir := ""
	if cur.Directory != "" {
		dir = cur.Directory + "/"
	}
	return fmt.Sprintf("https://%s/manga/%s/%s%s-%s.png", server, slug, dir, num, mangadl.PartID(page)), nil
}

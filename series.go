package mangadl

// Series is a manga title as resolved from a source.
type Series struct {
	Website     string     `json:"website"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	URL         string     `json:"url"`
	Description string     `json:"description"` // HTML
	Chapters    []*Chapter `json:"chapters"`
}

// Chapter returns the chapter with the given name, or nil.
func (s *Series) Chapter(name string) *Chapter {
	for _, ch := range s.Chapters {
		if ch.Name == name {
			return ch
		}
	}
	return nil
}

// SearchResult is a series found by a source search.
type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

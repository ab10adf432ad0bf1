package mangadl

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms an HTML fragment, such as a series description,
	// into Markdown.
	Convert(html string) (string, error)
}

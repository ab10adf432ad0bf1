package mangadl

import (
	"context"
	"fmt"
)

// PageExt is the file extension given to every downloaded page.
const PageExt = ".png"

// ArchiveExt is the file extension of chapter archives.
const ArchiveExt = ".cbz"

// Chapter is one downloadable unit of a series.
// Name identifies the chapter within its series and is used as the base name
// of both its working directory and its archive.
type Chapter struct {
	Website string `json:"website"`
	Series  string `json:"series"`
	Name    string `json:"name"`
	URL     string `json:"url"`

	// Slug and Ref carry source-specific data needed to list the
	// chapter's pages, such as the series slug and the site's chapter code.
	Slug string `json:"slug"`
	Ref  string `json:"ref"`
}

// Validate returns an error if the chapter contains invalid fields.
func (c *Chapter) Validate() error {
	if c.Website == "" {
		return Errorf(EINVALID, "chapter website required")
	}
	if c.Series == "" {
		return Errorf(EINVALID, "chapter series required")
	}
	if c.Name == "" {
		return Errorf(EINVALID, "chapter name required")
	}
	return nil
}

// Part is a single page of a chapter.
type Part struct {
	// ID is a fixed-width identifier; IDs within a chapter sort in page order.
	ID  string
	URL string
}

// PartID formats a page number as a part identifier.
func PartID(n int) string {
	return fmt.Sprintf("%03d", n)
}

// Packager bundles the page files of a chapter into a single archive.
type Packager interface {
	// Pack writes pages, in the given order, into an archive at dst.
	// It checks ctx between entries and returns ctx.Err() when canceled.
	// dst exists only if Pack returns nil.
	Pack(ctx context.Context, ch *Chapter, dst string, pages []string) error
}

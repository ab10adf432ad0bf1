// Package cbz writes chapter archives in the comic book zip format.
package cbz

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/beevik/etree"
	"github.com/fwojciec/mangadl"
)

// ComicInfoName is the archive entry holding chapter metadata.
const ComicInfoName = "ComicInfo.xml"

var _ mangadl.Packager = (*Packager)(nil)

// Packager writes page files into a .cbz archive.
// The archive is assembled under "<dst>.tmp" and renamed into place once
// complete, so dst never holds a partial archive.
type Packager struct {
	// ComicInfo appends a ComicInfo.xml entry after the pages.
	ComicInfo bool
}

// NewPackager returns a Packager.
func NewPackager(comicInfo bool) *Packager {
	return &Packager{ComicInfo: comicInfo}
}

// Pack stores pages in the given order under their base names.
func (p *Packager) Pack(ctx context.Context, ch *mangadl.Chapter, dst string, pages []string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	tmp := dst + ".tmp"
	if err := p.write(ctx, ch, tmp, pages); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (p *Packager) write(ctx context.Context, ch *mangadl.Chapter, path string, pages []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addPage(zw, page); err != nil {
			return err
		}
	}

	if p.ComicInfo {
		w, err := zw.Create(ComicInfoName)
		if err != nil {
			return err
		}
		if _, err := ComicInfo(ch, len(pages)).WriteTo(w); err != nil {
			return err
		}
	}

	return zw.Close()
}

func addPage(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	// Images are already compressed.
	header.Method = zip.Store

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// ComicInfo builds the ComicInfo.xml document for a chapter.
func ComicInfo(ch *mangadl.Chapter, pageCount int) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	root := doc.CreateElement("ComicInfo")
	root.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	root.CreateAttr("xmlns:xsd", "http://www.w3.org/2001/XMLSchema")
	root.CreateElement("Series").SetText(ch.Series)
	root.CreateElement("Number").SetText(ch.Name)
	if ch.URL != "" {
		root.CreateElement("Web").SetText(ch.URL)
	}
	root.CreateElement("PageCount").SetText(strconv.Itoa(pageCount))
	root.CreateElement("Manga").SetText("YesAndRightToLeft")

	doc.Indent(2)
	return doc
}

// Entries returns the entry names of the archive at path, in archive order.
func Entries(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}

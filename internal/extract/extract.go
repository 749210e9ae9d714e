package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnreadableDocument indicates the bytes are not a parseable PDF.
	ErrUnreadableDocument = errors.New("unreadable document")
	// ErrEmptyDocument indicates the PDF contains no pages.
	ErrEmptyDocument = errors.New("document has no pages")
)

// PageText is one page's extracted text, numbered from 1.
type PageText struct {
	Number int
	Text   string
}

// Extract parses a PDF and returns per-page text in native page order.
// Text fragments on a page are joined with single spaces; no further
// normalization is applied here.
func Extract(ctx context.Context, data []byte) ([]PageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := newReader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	total := reader.NumPage()
	if total == 0 {
		return nil, ErrEmptyDocument
	}

	pages := make([]PageText, 0, total)
	for num := 1; num <= total; num++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(num)
		pages = append(pages, PageText{
			Number: num,
			Text:   pageText(page),
		})
	}
	return pages, nil
}

// newReader wraps pdf.NewReader; the parser panics on some malformed files,
// so recover and surface that as a parse error.
func newReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r = nil
			err = fmt.Errorf("pdf parse: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pageText(page pdf.Page) (text string) {
	// Malformed content streams can also panic inside the library; an
	// unreadable page degrades to empty text rather than failing extraction.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
		}
	}()

	if page.V.IsNull() {
		return ""
	}

	plain, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return joinFragments(plain)
}

// joinFragments flattens the library's newline-separated text rows into a
// single run of fragments joined by single spaces.
func joinFragments(plain string) string {
	return strings.Join(strings.FieldsFunc(plain, func(r rune) bool {
		return r == '\n' || r == '\r'
	}), " ")
}

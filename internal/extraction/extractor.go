package extraction

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"seehuhn.de/go/geom/matrix"
	pdflib "seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
	pdfreader "seehuhn.de/go/pdf/reader"

	"github.com/pagemarkhq/pagemark-backend/internal/logger"
)

// PageText is the extracted body text of one page. PageNumber is 1-based.
type PageText struct {
	PageNumber int
	Text       string
}

// Extractor turns raw PDF bytes into per-page text. Implementations must not
// mutate the input slice.
type Extractor interface {
	ExtractPages(ctx context.Context, data []byte) ([]PageText, error)
}

type pdfExtractor struct {
	log *logger.Logger
}

// NewPdfExtractor returns the default extractor, backed by seehuhn.de/go/pdf
// content-stream parsing.
func NewPdfExtractor(baseLog *logger.Logger) Extractor {
	return &pdfExtractor{log: baseLog.With("service", "PdfExtractor")}
}

func (e *pdfExtractor) ExtractPages(ctx context.Context, data []byte) ([]PageText, error) {
	doc, err := pdflib.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages, err := pagetree.NumPages(doc)
	if err != nil {
		return nil, fmt.Errorf("read page tree: %w", err)
	}

	contents := pdfreader.New(doc, nil)
	pages := make([]PageText, 0, numPages)
	for i := 0; i < numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, pageDict, err := pagetree.GetPage(doc, i)
		if err != nil {
			// A single corrupt page should not sink the document.
			e.log.Warn("Failed to load pdf page, skipping", "page", i+1, "error", err)
			continue
		}
		var sb strings.Builder
		contents.Text = func(text string) error {
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteString(" ")
			}
			sb.WriteString(text)
			return nil
		}
		if err := contents.ParsePage(pageDict, matrix.Identity); err != nil {
			e.log.Warn("Failed to parse pdf page content, skipping", "page", i+1, "error", err)
			continue
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		pages = append(pages, PageText{PageNumber: i + 1, Text: text})
	}
	return pages, nil
}

// PageCount reports the number of pages without extracting any text.
func PageCount(data []byte) (int, error) {
	doc, err := pdflib.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	return pagetree.NumPages(doc)
}

package extraction

import (
	"context"
	"testing"

	"github.com/pagemarkhq/pagemark-backend/internal/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	return log
}

func TestExtractPages_RejectsMalformedData(t *testing.T) {
	e := NewPdfExtractor(newTestLogger(t))

	pages, err := e.ExtractPages(context.Background(), []byte("not a pdf"))
	if err == nil {
		t.Fatalf("expected open error for malformed data, got pages=%v", pages)
	}
}

func TestExtractPages_RejectsEmptyData(t *testing.T) {
	e := NewPdfExtractor(newTestLogger(t))

	if _, err := e.ExtractPages(context.Background(), nil); err == nil {
		t.Fatalf("expected open error for empty data")
	}
}

func TestPageCount_RejectsMalformedData(t *testing.T) {
	if _, err := PageCount([]byte("%PDF-but-truncated")); err == nil {
		t.Fatalf("expected open error for malformed data")
	}
}

package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

func TestQueryTerms_DropsSingleCharTokens(t *testing.T) {
	terms := queryTerms("a quick    fox b")
	if len(terms) != 2 {
		t.Fatalf("expected 2 terms, got %v", terms)
	}
	if terms[0] != "quick" || terms[1] != "fox" {
		t.Fatalf("unexpected terms: %v", terms)
	}
}

func TestQueryTerms_EmptyQuery(t *testing.T) {
	if terms := queryTerms("   "); len(terms) != 0 {
		t.Fatalf("expected no terms, got %v", terms)
	}
}

func TestHighlightTerms_WrapsEachTermCaseInsensitively(t *testing.T) {
	got := highlightTerms("The quick brown fox", []string{"quick", "fox"})
	want := "The <em>quick</em> brown <em>fox</em>"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestHighlightTerms_MatchesDifferentCase(t *testing.T) {
	got := highlightTerms("QUICK quick Quick", []string{"quick"})
	want := "<em>QUICK</em> <em>quick</em> <em>Quick</em>"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestHighlightTerms_RegexMetacharactersAreLiteral(t *testing.T) {
	got := highlightTerms("price is $5 (today)", []string{"$5", "(today)"})
	want := "price is <em>$5</em> <em>(today)</em>"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestHighlightTerms_NoTermsLeavesContentUntouched(t *testing.T) {
	content := "untouched content"
	if got := highlightTerms(content, nil); got != content {
		t.Fatalf("got %q want %q", got, content)
	}
}

func unitWithContent(content string) *types.ContentUnit {
	return &types.ContentUnit{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		PdfFileID:   uuid.New(),
		PageNumber:  1,
		Content:     content,
		ContentKind: types.ContentKindPdfText,
		CreatedAt:   time.Now(),
	}
}

func TestExtractSuggestions_PrefixCompletion(t *testing.T) {
	units := []*types.ContentUnit{
		unitWithContent("Neural networks and neurons. Neutral observers"),
	}
	got := extractSuggestions("neu", units, 5)
	want := []string{"neural", "neurons", "neutral"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestExtractSuggestions_ExcludesExactPrefixMatch(t *testing.T) {
	units := []*types.ContentUnit{unitWithContent("fox foxes fox")}
	got := extractSuggestions("fox", units, 5)
	if len(got) != 1 || got[0] != "foxes" {
		t.Fatalf("expected only strictly-longer completions, got %v", got)
	}
}

func TestExtractSuggestions_DeduplicatesAndLimits(t *testing.T) {
	units := []*types.ContentUnit{
		unitWithContent("alpha1 alpha2 alpha1 alpha3"),
		unitWithContent("alpha4 alpha5 alpha6"),
	}
	got := extractSuggestions("alpha", units, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 suggestions, got %v", got)
	}
	seen := map[string]bool{}
	for _, s := range got {
		if seen[s] {
			t.Fatalf("duplicate suggestion %q in %v", s, got)
		}
		seen[s] = true
	}
}

func TestExtractSuggestions_StripsPunctuation(t *testing.T) {
	units := []*types.ContentUnit{unitWithContent("Searching, searches. (searched)")}
	got := extractSuggestions("search", units, 5)
	want := map[string]bool{"searching": true, "searches": true, "searched": true}
	if len(got) != 3 {
		t.Fatalf("got %v", got)
	}
	for _, s := range got {
		if !want[s] {
			t.Fatalf("unexpected suggestion %q in %v", s, got)
		}
	}
}

package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

// UnknownDocumentTitle labels results whose parent document can no longer
// be resolved (deleted after indexing). The response degrades instead of
// erroring.
const UnknownDocumentTitle = "Unknown document"

func (ss *searchService) formatResults(ctx context.Context, userID uuid.UUID, query string, units []*types.ContentUnit) ([]SearchResultItem, error) {
	titles, err := ss.resolveTitles(ctx, userID, units)
	if err != nil {
		return nil, err
	}

	terms := queryTerms(query)
	results := make([]SearchResultItem, 0, len(units))
	for _, unit := range units {
		title, ok := titles[unit.PdfFileID]
		if !ok || title == "" {
			title = UnknownDocumentTitle
		}
		results = append(results, SearchResultItem{
			ID:                 unit.ID,
			DocumentID:         unit.PdfFileID,
			DocumentTitle:      title,
			PageNumber:         unit.PageNumber,
			ContentKind:        unit.ContentKind,
			Content:            unit.Content,
			HighlightedContent: highlightTerms(unit.Content, terms),
			Position:           types.RectFromJSON(unit.Position),
			SourceAnnotationID: unit.SourceAnnotationID,
			Score:              1.0,
			CreatedAt:          unit.CreatedAt,
		})
	}
	return results, nil
}

// resolveTitles batches every distinct document id in the match set into a
// single lookup, going through the Redis cache first when one is wired.
func (ss *searchService) resolveTitles(ctx context.Context, userID uuid.UUID, units []*types.ContentUnit) (map[uuid.UUID]string, error) {
	seen := make(map[uuid.UUID]struct{}, len(units))
	ids := make([]uuid.UUID, 0, len(units))
	for _, unit := range units {
		if _, ok := seen[unit.PdfFileID]; ok {
			continue
		}
		seen[unit.PdfFileID] = struct{}{}
		ids = append(ids, unit.PdfFileID)
	}
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	if ss.titleCache == nil {
		return ss.pdfFileRepo.GetTitlesByIDs(ctx, nil, userID, ids)
	}

	titles, misses := ss.titleCache.GetTitles(ctx, userID, ids)
	if len(misses) == 0 {
		return titles, nil
	}
	fetched, err := ss.pdfFileRepo.GetTitlesByIDs(ctx, nil, userID, misses)
	if err != nil {
		return nil, err
	}
	ss.titleCache.SetTitles(ctx, userID, fetched)
	for id, title := range fetched {
		titles[id] = title
	}
	return titles, nil
}

// queryTerms splits the query on whitespace and drops terms of length 1 or
// less; those are too noisy to highlight.
func queryTerms(query string) []string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) <= 1 {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// highlightTerms wraps every case-insensitive occurrence of each term in
// <em> markers. Terms are applied independently, so overlapping matches may
// be wrapped twice; callers accept that cosmetic edge case.
func highlightTerms(content string, terms []string) string {
	highlighted := content
	for _, term := range terms {
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(term))
		if err != nil {
			continue
		}
		highlighted = re.ReplaceAllStringFunc(highlighted, func(m string) string {
			return "<em>" + m + "</em>"
		})
	}
	return highlighted
}

var nonWordRe = regexp.MustCompile(`\W+`)

// extractSuggestions collects distinct lowercase tokens from the given
// units that extend the prefix. This is prefix completion over recently
// touched content, not a corpus-global frequency index.
func extractSuggestions(prefix string, units []*types.ContentUnit, limit int) []string {
	prefix = strings.ToLower(prefix)
	seen := make(map[string]struct{})
	var out []string
	for _, unit := range units {
		for _, raw := range strings.Fields(unit.Content) {
			token := strings.ToLower(nonWordRe.ReplaceAllString(raw, ""))
			if len(token) <= len(prefix) {
				continue
			}
			if !strings.HasPrefix(token, prefix) {
				continue
			}
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			out = append(out, token)
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

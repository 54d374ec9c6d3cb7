package admin

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/CrimsonX77/RedVerse/internal/session"
)

// maxSearchResults caps a content search so a broad query cannot dump the
// whole archive in one response.
const maxSearchResults = 100

// SearchMatch is one content hit with enough context to locate it.
// MatchOffset is a byte offset into foldForSearch(Event.Content), not into
// the raw content. Folding can change byte lengths (ß becomes ss, accents
// recompose), so take it against the folded text when highlighting.
type SearchMatch struct {
	Event       TimelineEvent `json:"event"`
	MatchOffset int           `json:"match_offset"`
	Context     string        `json:"context"`
}

// foldForSearch normalizes to NFC and case-folds, so "Straße" matches
// "STRASSE" and composed/decomposed accents compare equal.
func foldForSearch(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// SearchContent scans every member's full ledger for events whose content
// contains the query, Unicode-case-insensitively. Results are ordered by
// member enrollment then event order, capped at maxSearchResults.
func (s *Service) SearchContent(ctx context.Context, ac session.AdminContext, query string) ([]SearchMatch, error) {
	needle := foldForSearch(query)
	if needle == "" {
		return nil, nil
	}

	members, err := s.registry.All(ctx)
	if err != nil {
		return nil, err
	}

	var matches []SearchMatch
	for _, m := range members {
		events, err := s.store.ReadAll(ctx, m.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", m.MemberID, err)
		}
		for _, ev := range events {
			haystack := foldForSearch(ev.Content)
			off := strings.Index(haystack, needle)
			if off < 0 {
				continue
			}
			matches = append(matches, SearchMatch{
				Event:       TimelineEvent{Event: ev, MemberID: m.MemberID},
				MatchOffset: off,
				Context:     fmt.Sprintf("%s on %s", m.MemberID, ev.Timestamp.Format("2006-01-02 15:04:05")),
			})
			if len(matches) == maxSearchResults {
				s.log.Info("search truncated", "admin", ac.MemberID, "query", query)
				return matches, nil
			}
		}
	}
	s.log.Info("search complete", "admin", ac.MemberID, "query", query, "matches", len(matches))
	return matches, nil
}

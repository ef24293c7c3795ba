// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package footnote turns a manuscript's raw footnote sequence into an
// ordered worklist of unique, classified citations.
package footnote

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/meshintel/sourcepull/internal/classify"
	"github.com/meshintel/sourcepull/internal/textutil"
	"github.com/meshintel/sourcepull/pkg/types"
)

var (
	// trailingCommentaryRe matches a parenthetical of at least 12
	// characters at the end of a citation, provided it contains no
	// nested open paren. The nesting guard keeps a commentary like
	// "([I]ssues concerning police intent)" removable without eating a
	// citation's own "(2006)" year.
	trailingCommentaryRe = regexp.MustCompile(`\([^(]{12,}?\)$`)

	// idAtRe matches pinpoint id. references like "Id. at 813" or
	// "id at 813-815", with an optional trailing period.
	idAtRe = regexp.MustCompile(`^[iI][dD]\.? at [0-9]+[-–—]?[0-9]*\.?$`)
)

// Extract splits, cleans, deduplicates, and classifies the citations in
// footnotes. Each element of footnotes is one footnote's full text; a
// footnote may bundle several citations separated by ";". Blank entries
// and extraction metadata are skipped without consuming a footnote
// number.
//
// The only possible error is a short-key contract violation, which means
// the classifier and its span patterns have drifted apart; it is a
// defect, not bad input.
func Extract(footnotes []string) ([]types.Citation, error) {
	var citations []types.Citation
	seen := make(map[string]bool)

	fnNum := 0
	for _, fn := range footnotes {
		fn = strings.TrimSpace(fn)
		if fn == "" {
			continue
		}
		// docx extractors prepend bookkeeping entries like
		// "footnote0)"; they are not citations.
		if strings.HasPrefix(fn, "footnote") {
			continue
		}

		fnNum++
		block := strings.TrimSuffix(fn, ".")
		for i, segment := range strings.Split(block, ";") {
			longCite := textutil.CleanString(segment)
			longCite = trailingCommentaryRe.ReplaceAllString(longCite, "")
			longCite = strings.TrimSpace(longCite)

			if longCite == "" || seen[longCite] || isIDReference(longCite) {
				continue
			}
			seen[longCite] = true

			cat := classify.Classify(longCite, classify.Hints{})
			shortCite, err := classify.PredictShortKey(cat, longCite)
			if err != nil {
				return nil, fmt.Errorf("footnote %d: %w", fnNum, err)
			}

			citations = append(citations, types.Citation{
				Seq:       types.SeqKey{Footnote: fnNum, Index: i},
				LongCite:  longCite,
				ShortCite: shortCite,
				Category:  cat,
				Status:    types.StatusNotStarted,
			})
		}
	}

	sort.Slice(citations, func(i, j int) bool {
		return citations[i].Seq.Less(citations[j].Seq)
	})
	return citations, nil
}

// isIDReference reports whether a citation is an "id." back-reference
// that repeats the previous source and carries no retrievable content.
func isIDReference(cite string) bool {
	lower := strings.ToLower(cite)
	switch lower {
	case "id.", "id", "see id.", "see id":
		return true
	}
	return idAtRe.MatchString(cite)
}

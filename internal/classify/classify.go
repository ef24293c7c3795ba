// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify infers a citation's category and search key from its
// free-form text. Classification is pure and total: every input maps to
// exactly one Category and nothing here performs I/O.
package classify

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"mvdan.cc/xurls/v2"

	"github.com/meshintel/sourcepull/pkg/types"
)

// ErrShortKeyContract reports that a citation classified as a Supreme
// Court case carries no extractable reporter span. The category is only
// assigned when such a span exists, so hitting this means the category
// was overridden or the text mutated after classification. It is a
// defect, not a user-facing condition.
var ErrShortKeyContract = errors.New("no reporter span in citation classified as SCOTUS case")

// Minimum length of the reporter abbreviation between the two numbers of
// a "<num> <reporter> <num>" span. Case reporters ("U.S.", "S. Ct.") are
// short; journal reporters ("Harv. L. Rev.") are long. The exact values
// are tuned against real law-review manuscripts, not derived.
const (
	minCaseReporterSpan    = 3
	minJournalReporterSpan = 7
)

// urlRe finds URLs in citation text, including scheme-less forms like
// "www.example.com" that show up in website citations.
var urlRe = xurls.Relaxed()

// Reporter patterns are matched against the citation with periods
// removed, which tolerates "S.Ct.", "S Ct", "US" and similar variants.
var (
	scotusReporterRe = regexp.MustCompile(`[0-9]+ [sS] ?[cC][tT] [0-9]+`)
	usReporterRe     = regexp.MustCompile(`[0-9]+ U ?S [0-9]+`)
	usPinpointRe     = regexp.MustCompile(`[0-9]+ U ?S at [0-9]+`)

	uscSpanRe = regexp.MustCompile(`[0-9]+ (.{4,8}) [0-9]+`)

	yearParenRe = regexp.MustCompile(`\([0-9]{4}\)`)
	anySpanRe   = regexp.MustCompile(`[0-9]+ .+? [0-9]+`)

	caseSpanRe    = regexp.MustCompile(fmt.Sprintf(`([0-9]+ .{%d,}? [0-9]+)`, minCaseReporterSpan))
	journalSpanRe = regexp.MustCompile(fmt.Sprintf(`([0-9]+ .{%d,}? [0-9]+)`, minJournalReporterSpan))

	westlawReporterRe = regexp.MustCompile(`[0-9]{4} WL [0-9]+`)
)

// Hints carries worklist columns that pre-empt textual classification.
type Hints struct {
	// BookAvailable is set when the "Book Available?" column is filled.
	BookAvailable bool

	// InLibrary is set when the librarian recorded a physical location.
	InLibrary bool
}

// Classify predicts the category of a citation from its long-form text.
// Rules run in strict priority order and the first match wins.
func Classify(longCite string, hints Hints) types.Category {
	lower := strings.ToLower(longCite)
	noPeriods := strings.ReplaceAll(longCite, ".", "")

	// A book marked by a human beats every textual rule.
	if hints.BookAvailable || hints.InLibrary {
		return types.CategoryBook
	}

	// A URL means the puller can fetch the page directly even if the
	// citation is really something else, so Website wins early. The
	// working-paper repository gets its own category because its pages
	// need an explicit download action.
	if url := firstURL(longCite); url != "" {
		if strings.Contains(url, "ssrn.com") {
			return types.CategoryWorkingPaper
		}
		return types.CategoryWebsite
	}

	// "123 U.S. 456", "123 U.S. at 456", "76 S. Ct. 212" and minor
	// spacing/period variants.
	if scotusReporterRe.MatchString(noPeriods) ||
		usReporterRe.MatchString(noPeriods) ||
		usPinpointRe.MatchString(noPeriods) {
		return types.CategorySupremeCourt
	}

	if strings.Contains(lower, " v. ") || strings.Contains(lower, "in re ") {
		return types.CategoryOtherCourt
	}

	if strings.Contains(lower, " u.s.c. ") || strings.Contains(lower, " u.s. code ") {
		return types.CategoryFederalStatute
	}
	if m := uscSpanRe.FindStringSubmatch(noPeriods); m != nil {
		if strings.Contains(strings.ToLower(m[1]), "usc") {
			return types.CategoryFederalStatute
		}
	}

	// Session laws and section symbols that survived the federal check.
	if strings.Contains(lower, " stat. ") || strings.Contains(longCite, "§") {
		return types.CategoryStateStatute
	}

	// Commas, a parenthesized year, and a "<num> <reporter> <num>" span
	// with a long reporter abbreviation read like a journal article.
	if strings.Contains(longCite, ",") &&
		yearParenRe.MatchString(longCite) &&
		journalSpanRe.MatchString(longCite) {
		return types.CategoryJournal
	}

	// Commas and a year but no numeric span could be a book, but a
	// wrong Book guess wastes a librarian's time, so leave it Unknown.
	if strings.Contains(longCite, ",") &&
		yearParenRe.MatchString(longCite) &&
		!anySpanRe.MatchString(longCite) {
		return types.CategoryUnknown
	}

	return types.CategoryUnknown
}

// PredictShortKey derives the machine-usable search key for categories
// where a narrow, low-false-positive pattern exists. All other categories
// get an empty key for manual entry: users trust an auto-filled field and
// skip verifying it, so a wrong key is worse than none.
func PredictShortKey(cat types.Category, longCite string) (string, error) {
	switch cat {
	case types.CategoryWebsite, types.CategoryWorkingPaper:
		return firstURL(longCite), nil
	case types.CategorySupremeCourt:
		m := caseSpanRe.FindStringSubmatch(longCite)
		if m == nil {
			return "", fmt.Errorf("%w: %q", ErrShortKeyContract, longCite)
		}
		return m[1], nil
	case types.CategoryJournal:
		m := journalSpanRe.FindStringSubmatch(longCite)
		if m == nil {
			return "", nil
		}
		return m[1], nil
	}
	return "", nil
}

// IsWestlawReporter reports whether a short key follows the Westlaw
// internal reporter format ("2021 WL 50841"). Used only as a routing
// hint; it never changes a citation's category.
func IsWestlawReporter(shortKey string) bool {
	return westlawReporterRe.MatchString(strings.ReplaceAll(shortKey, ".", ""))
}

func firstURL(text string) string {
	return urlRe.FindString(text)
}

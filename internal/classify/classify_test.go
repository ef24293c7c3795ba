// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"errors"
	"testing"

	"github.com/meshintel/sourcepull/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		cite  string
		hints Hints
		want  types.Category
	}{
		{
			"book hint wins over everything",
			"Lawrence Lessig, Code 2.0 120 (2006), https://example.com/code",
			Hints{BookAvailable: true},
			types.CategoryBook,
		},
		{
			"library hint",
			"Some Treatise, 4th ed.",
			Hints{InLibrary: true},
			types.CategoryBook,
		},
		{
			"website with url",
			"Adam Liptak, Supreme Court Ruling, N.Y. Times (June 1, 2020), https://www.nytimes.com/2020/06/01/us/ruling.html",
			Hints{},
			types.CategoryWebsite,
		},
		{
			"ssrn url is a working paper",
			"Jane Doe, Draft Paper, https://papers.ssrn.com/sol3/papers.cfm?abstract_id=123456",
			Hints{},
			types.CategoryWorkingPaper,
		},
		{
			"scheme-less url",
			"Press Release, www.justice.gov/opa/pr/example",
			Hints{},
			types.CategoryWebsite,
		},
		{
			"us reporter",
			"Marbury v. Madison, 5 U.S. 137, 177 (1803)",
			Hints{},
			types.CategorySupremeCourt,
		},
		{
			"us reporter bare",
			"123 U.S. 456",
			Hints{},
			types.CategorySupremeCourt,
		},
		{
			"us reporter pinpoint",
			"Katz, 389 U.S. at 351",
			Hints{},
			types.CategorySupremeCourt,
		},
		{
			"sct reporter with spacing",
			"Breithaupt v. Abram, 76 S. Ct. 212 (1957)",
			Hints{},
			types.CategorySupremeCourt,
		},
		{
			"sct reporter no spaces",
			"76 S.Ct. 212",
			Hints{},
			types.CategorySupremeCourt,
		},
		{
			"v without reporter is other court",
			"Smith v. Jones, 123 F.3d 456 (5th Cir. 1997)",
			Hints{},
			types.CategoryOtherCourt,
		},
		{
			"in re",
			"In re Grand Jury Subpoena, 123 F.3d 456 (1997)",
			Hints{},
			types.CategoryOtherCourt,
		},
		{
			"usc spelled out",
			"18 U.S.C. § 1030 (2018)",
			Hints{},
			types.CategoryFederalStatute,
		},
		{
			"usc in span",
			"42 U.S.C.A. 405 (2018)",
			Hints{},
			types.CategoryFederalStatute,
		},
		{
			"state statute section sign",
			"Tex. Penal Code Ann. § 33.02",
			Hints{},
			types.CategoryStateStatute,
		},
		{
			"session laws",
			"Act of June 1, 1990, 104 Stat. 1234",
			Hints{},
			types.CategoryStateStatute,
		},
		{
			"journal",
			"Charles A. Reich, The New Property, 73 Yale L.J. 733 (1964)",
			Hints{},
			types.CategoryJournal,
		},
		{
			"comma and year but no span stays unknown",
			"Jane Doe, Some Book Title (2004)",
			Hints{},
			types.CategoryUnknown,
		},
		{
			"plain text",
			"a sentence with no citation in it",
			Hints{},
			types.CategoryUnknown,
		},
		{
			"empty",
			"",
			Hints{},
			types.CategoryUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.cite, tt.hints); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.cite, got, tt.want)
			}
		})
	}
}

func TestPredictShortKey(t *testing.T) {
	tests := []struct {
		name string
		cat  types.Category
		cite string
		want string
	}{
		{
			"scotus span",
			types.CategorySupremeCourt,
			"Marbury v. Madison, 123 U.S. 456 (1803)",
			"123 U.S. 456",
		},
		{
			"scotus bare",
			types.CategorySupremeCourt,
			"123 U.S. 456",
			"123 U.S. 456",
		},
		{
			"journal span",
			types.CategoryJournal,
			"Charles A. Reich, The New Property, 73 Yale L.J. 733 (1964)",
			"73 Yale L.J. 733",
		},
		{
			"website url round trip",
			types.CategoryWebsite,
			"Article, https://www.nytimes.com/story.html",
			"https://www.nytimes.com/story.html",
		},
		{
			"working paper url round trip",
			types.CategoryWorkingPaper,
			"Draft, https://papers.ssrn.com/sol3/papers.cfm?abstract_id=99",
			"https://papers.ssrn.com/sol3/papers.cfm?abstract_id=99",
		},
		{
			"book left blank",
			types.CategoryBook,
			"A Book, Some Press (2001)",
			"",
		},
		{
			"state statute left blank",
			types.CategoryStateStatute,
			"Tex. Penal Code Ann. § 33.02",
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PredictShortKey(tt.cat, tt.cite)
			if err != nil {
				t.Fatalf("PredictShortKey(%q, %q) error: %v", tt.cat, tt.cite, err)
			}
			if got != tt.want {
				t.Errorf("PredictShortKey(%q, %q) = %q, want %q", tt.cat, tt.cite, got, tt.want)
			}
		})
	}
}

func TestPredictShortKeyContractViolation(t *testing.T) {
	_, err := PredictShortKey(types.CategorySupremeCourt, "no reporter span here")
	if !errors.Is(err, ErrShortKeyContract) {
		t.Fatalf("want ErrShortKeyContract, got %v", err)
	}
}

func TestIsWestlawReporter(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"2021 WL 50841", true},
		{"2021 W.L. 50841", true},
		{"123 U.S. 456", false},
		{"", false},
		{"WL 50841", false},
	}
	for _, tt := range tests {
		if got := IsWestlawReporter(tt.key); got != tt.want {
			t.Errorf("IsWestlawReporter(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared records and configuration for sourcepull.
package types

import "fmt"

// Category classifies a citation's source type. The set is closed; every
// citation carries exactly one Category and retrieval routing dispatches
// on it. The string values round-trip through the worklist workbook.
type Category string

const (
	CategoryBook           Category = "Book"
	CategoryWebsite        Category = "Website"
	CategoryWorkingPaper   Category = "SSRN"
	CategoryJournal        Category = "Journal"
	CategoryStateStatute   Category = "State Statute"
	CategoryFederalStatute Category = "Federal Statute"
	CategorySupremeCourt   Category = "SCOTUS Case"
	CategoryOtherCourt     Category = "Non-SCOTUS Case"
	CategoryUnknown        Category = "Unknown"
)

// ParseCategory maps a workbook cell value to a Category. Unrecognized
// values come back as CategoryUnknown with ok=false so callers can decide
// whether to re-infer.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryBook, CategoryWebsite, CategoryWorkingPaper, CategoryJournal,
		CategoryStateStatute, CategoryFederalStatute, CategorySupremeCourt,
		CategoryOtherCourt, CategoryUnknown:
		return Category(s), true
	}
	return CategoryUnknown, false
}

// Retrievable reports whether the puller should attempt this category at
// all. Books live in physical libraries and Unknown citations have no
// search key worth trusting.
func (c Category) Retrievable() bool {
	return c != CategoryBook && c != CategoryUnknown && c != ""
}

// RetrievalStatus is the terminal (or in-flight) outcome of the most
// recent retrieval attempt for a citation. The set is closed.
type RetrievalStatus string

const (
	StatusNotStarted RetrievalStatus = "Not Started"
	StatusInProgress RetrievalStatus = "In Progress"
	StatusSuccess    RetrievalStatus = "Success"
	StatusNoAttempt  RetrievalStatus = "No Attempt"
	StatusNotFound   RetrievalStatus = "Not Found"
	StatusFailure    RetrievalStatus = "Failure"
)

// ParseStatus maps a workbook cell value to a RetrievalStatus, defaulting
// to StatusNotStarted for anything unrecognized.
func ParseStatus(s string) RetrievalStatus {
	switch RetrievalStatus(s) {
	case StatusNotStarted, StatusInProgress, StatusSuccess,
		StatusNoAttempt, StatusNotFound, StatusFailure:
		return RetrievalStatus(s)
	}
	return StatusNotStarted
}

// SeqKey orders citations by footnote number and position within the
// footnote. The intra-footnote index is zero-padded to two digits so that
// footnote 3 citation 4 ("3.04") sorts before citation 11 ("3.11").
type SeqKey struct {
	// Footnote is the 1-based footnote number in the manuscript.
	Footnote int

	// Index is the 0-based position of the citation within its footnote.
	Index int
}

func (k SeqKey) String() string {
	return fmt.Sprintf("%d.%02d", k.Footnote, k.Index)
}

// Float renders the key as the numeric form stored in the workbook
// (cell format "0.00").
func (k SeqKey) Float() float64 {
	return float64(k.Footnote) + float64(k.Index)/100
}

// Less reports whether k orders before other.
func (k SeqKey) Less(other SeqKey) bool {
	if k.Footnote != other.Footnote {
		return k.Footnote < other.Footnote
	}
	return k.Index < other.Index
}

// ParseSeqKey converts the workbook's numeric form back to a SeqKey.
func ParseSeqKey(v float64) SeqKey {
	fn := int(v)
	idx := int(v*100+0.5) - fn*100
	return SeqKey{Footnote: fn, Index: idx}
}

// Citation is one footnote-derived reference on the worklist.
//
// LongCite is immutable once classified; ShortCite and Category are
// predictions that a user may correct on the worklist before pulling.
// Filename is always filesystem-safe; the project layer cleans it again
// on load since users edit the worklist by hand.
type Citation struct {
	// Seq is the stable ordering key (footnote.index).
	Seq SeqKey

	// LongCite is the cleaned full text of the citation.
	LongCite string

	// ShortCite is the machine-usable search key; empty when no
	// low-false-positive prediction exists for the category.
	ShortCite string

	// Filename is the sanitized output name for the pulled artifact,
	// without extension.
	Filename string

	// Library holds the librarian's location note when the source is
	// available as a physical book.
	Library string

	// HasBook marks the citation as book-available, which forces
	// CategoryBook during classification.
	HasBook string

	// Category is the classified source type.
	Category Category

	// Status is the outcome of the most recent retrieval attempt.
	Status RetrievalStatus
}

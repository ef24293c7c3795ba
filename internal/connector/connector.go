// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package connector models every external legal database behind a
// uniform capability contract: probe authentication with a live check,
// log in, best-effort configure, search with explicit not-found
// detection, and download. The concrete implementations drive the
// databases through an automated browser session.
package connector

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/meshintel/sourcepull/internal/secrets"
)

// Sentinel errors for expected retrieval outcomes. A connector returns
// ErrNotFound only when the page explicitly reports that nothing
// matched; timeouts and missing elements outside that scope surface as
// ordinary errors and the orchestrator treats them as generic failures.
var (
	ErrNotFound   = errors.New("source not found")
	ErrAuthFailed = errors.New("authentication failed")
)

// Authenticator is the capability shared by every database connector.
//
// Authenticated must re-probe the live site on every call; sessions go
// stale across long idle periods and a cached answer cannot be trusted.
type Authenticator interface {
	// Name identifies the database ("hein", "westlaw", "ssrn").
	Name() string

	// Authenticated navigates to the database and inspects the page
	// for a login form. Probe failures read as not authenticated.
	Authenticated(ctx context.Context) bool

	// Login authenticates with the given credentials. It may block on
	// an out-of-band approval (a push prompt) within its own bound.
	Login(ctx context.Context, creds secrets.Credentials) error

	// Configure applies per-session settings (e.g. jurisdiction
	// scope). It is best-effort: failures are logged, never fatal.
	Configure(ctx context.Context) error
}

// ArticleDatabase is the article/statute database (Hein). Begin opens a
// page-scoped retrieval session; the caller must Close it on every exit
// path.
type ArticleDatabase interface {
	Authenticator
	Begin(ctx context.Context) (ArticleSession, error)
}

// ArticleSession is one retrieval attempt's view of the article
// database. Search must come first; the other calls operate on the
// result page it lands on.
type ArticleSession interface {
	// Search runs a citation search. ErrNotFound when the page
	// explicitly reports no match.
	Search(ctx context.Context, term string) error

	// Contents parses the volume contents sidebar around the search
	// hit. ErrNotFound when the hit never materializes in the sidebar.
	Contents(ctx context.Context) (*VolumeContents, error)

	// ChooseCodeEdition navigates to the first available of the
	// preferred code edition labels. ErrNotFound when the result page
	// is not a code citation page at all.
	ChooseCodeEdition(ctx context.Context, preferred []string) error

	// OpenPDFVersion follows the "PDF version" link on a case result.
	// ErrNotFound when the link never appears.
	OpenPDFVersion(ctx context.Context) error

	// SectionRef returns the download reference of the highlighted
	// section on the current page.
	SectionRef(ctx context.Context) (string, error)

	// Download retrieves the document behind ref into destPath and
	// strips the cover page the database prepends.
	Download(ctx context.Context, ref, destPath string) error

	Close()
}

// CaseDatabase is the case/statute database (Westlaw).
type CaseDatabase interface {
	Authenticator
	Begin(ctx context.Context) (CaseSession, error)
}

// SearchScope selects which browse page a case-database search starts
// from.
type SearchScope int

const (
	ScopeCases SearchScope = iota
	ScopeStatutes
)

// CaseSession is one retrieval attempt's view of the case database.
type CaseSession interface {
	Search(ctx context.Context, scope SearchScope, term string) error

	// Download saves the current result document, preferring the
	// original image rendering and falling back to the delivery
	// dialog.
	Download(ctx context.Context, destPath string) error

	Close()
}

// PaperSite is the working-paper repository (SSRN).
type PaperSite interface {
	Authenticator

	// FetchPaper opens the paper page at url and triggers its explicit
	// download action.
	FetchPaper(ctx context.Context, url, destPath string) error
}

// WebFetcher retrieves arbitrary web citations. It needs no
// authentication.
type WebFetcher interface {
	// Fetch loads url and saves it under destBase: as destBase.pdf
	// when the server serves a document, otherwise as a full-page
	// capture converted to destBase.pdf. Returns the final path.
	Fetch(ctx context.Context, url, destBase string) (string, error)
}

// ContentsEntry is one row of the volume contents sidebar, with the
// reference needed to download it.
type ContentsEntry struct {
	Label string
	Ref   string
}

// ContentsIssue groups sidebar entries under one issue heading.
type ContentsIssue struct {
	Number  string
	Entries []ContentsEntry
}

// VolumeContents is the parsed contents sidebar surrounding a journal
// search hit. TopLevel holds entries outside any issue grouping; the
// table of contents can hide in either place depending on how the
// journal was digitized.
type VolumeContents struct {
	TopLevel     []ContentsEntry
	Issues       []ContentsIssue
	Article      ContentsEntry
	ArticleIssue string
}

// Issue returns the entries grouped under the numbered issue, or nil.
func (v *VolumeContents) Issue(number string) *ContentsIssue {
	for i := range v.Issues {
		if v.Issues[i].Number == number {
			return &v.Issues[i]
		}
	}
	return nil
}

// run executes browser actions under a step deadline.
func run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(stepCtx, actions...)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package puller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/meshintel/sourcepull/internal/connector"
	"github.com/meshintel/sourcepull/internal/secrets"
	"github.com/meshintel/sourcepull/pkg/types"
)

type fakeStore struct{ dir string }

func (f fakeStore) PullPath(name, ext string) string {
	if ext != "" {
		name += "." + ext
	}
	return filepath.Join(f.dir, name)
}

type fakeArticleDB struct {
	authed     bool
	loginErr   error
	beginErr   error
	session    *fakeArticleSession
	begun      int
	loggedIn   bool
	configured int
}

func (f *fakeArticleDB) Name() string { return "hein" }
func (f *fakeArticleDB) Authenticated(context.Context) bool { return f.authed }
func (f *fakeArticleDB) Configure(context.Context) error { f.configured++; return nil }
func (f *fakeArticleDB) Login(_ context.Context, _ secrets.Credentials) error {
	f.loggedIn = true
	return f.loginErr
}
func (f *fakeArticleDB) Begin(context.Context) (connector.ArticleSession, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.begun++
	return f.session, nil
}

type fakeArticleSession struct {
	searchErr     error
	contents      *connector.VolumeContents
	contentsErr   error
	editionErr    error
	editions      []string
	pdfVersionErr error
	ref           string
	downloadErr   error
	downloads     []string
	dests         []string
	closed        int
}

func (f *fakeArticleSession) Search(_ context.Context, term string) error { return f.searchErr }
func (f *fakeArticleSession) Contents(context.Context) (*connector.VolumeContents, error) {
	return f.contents, f.contentsErr
}
func (f *fakeArticleSession) ChooseCodeEdition(_ context.Context, preferred []string) error {
	f.editions = preferred
	return f.editionErr
}
func (f *fakeArticleSession) OpenPDFVersion(context.Context) error { return f.pdfVersionErr }
func (f *fakeArticleSession) SectionRef(context.Context) (string, error) {
	return f.ref, nil
}
func (f *fakeArticleSession) Download(_ context.Context, ref, destPath string) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	f.downloads = append(f.downloads, ref)
	f.dests = append(f.dests, destPath)
	return os.WriteFile(destPath, []byte("part:"+ref), 0o644)
}
func (f *fakeArticleSession) Close() { f.closed++ }

type fakeCaseDB struct {
	authed   bool
	beginErr error
	session  *fakeCaseSession
	begun    int
	loggedIn bool
}

func (f *fakeCaseDB) Name() string { return "westlaw" }
func (f *fakeCaseDB) Authenticated(context.Context) bool { return f.authed }
func (f *fakeCaseDB) Configure(context.Context) error { return nil }
func (f *fakeCaseDB) Login(_ context.Context, _ secrets.Credentials) error {
	f.loggedIn = true
	return nil
}
func (f *fakeCaseDB) Begin(context.Context) (connector.CaseSession, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.begun++
	return f.session, nil
}

type fakeCaseSession struct {
	searchErr   error
	downloadErr error
	scope       connector.SearchScope
	term        string
	dest        string
	closed      int
}

func (f *fakeCaseSession) Search(_ context.Context, scope connector.SearchScope, term string) error {
	f.scope = scope
	f.term = term
	return f.searchErr
}
func (f *fakeCaseSession) Download(_ context.Context, destPath string) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	f.dest = destPath
	return os.WriteFile(destPath, []byte("case"), 0o644)
}
func (f *fakeCaseSession) Close() { f.closed++ }

type fakePaperSite struct {
	authed   bool
	fetchErr error
	url      string
	loggedIn bool
}

func (f *fakePaperSite) Name() string { return "ssrn" }
func (f *fakePaperSite) Authenticated(context.Context) bool { return f.authed }
func (f *fakePaperSite) Configure(context.Context) error { return nil }
func (f *fakePaperSite) Login(_ context.Context, _ secrets.Credentials) error {
	f.loggedIn = true
	return nil
}
func (f *fakePaperSite) FetchPaper(_ context.Context, url, destPath string) error {
	f.url = url
	if f.fetchErr != nil {
		return f.fetchErr
	}
	return os.WriteFile(destPath, []byte("paper"), 0o644)
}

type fakeWebFetcher struct {
	fetchErr error
	url      string
}

func (f *fakeWebFetcher) Fetch(_ context.Context, url, destBase string) (string, error) {
	f.url = url
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	path := destBase + ".pdf"
	return path, os.WriteFile(path, []byte("page"), 0o644)
}

type fakeAssembler struct {
	inputs []string
	out    string
	err    error
}

func (f *fakeAssembler) Merge(paths []string, outPath string) error {
	if f.err != nil {
		return f.err
	}
	f.inputs = append([]string(nil), paths...)
	f.out = outPath
	return os.WriteFile(outPath, []byte("merged"), 0o644)
}

type fixture struct {
	puller    *Puller
	hein      *fakeArticleDB
	westlaw   *fakeCaseDB
	ssrn      *fakePaperSite
	web       *fakeWebFetcher
	assembler *fakeAssembler
	store     fakeStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		hein:      &fakeArticleDB{session: &fakeArticleSession{}},
		westlaw:   &fakeCaseDB{session: &fakeCaseSession{}},
		ssrn:      &fakePaperSite{},
		web:       &fakeWebFetcher{},
		assembler: &fakeAssembler{},
		store:     fakeStore{dir: t.TempDir()},
	}
	f.puller = New(Deps{
		Hein:      f.hein,
		Westlaw:   f.westlaw,
		SSRN:      f.ssrn,
		Web:       f.web,
		Assembler: f.assembler,
		Logger:    zap.NewNop(),
	})
	return f
}

func journalContents(issue string) *connector.VolumeContents {
	return &connector.VolumeContents{
		Article:      connector.ContentsEntry{Label: "The Article", Ref: "print?id=article"},
		ArticleIssue: issue,
		Issues: []connector.ContentsIssue{
			{Number: "1", Entries: []connector.ContentsEntry{
				{Label: "Table of Contents - Issue 1", Ref: "print?id=toc1"},
				{Label: "The Article", Ref: "print?id=article"},
			}},
			{Number: "2", Entries: []connector.ContentsEntry{
				{Label: "Table of Contents - Issue 2", Ref: "print?id=toc2"},
			}},
		},
	}
}

func TestPullSkipsUnretrievableCategories(t *testing.T) {
	for _, cat := range []types.Category{types.CategoryBook, types.CategoryUnknown} {
		f := newFixture(t)
		c := types.Citation{Seq: types.SeqKey{Footnote: 1, Index: 1}, Category: cat}
		status, err := f.puller.Pull(context.Background(), c, f.store)
		if err != nil {
			t.Fatalf("Pull(%s) error: %v", cat, err)
		}
		if status != types.StatusNoAttempt {
			t.Errorf("Pull(%s) = %q, want %q", cat, status, types.StatusNoAttempt)
		}
		if f.hein.begun != 0 || f.westlaw.begun != 0 {
			t.Errorf("Pull(%s) opened sessions", cat)
		}
	}
}

func TestPullJournalIssueOneMergesBothContents(t *testing.T) {
	f := newFixture(t)
	f.hein.session.contents = journalContents("1")
	c := types.Citation{
		Seq:       types.SeqKey{Footnote: 3, Index: 4},
		ShortCite: "73 Yale L.J. 733",
		Filename:  "calabresi",
		Category:  types.CategoryJournal,
	}

	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	if status != types.StatusSuccess {
		t.Fatalf("Pull() = %q, want %q", status, types.StatusSuccess)
	}

	if len(f.assembler.inputs) != 3 {
		t.Fatalf("merged %d parts, want 3: %v", len(f.assembler.inputs), f.assembler.inputs)
	}
	wantOrder := []string{"calabresi-toc.pdf", "calabresi-toc2.pdf", "calabresi-article.pdf"}
	for i, want := range wantOrder {
		if got := filepath.Base(f.assembler.inputs[i]); got != want {
			t.Errorf("merge part %d = %s, want %s", i, got, want)
		}
	}
	if got := filepath.Base(f.assembler.out); got != "calabresi.pdf" {
		t.Errorf("merge output = %s, want calabresi.pdf", got)
	}

	// Part files are cleaned up after the merge.
	for _, part := range f.assembler.inputs {
		if _, err := os.Stat(part); !os.IsNotExist(err) {
			t.Errorf("part file %s not removed", part)
		}
	}
	if f.hein.session.closed != 1 {
		t.Errorf("session closed %d times, want 1", f.hein.session.closed)
	}
}

func TestPullJournalGlobalContentsMergesTwoParts(t *testing.T) {
	f := newFixture(t)
	f.hein.session.contents = &connector.VolumeContents{
		Article:      connector.ContentsEntry{Label: "The Article", Ref: "print?id=article"},
		ArticleIssue: "3",
		TopLevel: []connector.ContentsEntry{
			{Label: "Table of Contents", Ref: "print?id=toc"},
		},
	}
	c := types.Citation{
		Seq:       types.SeqKey{Footnote: 1, Index: 1},
		ShortCite: "110 Harv. L. Rev. 1",
		Filename:  "harv",
		Category:  types.CategoryJournal,
	}

	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	if status != types.StatusSuccess {
		t.Fatalf("Pull() = %q, want %q", status, types.StatusSuccess)
	}
	wantOrder := []string{"harv-toc.pdf", "harv-article.pdf"}
	if len(f.assembler.inputs) != len(wantOrder) {
		t.Fatalf("merged %d parts, want %d", len(f.assembler.inputs), len(wantOrder))
	}
	for i, want := range wantOrder {
		if got := filepath.Base(f.assembler.inputs[i]); got != want {
			t.Errorf("merge part %d = %s, want %s", i, got, want)
		}
	}
}

func TestPullJournalIssueOneGlobalSkipsSecondContents(t *testing.T) {
	f := newFixture(t)
	f.hein.session.contents = &connector.VolumeContents{
		Article:      connector.ContentsEntry{Ref: "print?id=article"},
		ArticleIssue: "1",
		TopLevel: []connector.ContentsEntry{
			{Label: "Table of Contents", Ref: "print?id=toc"},
		},
	}
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 1, Index: 1}, ShortCite: "1 Q 1",
		Filename: "q", Category: types.CategoryJournal,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil || status != types.StatusSuccess {
		t.Fatalf("Pull() = %q, %v", status, err)
	}
	if len(f.assembler.inputs) != 2 {
		t.Fatalf("merged %d parts, want 2: %v", len(f.assembler.inputs), f.assembler.inputs)
	}
}

func TestPullJournalNotFound(t *testing.T) {
	f := newFixture(t)
	f.hein.session.searchErr = connector.ErrNotFound
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 2, Index: 1}, ShortCite: "9 Nowhere J. 1",
		Category: types.CategoryJournal,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	if status != types.StatusNotFound {
		t.Errorf("Pull() = %q, want %q", status, types.StatusNotFound)
	}
	if f.hein.session.closed != 1 {
		t.Errorf("session closed %d times, want 1", f.hein.session.closed)
	}
}

func TestPullJournalFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	f.hein.session.contentsErr = errors.New("sidebar never rendered")
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 2, Index: 2}, ShortCite: "1 X 1",
		Category: types.CategoryJournal,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	if status != types.StatusFailure {
		t.Errorf("Pull() = %q, want %q", status, types.StatusFailure)
	}
}

func TestPullJournalDownloadFailureIsNotNotFound(t *testing.T) {
	f := newFixture(t)
	f.hein.session.contents = journalContents("1")
	f.hein.session.downloadErr = errors.New("transfer never completed")
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 2, Index: 3}, ShortCite: "73 Yale L.J. 733",
		Filename: "y", Category: types.CategoryJournal,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	if status != types.StatusFailure {
		t.Errorf("Pull() = %q, want %q", status, types.StatusFailure)
	}
}

func TestPullSequentialAttemptsReuseDatabase(t *testing.T) {
	f := newFixture(t)
	f.hein.session.contents = journalContents("1")
	for i := 1; i <= 2; i++ {
		c := types.Citation{
			Seq: types.SeqKey{Footnote: i, Index: 1}, ShortCite: "73 Yale L.J. 733",
			Filename: fmt.Sprintf("a%d", i), Category: types.CategoryJournal,
		}
		status, err := f.puller.Pull(context.Background(), c, f.store)
		if err != nil || status != types.StatusSuccess {
			t.Fatalf("Pull() #%d = %q, %v", i, status, err)
		}
	}
	if f.hein.begun != 2 {
		t.Errorf("attempt sessions opened = %d, want 2", f.hein.begun)
	}
	if f.hein.session.closed != 2 {
		t.Errorf("attempt sessions closed = %d, want 2", f.hein.session.closed)
	}
}

func TestPullSessionSetupFailureEscapes(t *testing.T) {
	f := newFixture(t)
	f.hein.beginErr = errors.New("browser did not launch")
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 1, Index: 1}, ShortCite: "1 X 1",
		Category: types.CategoryJournal,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err == nil {
		t.Fatal("Pull() error = nil, want session setup error")
	}
	if status != types.StatusFailure {
		t.Errorf("Pull() = %q, want %q", status, types.StatusFailure)
	}
}

func TestPullFederalStatutePrefersRecentEditions(t *testing.T) {
	f := newFixture(t)
	f.hein.session.ref = "print?id=section"
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 5, Index: 1}, ShortCite: "42 U.S.C.A. 405",
		Filename: "usc-405", Category: types.CategoryFederalStatute,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil || status != types.StatusSuccess {
		t.Fatalf("Pull() = %q, %v", status, err)
	}
	wantEditions := []string{"2018 Edition", "2012 Edition", "Edition"}
	if len(f.hein.session.editions) != len(wantEditions) {
		t.Fatalf("editions = %v, want %v", f.hein.session.editions, wantEditions)
	}
	for i, want := range wantEditions {
		if f.hein.session.editions[i] != want {
			t.Errorf("edition %d = %s, want %s", i, f.hein.session.editions[i], want)
		}
	}
	if got := filepath.Base(f.hein.session.dests[0]); got != "usc-405.pdf" {
		t.Errorf("download dest = %s, want usc-405.pdf", got)
	}
}

func TestPullStateStatuteSearchesStatuteScope(t *testing.T) {
	f := newFixture(t)
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 6, Index: 1}, ShortCite: "Cal. Penal Code 187",
		Filename: "cal-187", Category: types.CategoryStateStatute,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil || status != types.StatusSuccess {
		t.Fatalf("Pull() = %q, %v", status, err)
	}
	if f.westlaw.session.scope != connector.ScopeStatutes {
		t.Errorf("scope = %v, want ScopeStatutes", f.westlaw.session.scope)
	}
	if f.westlaw.session.term != c.ShortCite {
		t.Errorf("term = %q, want %q", f.westlaw.session.term, c.ShortCite)
	}
}

func TestPullSupremeCourtElectronicReporterSkipsArticleDB(t *testing.T) {
	f := newFixture(t)
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 7, Index: 1}, ShortCite: "76 S. Ct. 212",
		Filename: "nelson", Category: types.CategorySupremeCourt,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil || status != types.StatusSuccess {
		t.Fatalf("Pull() = %q, %v", status, err)
	}
	if f.hein.begun != 0 {
		t.Errorf("article database used %d times, want 0", f.hein.begun)
	}
	if f.westlaw.begun != 1 {
		t.Errorf("case database used %d times, want 1", f.westlaw.begun)
	}
	if f.westlaw.session.scope != connector.ScopeCases {
		t.Errorf("scope = %v, want ScopeCases", f.westlaw.session.scope)
	}
}

func TestPullSupremeCourtFallsBackToCaseDB(t *testing.T) {
	f := newFixture(t)
	f.hein.session.pdfVersionErr = connector.ErrNotFound
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 8, Index: 1}, ShortCite: "389 U.S. 347",
		Filename: "katz", Category: types.CategorySupremeCourt,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil || status != types.StatusSuccess {
		t.Fatalf("Pull() = %q, %v", status, err)
	}
	if f.hein.begun != 1 {
		t.Errorf("article database used %d times, want 1", f.hein.begun)
	}
	if f.westlaw.begun != 1 {
		t.Errorf("case database fallback used %d times, want 1", f.westlaw.begun)
	}
	if f.hein.session.closed != 1 {
		t.Errorf("article session closed %d times, want 1", f.hein.session.closed)
	}
}

func TestPullSupremeCourtArticleDBSuccessSkipsFallback(t *testing.T) {
	f := newFixture(t)
	f.hein.session.ref = "print?id=case"
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 8, Index: 2}, ShortCite: "389 U.S. 347",
		Filename: "katz", Category: types.CategorySupremeCourt,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil || status != types.StatusSuccess {
		t.Fatalf("Pull() = %q, %v", status, err)
	}
	if f.westlaw.begun != 0 {
		t.Errorf("case database used %d times, want 0", f.westlaw.begun)
	}
}

func TestPullWebsite(t *testing.T) {
	f := newFixture(t)
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 9, Index: 1}, ShortCite: "https://example.com/report",
		Filename: "report", Category: types.CategoryWebsite,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil || status != types.StatusSuccess {
		t.Fatalf("Pull() = %q, %v", status, err)
	}
	if f.web.url != c.ShortCite {
		t.Errorf("fetched %q, want %q", f.web.url, c.ShortCite)
	}
}

func TestPullWorkingPaper(t *testing.T) {
	f := newFixture(t)
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 10, Index: 1}, ShortCite: "https://ssrn.com/abstract=12345",
		Filename: "paper", Category: types.CategoryWorkingPaper,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil || status != types.StatusSuccess {
		t.Fatalf("Pull() = %q, %v", status, err)
	}
	if f.ssrn.url != c.ShortCite {
		t.Errorf("fetched %q, want %q", f.ssrn.url, c.ShortCite)
	}
}

func TestPullWritesSidecarOnSuccess(t *testing.T) {
	f := newFixture(t)
	c := types.Citation{
		Seq:       types.SeqKey{Footnote: 9, Index: 2},
		LongCite:  "Example Report, https://example.com/report",
		ShortCite: "https://example.com/report",
		Filename:  "report",
		Category:  types.CategoryWebsite,
	}
	if _, err := f.puller.Pull(context.Background(), c, f.store); err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	sc, err := ReadSidecar(f.store.PullPath("report", "yaml"))
	if err != nil {
		t.Fatalf("ReadSidecar() error: %v", err)
	}
	if sc.Seq != "9.02" {
		t.Errorf("sidecar seq = %q, want %q", sc.Seq, "9.02")
	}
	if sc.Category != string(types.CategoryWebsite) {
		t.Errorf("sidecar category = %q, want %q", sc.Category, types.CategoryWebsite)
	}
}

func TestPullNoSidecarOnFailure(t *testing.T) {
	f := newFixture(t)
	f.web.fetchErr = errors.New("fetch blew up")
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 9, Index: 3}, ShortCite: "https://example.com",
		Filename: "gone", Category: types.CategoryWebsite,
	}
	status, err := f.puller.Pull(context.Background(), c, f.store)
	if err != nil || status != types.StatusFailure {
		t.Fatalf("Pull() = %q, %v", status, err)
	}
	if _, err := os.Stat(f.store.PullPath("gone", "yaml")); !os.IsNotExist(err) {
		t.Error("sidecar written for failed pull")
	}
}

func TestPullFallsBackToSeqFilename(t *testing.T) {
	f := newFixture(t)
	c := types.Citation{
		Seq: types.SeqKey{Footnote: 12, Index: 4}, ShortCite: "https://example.com",
		Category: types.CategoryWebsite,
	}
	if _, err := f.puller.Pull(context.Background(), c, f.store); err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	if !strings.HasSuffix(f.web.url, "example.com") {
		t.Fatalf("unexpected url %q", f.web.url)
	}
	if _, err := os.Stat(f.store.PullPath("12.04", "pdf")); err != nil {
		t.Errorf("artifact not written under seq name: %v", err)
	}
}

func TestLoginSkipsAuthenticatedDatabases(t *testing.T) {
	f := newFixture(t)
	f.hein.authed = true
	creds := map[string]secrets.Credentials{
		"westlaw": {Username: "w", Password: "w"},
		"ssrn":    {Username: "s", Password: "s"},
	}
	if err := f.puller.Login(context.Background(), creds); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if f.hein.loggedIn {
		t.Error("already-authenticated database was logged in again")
	}
	if !f.westlaw.loggedIn || !f.ssrn.loggedIn {
		t.Error("unauthenticated databases were not logged in")
	}
}

func TestLoginPropagatesFailure(t *testing.T) {
	f := newFixture(t)
	f.hein.loginErr = connector.ErrAuthFailed
	err := f.puller.Login(context.Background(), nil)
	if !errors.Is(err, connector.ErrAuthFailed) {
		t.Fatalf("Login() error = %v, want ErrAuthFailed", err)
	}
}

func TestAllAuthenticated(t *testing.T) {
	f := newFixture(t)
	f.hein.authed = true
	f.westlaw.authed = true
	if f.puller.AllAuthenticated(context.Background()) {
		t.Error("AllAuthenticated() = true with ssrn unauthenticated")
	}
	f.ssrn.authed = true
	if !f.puller.AllAuthenticated(context.Background()) {
		t.Error("AllAuthenticated() = false with all databases authenticated")
	}
}

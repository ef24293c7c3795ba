// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package puller orchestrates retrieval attempts. It routes each
// classified citation to the connector that holds its source, runs the
// category's retrieval recipe, and folds every outcome into a
// worklist status. Errors never escape an attempt except when the
// browser session itself cannot be established.
package puller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/meshintel/sourcepull/internal/assemble"
	"github.com/meshintel/sourcepull/internal/classify"
	"github.com/meshintel/sourcepull/internal/connector"
	"github.com/meshintel/sourcepull/internal/secrets"
	"github.com/meshintel/sourcepull/pkg/types"
)

// Federal code editions in preference order. The trailing bare label
// matches whatever edition the volume offers when neither preferred
// year is digitized.
var codeEditions = []string{"2018 Edition", "2012 Edition", "Edition"}

// ArtifactStore resolves output paths for pulled artifacts. The
// project layer implements it.
type ArtifactStore interface {
	// PullPath returns the absolute path for an artifact named name
	// with the given extension ("" for no extension).
	PullPath(name, ext string) string
}

// Assembler combines part files into the final artifact. Satisfied by
// the PDF toolchain in production.
type Assembler interface {
	Merge(paths []string, outPath string) error
}

type pdfAssembler struct{}

func (pdfAssembler) Merge(paths []string, outPath string) error {
	return assemble.Merge(paths, outPath)
}

// Deps are the connectors and collaborators a Puller drives.
type Deps struct {
	Hein    connector.ArticleDatabase
	Westlaw connector.CaseDatabase
	SSRN    connector.PaperSite
	Web     connector.WebFetcher

	// Assembler defaults to the PDF toolchain when nil.
	Assembler Assembler

	Logger *zap.Logger
}

// Puller runs retrieval attempts against the configured connectors.
// Methods are not safe for concurrent use; the worklist is processed
// one citation at a time.
type Puller struct {
	hein      connector.ArticleDatabase
	westlaw   connector.CaseDatabase
	ssrn      connector.PaperSite
	web       connector.WebFetcher
	assembler Assembler
	logger    *zap.Logger
}

func New(deps Deps) *Puller {
	if deps.Assembler == nil {
		deps.Assembler = pdfAssembler{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Puller{
		hein:      deps.Hein,
		westlaw:   deps.Westlaw,
		ssrn:      deps.SSRN,
		web:       deps.Web,
		assembler: deps.Assembler,
		logger:    deps.Logger.Named("puller"),
	}
}

// authenticators in login order. Hein goes first because its login
// blocks on a push approval and the user should deal with that before
// the quick ones.
func (p *Puller) authenticators() []connector.Authenticator {
	return []connector.Authenticator{p.hein, p.westlaw, p.ssrn}
}

// AllAuthenticated probes every database with a live check.
func (p *Puller) AllAuthenticated(ctx context.Context) bool {
	ok := true
	for _, a := range p.authenticators() {
		authed := a.Authenticated(ctx)
		p.logger.Info("authentication probe",
			zap.String("database", a.Name()), zap.Bool("authenticated", authed))
		ok = ok && authed
	}
	return ok
}

// Login authenticates every database that is not already logged in,
// then applies per-session configuration.
func (p *Puller) Login(ctx context.Context, creds map[string]secrets.Credentials) error {
	for _, a := range p.authenticators() {
		if a.Authenticated(ctx) {
			p.logger.Info("already authenticated", zap.String("database", a.Name()))
			continue
		}
		if err := a.Login(ctx, creds[a.Name()]); err != nil {
			return fmt.Errorf("logging in to %s: %w", a.Name(), err)
		}
		if err := a.Configure(ctx); err != nil {
			p.logger.Warn("session configuration failed",
				zap.String("database", a.Name()), zap.Error(err))
		}
	}
	return nil
}

// Pull runs one retrieval attempt and reports the resulting worklist
// status. The returned error is non-nil only for session setup
// failures, which abort the whole run; everything else is folded into
// the status.
func (p *Puller) Pull(ctx context.Context, c types.Citation, store ArtifactStore) (types.RetrievalStatus, error) {
	if !c.Category.Retrievable() {
		p.logger.Info("skipping citation",
			zap.String("seq", c.Seq.String()), zap.String("category", string(c.Category)))
		return types.StatusNoAttempt, nil
	}
	p.logger.Info("pulling",
		zap.String("seq", c.Seq.String()),
		zap.String("category", string(c.Category)),
		zap.String("short_cite", c.ShortCite))

	var status types.RetrievalStatus
	var err error
	switch c.Category {
	case types.CategoryWebsite:
		status, err = p.pullWebsite(ctx, c, store)
	case types.CategoryWorkingPaper:
		status, err = p.pullWorkingPaper(ctx, c, store)
	case types.CategoryJournal:
		status, err = p.pullJournal(ctx, c, store)
	case types.CategoryStateStatute:
		status, err = p.pullCase(ctx, c, store, connector.ScopeStatutes)
	case types.CategoryFederalStatute:
		status, err = p.pullFederalStatute(ctx, c, store)
	case types.CategorySupremeCourt:
		status, err = p.pullSupremeCourt(ctx, c, store)
	case types.CategoryOtherCourt:
		status, err = p.pullCase(ctx, c, store, connector.ScopeCases)
	default:
		return types.StatusNoAttempt, nil
	}
	if err != nil {
		return status, err
	}
	if status == types.StatusSuccess {
		if err := writeSidecar(c, store.PullPath(artifactName(c), "yaml")); err != nil {
			p.logger.Warn("sidecar not written",
				zap.String("seq", c.Seq.String()), zap.Error(err))
		}
	}
	p.logger.Info("pull finished",
		zap.String("seq", c.Seq.String()), zap.String("status", string(status)))
	return status, nil
}

// statusFor folds an attempt error into a worklist status.
func statusFor(err error) types.RetrievalStatus {
	switch {
	case err == nil:
		return types.StatusSuccess
	case errors.Is(err, connector.ErrNotFound):
		return types.StatusNotFound
	default:
		return types.StatusFailure
	}
}

// artifactName is the output basename for a citation, falling back to
// the sequence key when the worklist carries no filename.
func artifactName(c types.Citation) string {
	if c.Filename != "" {
		return c.Filename
	}
	return c.Seq.String()
}

func (p *Puller) finish(c types.Citation, err error) (types.RetrievalStatus, error) {
	status := statusFor(err)
	if err != nil {
		p.logger.Warn("attempt failed",
			zap.String("seq", c.Seq.String()),
			zap.String("status", string(status)),
			zap.Error(err))
	}
	return status, nil
}

func (p *Puller) pullWebsite(ctx context.Context, c types.Citation, store ArtifactStore) (types.RetrievalStatus, error) {
	_, err := p.web.Fetch(ctx, c.ShortCite, store.PullPath(artifactName(c), ""))
	return p.finish(c, err)
}

func (p *Puller) pullWorkingPaper(ctx context.Context, c types.Citation, store ArtifactStore) (types.RetrievalStatus, error) {
	err := p.ssrn.FetchPaper(ctx, c.ShortCite, store.PullPath(artifactName(c), "pdf"))
	return p.finish(c, err)
}

func (p *Puller) pullJournal(ctx context.Context, c types.Citation, store ArtifactStore) (types.RetrievalStatus, error) {
	s, err := p.hein.Begin(ctx)
	if err != nil {
		return types.StatusFailure, fmt.Errorf("starting article session: %w", err)
	}
	defer s.Close()
	return p.finish(c, p.journalAttempt(ctx, s, c, store))
}

// journalAttempt retrieves the article plus the tables of contents
// covering it, then merges the parts contents-first.
func (p *Puller) journalAttempt(ctx context.Context, s connector.ArticleSession, c types.Citation, store ArtifactStore) error {
	if err := s.Search(ctx, c.ShortCite); err != nil {
		return err
	}
	vc, err := s.Contents(ctx)
	if err != nil {
		return err
	}

	name := artifactName(c)
	articlePath := store.PullPath(name+"-article", "pdf")
	if err := s.Download(ctx, vc.Article.Ref, articlePath); err != nil {
		return err
	}
	parts := []string{articlePath}

	toc, strategy, ok := findTOC(vc, vc.ArticleIssue)
	if !ok {
		return fmt.Errorf("no table of contents for issue %q", vc.ArticleIssue)
	}
	p.logger.Debug("table of contents located",
		zap.String("strategy", strategy.String()), zap.String("issue", vc.ArticleIssue))
	tocPath := store.PullPath(name+"-toc", "pdf")
	if err := s.Download(ctx, toc.Ref, tocPath); err != nil {
		return err
	}
	ordered := []string{tocPath}

	// Issue 1 articles commonly spill into issue 2, so its table of
	// contents rides along. A volume-wide table of contents already
	// covers both.
	if vc.ArticleIssue == "1" && strategy != tocGlobal {
		toc2, ok := findIssueTOC(vc, "2", strategy)
		if !ok {
			return fmt.Errorf("no table of contents for issue 2 (strategy %s)", strategy)
		}
		toc2Path := store.PullPath(name+"-toc2", "pdf")
		if err := s.Download(ctx, toc2.Ref, toc2Path); err != nil {
			return err
		}
		ordered = append(ordered, toc2Path)
	}
	ordered = append(ordered, parts...)

	merged := store.PullPath(name, "pdf")
	if err := p.assembler.Merge(ordered, merged); err != nil {
		return err
	}
	for _, part := range ordered {
		if err := os.Remove(part); err != nil {
			p.logger.Warn("could not remove part file", zap.String("path", part), zap.Error(err))
		}
	}
	return nil
}

func (p *Puller) pullFederalStatute(ctx context.Context, c types.Citation, store ArtifactStore) (types.RetrievalStatus, error) {
	s, err := p.hein.Begin(ctx)
	if err != nil {
		return types.StatusFailure, fmt.Errorf("starting article session: %w", err)
	}
	defer s.Close()
	return p.finish(c, p.federalStatuteAttempt(ctx, s, c, store))
}

func (p *Puller) federalStatuteAttempt(ctx context.Context, s connector.ArticleSession, c types.Citation, store ArtifactStore) error {
	if err := s.Search(ctx, c.ShortCite); err != nil {
		return err
	}
	if err := s.ChooseCodeEdition(ctx, codeEditions); err != nil {
		return err
	}
	ref, err := s.SectionRef(ctx)
	if err != nil {
		return err
	}
	return s.Download(ctx, ref, store.PullPath(artifactName(c), "pdf"))
}

// pullSupremeCourt tries the article database's scanned reporters
// first, unless the citation only exists in the Supreme Court Reporter,
// which that database does not carry. Any non-success falls through to
// the case database.
func (p *Puller) pullSupremeCourt(ctx context.Context, c types.Citation, store ArtifactStore) (types.RetrievalStatus, error) {
	if classify.IsWestlawReporter(c.ShortCite) {
		p.logger.Debug("short cite uses an electronic reporter format",
			zap.String("seq", c.Seq.String()), zap.String("short_cite", c.ShortCite))
	}

	sctOnly := strings.Contains(strings.ReplaceAll(strings.ToLower(c.ShortCite), " ", ""), "s.ct")
	if !sctOnly {
		s, err := p.hein.Begin(ctx)
		if err != nil {
			return types.StatusFailure, fmt.Errorf("starting article session: %w", err)
		}
		attemptErr := p.supremeCourtAttempt(ctx, s, c, store)
		s.Close()
		if attemptErr == nil {
			return types.StatusSuccess, nil
		}
		p.logger.Info("article database attempt failed, falling back",
			zap.String("seq", c.Seq.String()), zap.Error(attemptErr))
	}
	return p.pullCase(ctx, c, store, connector.ScopeCases)
}

func (p *Puller) supremeCourtAttempt(ctx context.Context, s connector.ArticleSession, c types.Citation, store ArtifactStore) error {
	if err := s.Search(ctx, c.ShortCite); err != nil {
		return err
	}
	if err := s.OpenPDFVersion(ctx); err != nil {
		return err
	}
	ref, err := s.SectionRef(ctx)
	if err != nil {
		return err
	}
	return s.Download(ctx, ref, store.PullPath(artifactName(c), "pdf"))
}

func (p *Puller) pullCase(ctx context.Context, c types.Citation, store ArtifactStore, scope connector.SearchScope) (types.RetrievalStatus, error) {
	s, err := p.westlaw.Begin(ctx)
	if err != nil {
		return types.StatusFailure, fmt.Errorf("starting case session: %w", err)
	}
	defer s.Close()
	return p.finish(c, p.caseAttempt(ctx, s, c, store, scope))
}

func (p *Puller) caseAttempt(ctx context.Context, s connector.CaseSession, c types.Citation, store ArtifactStore, scope connector.SearchScope) error {
	if err := s.Search(ctx, scope, c.ShortCite); err != nil {
		return err
	}
	return s.Download(ctx, store.PullPath(artifactName(c), "pdf"))
}

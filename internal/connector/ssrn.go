// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/meshintel/sourcepull/internal/browser"
	"github.com/meshintel/sourcepull/internal/secrets"
	"github.com/meshintel/sourcepull/pkg/types"
)

var (
	ssrnSignInURL  = "https://hq.ssrn.com/login/pubSignInJoin.cfm"
	ssrnLibraryURL = "https://hq.ssrn.com/Library/myLibrary.cfm"
)

// SSRN drives the working-paper repository. Papers are public but the
// download action is only reliable behind a signed-in session.
type SSRN struct {
	session *browser.Session
	cfg     types.PullerConfig
	logger  *zap.Logger
}

func NewSSRN(session *browser.Session, cfg types.PullerConfig, logger *zap.Logger) *SSRN {
	return &SSRN{session: session, cfg: cfg, logger: logger.Named("ssrn")}
}

func (s *SSRN) Name() string { return "ssrn" }

func (s *SSRN) Authenticated(ctx context.Context) bool {
	tab, cancel, err := s.session.Page(ctx)
	if err != nil {
		s.logger.Warn("auth probe could not open page", zap.Error(err))
		return false
	}
	defer cancel()

	var loginVisible bool
	err = run(tab, s.cfg.AuthTimeout,
		chromedp.Navigate(ssrnLibraryURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`[...document.querySelectorAll('a')].some(a => (a.textContent || '').includes('Forgot password'))`, &loginVisible),
	)
	if err != nil {
		s.logger.Warn("auth probe failed", zap.Error(err))
		return false
	}
	return !loginVisible
}

func (s *SSRN) Login(ctx context.Context, creds secrets.Credentials) error {
	if creds.Empty() {
		return fmt.Errorf("ssrn: %w: no credentials", ErrAuthFailed)
	}
	tab, cancel, err := s.session.Page(ctx)
	if err != nil {
		return fmt.Errorf("ssrn login: %w", err)
	}
	defer cancel()

	if err := run(tab, s.cfg.StepTimeout, chromedp.Navigate(ssrnSignInURL), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("ssrn: %w: opening sign-in page: %v", ErrAuthFailed, err)
	}

	// Cookie banner blocks the form when present. Dismiss and move on.
	_ = run(tab, s.cfg.StepTimeout, chromedp.Click("#onetrust-accept-btn-handler", chromedp.ByID))

	err = run(tab, s.cfg.AuthTimeout,
		chromedp.WaitVisible(`input[name="input-email"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="input-email"]`, creds.Username, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="input-pass"]`, creds.Password, chromedp.ByQuery),
		chromedp.Click("#signinBtn", chromedp.ByID),
		chromedp.WaitVisible(".leftmenuTD", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("ssrn: %w: submitting login form: %v", ErrAuthFailed, err)
	}
	s.logger.Info("logged in")
	return nil
}

func (s *SSRN) Configure(ctx context.Context) error { return nil }

// FetchPaper opens the paper page and triggers its download action.
func (s *SSRN) FetchPaper(ctx context.Context, url, destPath string) error {
	tab, cancel, err := s.session.Page(ctx)
	if err != nil {
		return fmt.Errorf("ssrn fetch: %w", err)
	}
	defer cancel()

	err = run(tab, s.cfg.StepTimeout,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`//a[contains(., "Download This Paper")]`, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("ssrn fetch %q: %w", url, ErrNotFound)
	}
	err = browser.ExpectDownload(tab, s.session.DownloadDir(), destPath, s.cfg.DownloadTimeout,
		chromedp.Click(`//a[contains(., "Download This Paper")]`, chromedp.BySearch))
	if err != nil {
		return fmt.Errorf("ssrn fetch %q: %w", url, err)
	}
	s.logger.Debug("downloaded paper", zap.String("url", url), zap.String("path", destPath))
	return nil
}

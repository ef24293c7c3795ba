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
	westlawSignOnURL   = "https://signon.thomsonreuters.com/"
	westlawHomeURL     = "https://1.next.westlaw.com/"
	westlawCasesURL    = "https://1.next.westlaw.com/Browse/Home/Cases"
	westlawStatutesURL = "https://1.next.westlaw.com/Browse/Home/StatutesCourtRules"
)

// Westlaw drives the Westlaw case and statute database.
type Westlaw struct {
	session *browser.Session
	cfg     types.PullerConfig
	logger  *zap.Logger
}

func NewWestlaw(session *browser.Session, cfg types.PullerConfig, logger *zap.Logger) *Westlaw {
	return &Westlaw{session: session, cfg: cfg, logger: logger.Named("westlaw")}
}

func (w *Westlaw) Name() string { return "westlaw" }

func (w *Westlaw) Authenticated(ctx context.Context) bool {
	tab, cancel, err := w.session.Page(ctx)
	if err != nil {
		w.logger.Warn("auth probe could not open page", zap.Error(err))
		return false
	}
	defer cancel()

	var loginVisible bool
	err = run(tab, w.cfg.AuthTimeout,
		chromedp.Navigate(westlawHomeURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`document.querySelector('#Username') !== null && document.querySelector('#Password') !== null`, &loginVisible),
	)
	if err != nil {
		w.logger.Warn("auth probe failed", zap.Error(err))
		return false
	}
	return !loginVisible
}

func (w *Westlaw) Login(ctx context.Context, creds secrets.Credentials) error {
	if creds.Empty() {
		return fmt.Errorf("westlaw: %w: no credentials", ErrAuthFailed)
	}
	tab, cancel, err := w.session.Page(ctx)
	if err != nil {
		return fmt.Errorf("westlaw login: %w", err)
	}
	defer cancel()

	err = run(tab, w.cfg.AuthTimeout,
		chromedp.Navigate(westlawSignOnURL),
		chromedp.WaitVisible("#Username", chromedp.ByID),
		chromedp.SendKeys("#Username", creds.Username, chromedp.ByID),
		chromedp.SendKeys("#Password", creds.Password, chromedp.ByID),
		chromedp.Click("#SignIn", chromedp.ByID),
	)
	if err != nil {
		return fmt.Errorf("westlaw: %w: submitting login form: %v", ErrAuthFailed, err)
	}
	if err := run(tab, w.cfg.PushTimeout, chromedp.WaitVisible("#searchButton", chromedp.ByID)); err != nil {
		return fmt.Errorf("westlaw: %w: waiting for home page: %v", ErrAuthFailed, err)
	}
	w.logger.Info("logged in")
	return nil
}

// Configure widens the jurisdiction selector to all state and federal
// material so searches never miss on scope. Best effort only.
func (w *Westlaw) Configure(ctx context.Context) error {
	tab, cancel, err := w.session.Page(ctx)
	if err != nil {
		w.logger.Warn("configure could not open page", zap.Error(err))
		return nil
	}
	defer cancel()

	err = run(tab, w.cfg.AuthTimeout,
		chromedp.Navigate(westlawHomeURL),
		chromedp.Click("#jurisdictionId", chromedp.ByID),
		chromedp.WaitVisible("#co_clearSelectedJurisdictionsBtn", chromedp.ByID),
		chromedp.Click("#co_clearSelectedJurisdictionsBtn", chromedp.ByID),
		chromedp.Click("#co_state_all", chromedp.ByID),
		chromedp.Click("#co_fed_all", chromedp.ByID),
		chromedp.Click("#co_jurisdictionSave", chromedp.ByID),
	)
	if err != nil {
		w.logger.Warn("jurisdiction configure failed", zap.Error(err))
	}
	return nil
}

func (w *Westlaw) Begin(ctx context.Context) (CaseSession, error) {
	tab, cancel, err := w.session.Page(ctx)
	if err != nil {
		return nil, fmt.Errorf("westlaw session: %w", err)
	}
	return &westlawSession{westlaw: w, tab: tab, cancel: cancel}, nil
}

type westlawSession struct {
	westlaw *Westlaw
	tab     context.Context
	cancel  context.CancelFunc
}

func (s *westlawSession) Close() { s.cancel() }

// Search runs the citation from the scoped browse page. A result is
// recognized by the document header rendering a title; anything else
// within the step bound is an explicit miss.
func (s *westlawSession) Search(ctx context.Context, scope SearchScope, term string) error {
	w := s.westlaw
	url := westlawCasesURL
	if scope == ScopeStatutes {
		url = westlawStatutesURL
	}
	err := run(s.tab, w.cfg.StepTimeout,
		chromedp.Navigate(url),
		chromedp.WaitVisible("#searchInputId", chromedp.ByID),
		chromedp.SendKeys("#searchInputId", term, chromedp.ByID),
		chromedp.Click("#searchButton", chromedp.ByID),
	)
	if err != nil {
		return fmt.Errorf("westlaw search %q: %w", term, err)
	}
	err = run(s.tab, w.cfg.StepTimeout, chromedp.WaitVisible("#co_docHeader #title", chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("westlaw search %q: %w", term, ErrNotFound)
	}
	return nil
}

// selectOptionJS sets a select's value the way a user pick does. The
// delivery dialog watches for the change event, so a silent value write
// leaves the form state untouched.
func selectOptionJS(selector, value string) string {
	return fmt.Sprintf(`(() => {
		const s = document.querySelector(%q);
		s.value = %q;
		s.dispatchEvent(new Event('change', {bubbles: true}));
	})()`, selector, value)
}

// Download prefers the scanned original image when the document offers
// one, otherwise walks the delivery dialog with the cover page
// disabled and the format forced to PDF.
func (s *westlawSession) Download(ctx context.Context, destPath string) error {
	w := s.westlaw

	var hasImage bool
	err := run(s.tab, w.cfg.StepTimeout,
		chromedp.Evaluate(`[...document.querySelectorAll('a')].some(a => (a.textContent || '').includes('Original Image'))`, &hasImage),
	)
	if err != nil {
		return fmt.Errorf("westlaw download: %w", err)
	}

	if hasImage {
		w.logger.Debug("downloading original image", zap.String("path", destPath))
		err = browser.ExpectDownload(s.tab, w.session.DownloadDir(), destPath, w.cfg.DownloadTimeout,
			chromedp.Click(`//a[contains(., "Original Image")]`, chromedp.BySearch))
		if err != nil {
			return fmt.Errorf("westlaw download original image: %w", err)
		}
		return nil
	}

	w.logger.Debug("downloading via delivery dialog", zap.String("path", destPath))
	err = run(s.tab, w.cfg.StepTimeout,
		chromedp.Click("#deliveryLink1", chromedp.ByID),
		chromedp.WaitVisible("#co_deliveryOptionsTab1", chromedp.ByID),
		chromedp.Click("#co_deliveryOptionsTab1", chromedp.ByID),
		chromedp.WaitVisible("#co_delivery_format_fulltext", chromedp.ByID),
		chromedp.Evaluate(selectOptionJS("#co_delivery_format_fulltext", "Pdf"), nil),
		chromedp.Click("#co_deliveryOptionsTab2", chromedp.ByID),
		// The cover page checkbox toggles on click, so only click it
		// when it is actually checked.
		chromedp.Evaluate(`(() => {
			const c = document.querySelector('#coid_chkDdcLayoutCoverPage');
			if (c && c.checked) c.click();
		})()`, nil),
		chromedp.Click("#co_deliveryDownloadButton", chromedp.ByID),
		chromedp.WaitVisible("#coid_deliveryWaitMessage_downloadButton", chromedp.ByID),
	)
	if err != nil {
		return fmt.Errorf("westlaw delivery dialog: %w", err)
	}
	err = browser.ExpectDownload(s.tab, w.session.DownloadDir(), destPath, w.cfg.DownloadTimeout,
		chromedp.Click("#coid_deliveryWaitMessage_downloadButton", chromedp.ByID))
	if err != nil {
		return fmt.Errorf("westlaw delivery download: %w", err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/meshintel/sourcepull/internal/assemble"
	"github.com/meshintel/sourcepull/internal/browser"
	"github.com/meshintel/sourcepull/internal/secrets"
	"github.com/meshintel/sourcepull/pkg/types"
)

// Hein endpoints. Vars so institutional proxy prefixes can be swapped
// in.
var (
	heinWelcomeURL = "https://heinonline.org/HOL/Welcome"
	heinBaseURL    = "https://heinonline.org/HOL/"
	heinLoginURL   = "https://heinonline.org/HOL/Welcome"
)

// Phrases the result page uses to report an explicit miss.
var heinNotFoundMarkers = []string{
	"No matching results",
	"Citation Not Found",
	"could not be found.",
}

// Hein drives the HeinOnline article and statute database.
type Hein struct {
	session *browser.Session
	cfg     types.PullerConfig
	logger  *zap.Logger
}

func NewHein(session *browser.Session, cfg types.PullerConfig, logger *zap.Logger) *Hein {
	return &Hein{session: session, cfg: cfg, logger: logger.Named("hein")}
}

func (h *Hein) Name() string { return "hein" }

// Authenticated probes the welcome page for a login form. Any probe
// error reads as not authenticated.
func (h *Hein) Authenticated(ctx context.Context) bool {
	tab, cancel, err := h.session.Page(ctx)
	if err != nil {
		h.logger.Warn("auth probe could not open page", zap.Error(err))
		return false
	}
	defer cancel()

	var loginVisible bool
	err = run(tab, h.cfg.AuthTimeout,
		chromedp.Navigate(heinWelcomeURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`document.querySelector('#username') !== null && document.querySelector('#password') !== null`, &loginVisible),
	)
	if err != nil {
		h.logger.Warn("auth probe failed", zap.Error(err))
		return false
	}
	return !loginVisible
}

// Login submits institutional credentials and waits out the two-factor
// push approval. The push wait runs under the long push bound, not the
// step bound.
func (h *Hein) Login(ctx context.Context, creds secrets.Credentials) error {
	if creds.Empty() {
		return fmt.Errorf("hein: %w: no credentials", ErrAuthFailed)
	}
	tab, cancel, err := h.session.Page(ctx)
	if err != nil {
		return fmt.Errorf("hein login: %w", err)
	}
	defer cancel()

	err = run(tab, h.cfg.AuthTimeout,
		chromedp.Navigate(heinLoginURL),
		chromedp.WaitVisible("#username", chromedp.ByID),
		chromedp.SendKeys("#username", creds.Username, chromedp.ByID),
		chromedp.SendKeys("#password", creds.Password, chromedp.ByID),
		chromedp.Click(`input[type="submit"]`, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("hein: %w: submitting login form: %v", ErrAuthFailed, err)
	}

	if err := h.approvePush(tab); err != nil {
		return err
	}

	// The search area only renders once the push is approved.
	if err := run(tab, h.cfg.PushTimeout, chromedp.WaitVisible("#search_area", chromedp.ByID)); err != nil {
		return fmt.Errorf("hein: %w: waiting for push approval: %v", ErrAuthFailed, err)
	}
	h.logger.Info("logged in")
	return nil
}

// approvePush clicks the "send push" button inside the two-factor
// iframe when one appears. No iframe means the session skipped the
// second factor, which is fine.
func (h *Hein) approvePush(tab context.Context) error {
	var frames []*cdp.Node
	err := run(tab, h.cfg.StepTimeout,
		chromedp.WaitVisible("#duo_iframe", chromedp.ByID),
		chromedp.Nodes("#duo_iframe", &frames, chromedp.ByID),
	)
	if err != nil || len(frames) == 0 {
		h.logger.Debug("no two-factor prompt presented")
		return nil
	}
	err = run(tab, h.cfg.StepTimeout,
		chromedp.Click(`button.auth-button.positive`, chromedp.ByQuery, chromedp.FromNode(frames[0])),
	)
	if err != nil {
		return fmt.Errorf("hein: %w: triggering push: %v", ErrAuthFailed, err)
	}
	h.logger.Info("two-factor push sent, waiting for approval")
	return nil
}

// Configure is a no-op; Hein keeps no per-session settings.
func (h *Hein) Configure(ctx context.Context) error { return nil }

// Begin opens a fresh page for one retrieval attempt.
func (h *Hein) Begin(ctx context.Context) (ArticleSession, error) {
	tab, cancel, err := h.session.Page(ctx)
	if err != nil {
		return nil, fmt.Errorf("hein session: %w", err)
	}
	return &heinSession{hein: h, tab: tab, cancel: cancel}, nil
}

type heinSession struct {
	hein   *Hein
	tab    context.Context
	cancel context.CancelFunc
}

func (s *heinSession) Close() { s.cancel() }

// citationQuery builds a query using Hein's citation search operator,
// which takes no space after the colon.
func citationQuery(term string) string {
	return "citation:" + term
}

// Search runs a citation-syntax search from the welcome page.
func (s *heinSession) Search(ctx context.Context, term string) error {
	h := s.hein
	err := run(s.tab, h.cfg.StepTimeout,
		chromedp.Navigate(heinWelcomeURL),
		chromedp.WaitVisible("#full_text_terms", chromedp.ByID),
		chromedp.SendKeys("#full_text_terms", citationQuery(term), chromedp.ByID),
		chromedp.Click("#sendit_full_text", chromedp.ByID),
		chromedp.WaitVisible("#page_content", chromedp.ByID),
	)
	if err != nil {
		return fmt.Errorf("hein search %q: %w", term, err)
	}

	var pageText string
	if err := run(s.tab, h.cfg.StepTimeout, chromedp.Text("#page_content", &pageText, chromedp.ByID)); err != nil {
		return fmt.Errorf("hein search %q: reading result page: %w", term, err)
	}
	for _, marker := range heinNotFoundMarkers {
		if strings.Contains(pageText, marker) {
			h.logger.Debug("search reported no match", zap.String("term", term), zap.String("marker", marker))
			return fmt.Errorf("hein search %q: %w", term, ErrNotFound)
		}
	}
	return nil
}

// contentsJS walks the contents sidebar around the highlighted search
// hit and returns it as structured data. Selectors live here so layout
// drift is a one-place fix.
const contentsJS = `(() => {
	const ref = (li) => {
		const a = li.querySelector('a.contents_print');
		return a ? (a.getAttribute('href') || '') : '';
	};
	const label = (li) => (li.textContent || '').replace(/\s+/g, ' ').trim();
	const issueNumber = (text) => {
		const m = /Issue\s+(\d+)/.exec(text);
		return m ? m[1] : '';
	};

	const hit = document.querySelector('li.atocpage.sectionhighlight');
	if (!hit) return null;

	const out = {
		article: {label: label(hit), ref: ref(hit)},
		articleIssue: '',
		issues: [],
		topLevel: [],
	};

	const submenu = hit.closest('ul.dropdown-submenu');
	if (submenu && submenu.previousElementSibling) {
		out.articleIssue = issueNumber(submenu.previousElementSibling.textContent || '');
	}

	const root = document.querySelector('#contents-show');
	if (!root) return out;
	for (const child of root.children) {
		if (child.tagName === 'UL' && child.classList.contains('dropdown-submenu')) {
			const heading = child.previousElementSibling;
			const issue = {
				number: heading ? issueNumber(heading.textContent || '') : '',
				entries: [],
			};
			for (const li of child.querySelectorAll('li')) {
				issue.entries.push({label: label(li), ref: ref(li)});
			}
			out.issues.push(issue);
		} else if (child.tagName === 'LI') {
			out.topLevel.push({label: label(child), ref: ref(child)});
		}
	}
	return out;
})()`

type contentsPayload struct {
	Article struct {
		Label string `json:"label"`
		Ref   string `json:"ref"`
	} `json:"article"`
	ArticleIssue string `json:"articleIssue"`
	Issues       []struct {
		Number  string `json:"number"`
		Entries []struct {
			Label string `json:"label"`
			Ref   string `json:"ref"`
		} `json:"entries"`
	} `json:"issues"`
	TopLevel []struct {
		Label string `json:"label"`
		Ref   string `json:"ref"`
	} `json:"topLevel"`
}

// Contents waits for the search hit to be highlighted in the contents
// sidebar and parses the surrounding volume structure.
func (s *heinSession) Contents(ctx context.Context) (*VolumeContents, error) {
	h := s.hein
	err := run(s.tab, h.cfg.StepTimeout, chromedp.WaitVisible("li.atocpage.sectionhighlight", chromedp.ByQuery))
	if err != nil {
		return nil, fmt.Errorf("hein contents: %w", ErrNotFound)
	}

	var payload *contentsPayload
	if err := run(s.tab, h.cfg.StepTimeout, chromedp.Evaluate(contentsJS, &payload)); err != nil {
		return nil, fmt.Errorf("hein contents: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("hein contents: %w", ErrNotFound)
	}

	return payload.toVolumeContents(), nil
}

func (p *contentsPayload) toVolumeContents() *VolumeContents {
	vc := &VolumeContents{
		Article:      ContentsEntry{Label: p.Article.Label, Ref: p.Article.Ref},
		ArticleIssue: p.ArticleIssue,
	}
	for _, e := range p.TopLevel {
		vc.TopLevel = append(vc.TopLevel, ContentsEntry{Label: e.Label, Ref: e.Ref})
	}
	for _, iss := range p.Issues {
		ci := ContentsIssue{Number: iss.Number}
		for _, e := range iss.Entries {
			ci.Entries = append(ci.Entries, ContentsEntry{Label: e.Label, Ref: e.Ref})
		}
		vc.Issues = append(vc.Issues, ci)
	}
	return vc
}

// ChooseCodeEdition confirms the result is a code citation page, then
// follows the first edition link whose text contains one of the
// preferred labels, in order.
func (s *heinSession) ChooseCodeEdition(ctx context.Context, preferred []string) error {
	h := s.hein
	var pageText string
	err := run(s.tab, h.cfg.StepTimeout,
		chromedp.WaitVisible("#page_content", chromedp.ByID),
		chromedp.Text("#page_content", &pageText, chromedp.ByID),
	)
	if err != nil || !strings.Contains(pageText, "U.S. Code Citation") {
		return fmt.Errorf("hein code edition: %w", ErrNotFound)
	}

	for _, want := range preferred {
		js := fmt.Sprintf(`(() => {
			for (const a of document.querySelectorAll('#page_content a')) {
				if ((a.textContent || '').includes(%q)) return a.getAttribute('href') || '';
			}
			return '';
		})()`, want)
		var href string
		if err := run(s.tab, h.cfg.StepTimeout, chromedp.Evaluate(js, &href)); err != nil {
			return fmt.Errorf("hein code edition: %w", err)
		}
		if href == "" {
			continue
		}
		h.logger.Debug("selected code edition", zap.String("label", want))
		err := run(s.tab, h.cfg.StepTimeout,
			chromedp.Navigate(heinBaseURL+href),
			chromedp.WaitVisible("li.atocpage.sectionhighlight", chromedp.ByQuery),
		)
		if err != nil {
			return fmt.Errorf("hein code edition %q: %w", want, err)
		}
		return nil
	}
	return fmt.Errorf("hein code edition: no edition link matched")
}

// OpenPDFVersion follows the PDF rendering link on a case result page.
func (s *heinSession) OpenPDFVersion(ctx context.Context) error {
	h := s.hein
	err := run(s.tab, h.cfg.StepTimeout,
		chromedp.Click(`//a[contains(., "HeinOnline (PDF version)")]`, chromedp.BySearch),
		chromedp.WaitVisible("li.atocpage.sectionhighlight", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("hein pdf version: %w", ErrNotFound)
	}
	return nil
}

// SectionRef reads the download reference of the highlighted section.
func (s *heinSession) SectionRef(ctx context.Context) (string, error) {
	var href string
	err := run(s.tab, s.hein.cfg.StepTimeout,
		chromedp.AttributeValue("li.atocpage.sectionhighlight a.contents_print", "href", &href, nil, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("hein section ref: %w", err)
	}
	return sectionRef(href)
}

// sectionRef rejects the empty href a present but unpopulated print
// anchor yields.
func sectionRef(href string) (string, error) {
	if href == "" {
		return "", errors.New("hein section ref: empty href")
	}
	return href, nil
}

// Download navigates a fresh page straight at the print reference and
// captures the file it streams, then drops the cover page the database
// prepends to every print.
func (s *heinSession) Download(ctx context.Context, ref, destPath string) error {
	h := s.hein
	tab, cancel, err := h.session.Page(ctx)
	if err != nil {
		return fmt.Errorf("hein download: %w", err)
	}
	defer cancel()

	err = browser.ExpectDownload(tab, h.session.DownloadDir(), destPath, h.cfg.DownloadTimeout,
		chromedp.Navigate(heinBaseURL+ref))
	if err != nil {
		return fmt.Errorf("hein download %q: %w", ref, err)
	}
	if err := assemble.StripFirstPage(destPath); err != nil {
		return fmt.Errorf("hein download %q: removing cover page: %w", ref, err)
	}
	h.logger.Debug("downloaded", zap.String("ref", ref), zap.String("path", destPath))
	return nil
}

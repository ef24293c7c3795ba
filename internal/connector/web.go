// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/meshintel/sourcepull/internal/assemble"
	"github.com/meshintel/sourcepull/internal/browser"
	"github.com/meshintel/sourcepull/internal/httputil"
	"github.com/meshintel/sourcepull/pkg/types"
)

// Web retrieves open-web citations. When the server hands back a PDF it
// is fetched directly over HTTP; otherwise the rendered page is
// captured full-height and converted to a one-page document.
type Web struct {
	session *browser.Session
	client  *http.Client
	cfg     types.PullerConfig
	logger  *zap.Logger
}

func NewWeb(session *browser.Session, cfg types.PullerConfig, logger *zap.Logger) *Web {
	return &Web{
		session: session,
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		logger:  logger.Named("web"),
	}
}

func (w *Web) Fetch(ctx context.Context, url, destBase string) (string, error) {
	tab, cancel, err := w.session.Page(ctx)
	if err != nil {
		return "", fmt.Errorf("web fetch: %w", err)
	}
	defer cancel()

	var isPDF bool
	err = run(tab, w.cfg.StepTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`document.querySelector('embed[type="application/x-google-chrome-pdf"], embed[type="application/pdf"]') !== null`, &isPDF),
	)
	if err != nil {
		return "", fmt.Errorf("web fetch %q: %w", url, err)
	}

	// The embed probe misses servers that force a download instead of
	// rendering inline; a HEAD content-type check catches those.
	if !isPDF {
		isPDF = httputil.IsPDFResponse(ctx, w.client, url, w.cfg.UserAgent)
	}

	pdfPath := destBase + ".pdf"
	if isPDF {
		w.logger.Debug("server serves a document, fetching directly", zap.String("url", url))
		if err := httputil.FetchFile(ctx, w.client, url, pdfPath, w.cfg.UserAgent); err != nil {
			return "", fmt.Errorf("web fetch %q: %w", url, err)
		}
		return pdfPath, nil
	}

	w.logger.Debug("capturing rendered page", zap.String("url", url))
	var shot []byte
	if err := run(tab, w.cfg.StepTimeout, chromedp.FullScreenshot(&shot, 90)); err != nil {
		return "", fmt.Errorf("web capture %q: %w", url, err)
	}
	imgPath := destBase + ".png"
	if err := os.WriteFile(imgPath, shot, 0o644); err != nil {
		return "", fmt.Errorf("web capture %q: %w", url, err)
	}
	defer os.Remove(imgPath)

	if _, err := assemble.ImageToPDF(imgPath); err != nil {
		return "", fmt.Errorf("web capture %q: %w", url, err)
	}
	return pdfPath, nil
}

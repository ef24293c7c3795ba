// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package browser manages the automated browser sessions used to drive
// the subscription databases. Each external database gets at most one
// Session; a Session owns one browser process with a persistent profile
// and hands out tab-scoped contexts for individual page interactions.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/meshintel/sourcepull/pkg/types"
)

// Session is one authenticated automation session against one external
// database. The zero value is not usable; construct with NewSession.
// A Session starts its browser lazily on first Page call and is not safe
// for concurrent use by more than one in-flight retrieval.
type Session struct {
	name   string
	cfg    types.BrowserConfig
	logger *zap.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	downloadDir   string
}

// NewSession prepares a session for the named database without starting
// a browser.
func NewSession(name string, cfg types.BrowserConfig, logger *zap.Logger) *Session {
	return &Session{
		name:   name,
		cfg:    cfg,
		logger: logger.With(zap.String("database", name)),
	}
}

// Name returns the database name the session belongs to.
func (s *Session) Name() string { return s.name }

// SlowMo returns the configured per-action delay.
func (s *Session) SlowMo() time.Duration { return s.cfg.SlowMo }

// DownloadDir returns the directory the browser saves transfers into.
// Empty until the browser has started.
func (s *Session) DownloadDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloadDir
}

// start launches the browser process. Callers hold s.mu.
func (s *Session) start(ctx context.Context) error {
	bin, err := LocateBinary()
	if err != nil {
		return err
	}

	profileDir := filepath.Join(s.cfg.UserDataDir, s.name)
	// A stale profile from a crashed run confuses the login probes, so
	// recreate it on every fresh session.
	if err := os.RemoveAll(profileDir); err != nil {
		return fmt.Errorf("clearing profile %s: %w", profileDir, err)
	}
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		return fmt.Errorf("creating profile %s: %w", profileDir, err)
	}

	downloadDir, err := os.MkdirTemp("", "sourcepull-dl-"+s.name+"-")
	if err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(bin),
		chromedp.UserDataDir(profileDir),
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.WindowSize(1280, 780),
	)
	if s.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			s.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	// Run with no actions forces the browser process to launch now, so
	// a missing binary or bad profile fails here instead of later in
	// the middle of a retrieval.
	if err := chromedp.Run(browserCtx, downloadBehavior(downloadDir)); err != nil {
		browserCancel()
		allocCancel()
		os.RemoveAll(downloadDir)
		return fmt.Errorf("launching browser for %s: %w", s.name, err)
	}

	s.allocCancel = allocCancel
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel
	s.downloadDir = downloadDir
	s.logger.Info("browser session started", zap.String("binary", bin))
	return nil
}

// Page returns a context scoped to a fresh browser tab, starting the
// browser if needed. The returned cancel closes the tab and must be
// called on every exit path.
func (s *Session) Page(ctx context.Context) (context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx == nil {
		if err := s.start(ctx); err != nil {
			return nil, nil, err
		}
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	return tabCtx, tabCancel, nil
}

// Restart tears the current browser down completely and lets the next
// Page call start a fresh one. Used when authentication is invalidated:
// two live browsers for the same database must never coexist, so the old
// process is fully released before this returns.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

// Close shuts the browser down and removes the download scratch space.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCancel = nil
		s.browserCtx = nil
	}
	if s.allocCancel != nil {
		// Cancelling the allocator waits for the process to exit.
		s.allocCancel()
		s.allocCancel = nil
	}
	if s.downloadDir != "" {
		os.RemoveAll(s.downloadDir)
		s.downloadDir = ""
	}
	s.logger.Info("browser session closed")
}

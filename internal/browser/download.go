// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

// downloadBehavior builds the CDP action that routes transfers into dir
// and turns on progress events for whichever session runs it.
func downloadBehavior(dir string) *browser.SetDownloadBehaviorParams {
	return browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
		WithDownloadPath(dir).
		WithEventsEnabled(true)
}

// ExpectDownload runs trigger on the tab and blocks until the transfer
// it starts has completed, then moves the file to destPath. The wait is
// bounded by timeout.
//
// Progress events are emitted on the CDP session that enabled them, so
// the behavior action must run on tabCtx here; enabling events only on
// the root browser context leaves this listener deaf to downloads the
// tab triggers.
//
// Navigating straight to a file URL makes the page load abort once the
// browser hands the response to the download manager; that abort is
// expected and swallowed here.
func ExpectDownload(tabCtx context.Context, downloadDir, destPath string, timeout time.Duration, trigger chromedp.Action) error {
	done := make(chan string, 1)
	failed := make(chan struct{}, 1)

	if err := chromedp.Run(tabCtx, downloadBehavior(downloadDir)); err != nil {
		return fmt.Errorf("enabling download events: %w", err)
	}

	chromedp.ListenTarget(tabCtx, func(ev any) {
		if e, ok := ev.(*browser.EventDownloadProgress); ok {
			switch e.State {
			case browser.DownloadProgressStateCompleted:
				select {
				case done <- e.GUID:
				default:
				}
			case browser.DownloadProgressStateCanceled:
				select {
				case failed <- struct{}{}:
				default:
				}
			}
		}
	})

	if err := chromedp.Run(tabCtx, trigger); err != nil && !isDownloadAbort(err) {
		return fmt.Errorf("triggering download: %w", err)
	}

	select {
	case guid := <-done:
		return moveFile(filepath.Join(downloadDir, guid), destPath)
	case <-failed:
		return fmt.Errorf("download canceled by browser")
	case <-tabCtx.Done():
		return tabCtx.Err()
	case <-time.After(timeout):
		return fmt.Errorf("download did not complete within %v", timeout)
	}
}

// isDownloadAbort reports whether an error is the page-load abort that
// accompanies a navigation-triggered download.
func isDownloadAbort(err error) bool {
	return strings.Contains(err.Error(), "net::ERR_ABORTED")
}

// moveFile renames src to dest, copying across filesystems when the
// download scratch space and the project folder live on different
// mounts.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening downloaded file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("copying download to %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}
	os.Remove(src)
	return nil
}

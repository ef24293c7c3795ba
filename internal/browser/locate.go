// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package browser

import (
	"fmt"
	"os/exec"
)

// Candidate browser binaries in preference order. Chrome is preferred
// because the delivery dialogs on the subscription databases are only
// tested there; the chromium fallbacks cover headless CI machines.
var browserBins = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
}

// lookPath abstracts exec.LookPath for testing.
var lookPath = exec.LookPath

// LocateBinary finds an installed browser binary, trying each known name
// on PATH in order. Returns an error when none is available.
func LocateBinary() (string, error) {
	for _, bin := range browserBins {
		if path, err := lookPath(bin); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no browser binary available: tried %v on PATH", browserBins)
}

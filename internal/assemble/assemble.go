// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble merges, trims, and converts pulled artifacts into the
// single PDF a citation's retrieval produces. Operations are terminal:
// a failure propagates to the orchestrator as a generic failure and is
// never retried here.
package assemble

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Merge concatenates the page sequences of the PDFs at paths, in argument
// order, into a single PDF at outPath.
func Merge(paths []string, outPath string) error {
	if len(paths) == 0 {
		return fmt.Errorf("merging into %s: no input files", outPath)
	}
	if err := api.MergeCreateFile(paths, outPath, false, nil); err != nil {
		return fmt.Errorf("merging %d files into %s: %w", len(paths), outPath, err)
	}
	return nil
}

// StripFirstPage removes page 1 of the PDF at path in place. Hein
// prepends a cover/interstitial page to every delivered document; this
// takes it back off.
func StripFirstPage(path string) error {
	if err := api.RemovePagesFile(path, "", []string{"1"}, nil); err != nil {
		return fmt.Errorf("removing first page of %s: %w", path, err)
	}
	return nil
}

// ImageToPDF wraps the raster image at imgPath as a one-page PDF next to
// it and returns the PDF's path. pdfcpu normalizes the image to an RGB
// color space during import.
func ImageToPDF(imgPath string) (string, error) {
	pdfPath := strings.TrimSuffix(imgPath, filepath.Ext(imgPath)) + ".pdf"
	if err := api.ImportImagesFile([]string{imgPath}, pdfPath, nil, nil); err != nil {
		return "", fmt.Errorf("converting %s to PDF: %w", imgPath, err)
	}
	return pdfPath, nil
}

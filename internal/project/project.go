// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package project persists the per-project worklist as an Excel
// workbook plus a pull/ directory of retrieved artifacts. The workbook
// is the interface users edit between extraction and pulling, so loads
// re-clean everything and never trust cell contents.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/meshintel/sourcepull/internal/textutil"
	"github.com/meshintel/sourcepull/pkg/types"
)

const (
	workbookName = "Sources.xlsx"
	pullDirName  = "pull"
	sourcesSheet = "Sources"

	// Row 1 holds the project title; row 2 the column headers; data
	// starts at row 3.
	headerRow    = 2
	firstDataRow = 3

	seqNumberFormat = "0.00"
)

// Worklist column headers, in sheet order.
const (
	colSeq      = "FN#"
	colCitation = "Citation"
	colShort    = "Short Cite"
	colFilename = "Filename"
	colLibrary  = "Library"
	colBook     = "Book Available?"
	colCategory = "Source Type"
	colStatus   = "Source Puller Result"
)

var headers = []string{colSeq, colCitation, colShort, colFilename, colLibrary, colBook, colCategory, colStatus}

// Project is one research project's worklist and artifact directory.
type Project struct {
	Name string

	dir       string
	f         *excelize.File
	headerIdx map[string]int
}

// Create makes a new project directory with an empty worklist.
func Create(baseDir, name string) (*Project, error) {
	name = textutil.CleanFilename(name)
	if name == "" {
		return nil, fmt.Errorf("creating project: empty name")
	}
	dir := filepath.Join(baseDir, name)
	if _, err := os.Stat(filepath.Join(dir, workbookName)); err == nil {
		return nil, fmt.Errorf("creating project %s: already exists", name)
	}
	if err := os.MkdirAll(filepath.Join(dir, pullDirName), 0o755); err != nil {
		return nil, fmt.Errorf("creating project %s: %w", name, err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sourcesSheet); err != nil {
		return nil, fmt.Errorf("creating worklist: %w", err)
	}
	if err := f.SetCellValue(sourcesSheet, "A1", name); err != nil {
		return nil, fmt.Errorf("creating worklist: %w", err)
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return nil, fmt.Errorf("creating worklist: %w", err)
		}
		if err := f.SetCellValue(sourcesSheet, cell, h); err != nil {
			return nil, fmt.Errorf("creating worklist: %w", err)
		}
	}
	if err := f.SaveAs(filepath.Join(dir, workbookName)); err != nil {
		return nil, fmt.Errorf("saving worklist: %w", err)
	}

	return &Project{Name: name, dir: dir, f: f, headerIdx: defaultHeaderIdx()}, nil
}

// Open loads an existing project's worklist.
func Open(baseDir, name string) (*Project, error) {
	dir := filepath.Join(baseDir, name)
	f, err := excelize.OpenFile(filepath.Join(dir, workbookName))
	if err != nil {
		return nil, fmt.Errorf("opening project %s: %w", name, err)
	}
	p := &Project{Name: name, dir: dir, f: f}
	if err := p.readHeader(); err != nil {
		f.Close()
		return nil, fmt.Errorf("opening project %s: %w", name, err)
	}
	if err := os.MkdirAll(p.PullDir(), 0o755); err != nil {
		f.Close()
		return nil, fmt.Errorf("opening project %s: %w", name, err)
	}
	return p, nil
}

// Close releases the workbook.
func (p *Project) Close() error {
	return p.f.Close()
}

// PullDir is the directory retrieved artifacts land in.
func (p *Project) PullDir() string {
	return filepath.Join(p.dir, pullDirName)
}

// PullPath returns the artifact path for name with the given extension
// ("" for none).
func (p *Project) PullPath(name, ext string) string {
	name = textutil.CleanFilename(name)
	if ext != "" {
		name += "." + ext
	}
	return filepath.Join(p.PullDir(), name)
}

func defaultHeaderIdx() map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[h] = i
	}
	return idx
}

// readHeader maps column headers to positions so a worklist with
// reordered columns still loads.
func (p *Project) readHeader() error {
	rows, err := p.f.GetRows(sourcesSheet)
	if err != nil {
		return fmt.Errorf("reading worklist: %w", err)
	}
	if len(rows) < headerRow {
		return fmt.Errorf("worklist has no header row")
	}
	idx := make(map[string]int)
	for i, h := range rows[headerRow-1] {
		h = strings.TrimSpace(h)
		if h != "" {
			idx[h] = i
		}
	}
	for _, h := range []string{colSeq, colCitation} {
		if _, ok := idx[h]; !ok {
			return fmt.Errorf("worklist missing %q column", h)
		}
	}
	p.headerIdx = idx
	return nil
}

func cellAt(row []string, i int, ok bool) string {
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (p *Project) column(header string) (int, bool) {
	i, ok := p.headerIdx[header]
	return i, ok
}

// Sources loads all citations from the worklist in sequence order,
// re-cleaning user-edited cells.
func (p *Project) Sources() ([]types.Citation, error) {
	rows, err := p.f.GetRows(sourcesSheet)
	if err != nil {
		return nil, fmt.Errorf("reading worklist: %w", err)
	}
	var cits []types.Citation
	for r := firstDataRow - 1; r < len(rows); r++ {
		c, ok, err := p.parseRow(rows[r])
		if err != nil {
			return nil, fmt.Errorf("worklist row %d: %w", r+1, err)
		}
		if ok {
			cits = append(cits, c)
		}
	}
	sort.Slice(cits, func(i, j int) bool { return cits[i].Seq.Less(cits[j].Seq) })
	return cits, nil
}

func (p *Project) parseRow(row []string) (types.Citation, bool, error) {
	get := func(header string) string {
		i, ok := p.column(header)
		return cellAt(row, i, ok)
	}
	seqCell := get(colSeq)
	longCite := textutil.CleanString(get(colCitation))
	if seqCell == "" && longCite == "" {
		return types.Citation{}, false, nil
	}
	seqVal, err := strconv.ParseFloat(seqCell, 64)
	if err != nil {
		return types.Citation{}, false, fmt.Errorf("bad sequence %q: %w", seqCell, err)
	}
	cat, _ := types.ParseCategory(get(colCategory))
	c := types.Citation{
		Seq:       types.ParseSeqKey(seqVal),
		LongCite:  longCite,
		ShortCite: textutil.CleanString(get(colShort)),
		Filename:  textutil.CleanFilename(get(colFilename)),
		Library:   get(colLibrary),
		HasBook:   get(colBook),
		Category:  cat,
		Status:    types.ParseStatus(get(colStatus)),
	}
	return c, true, nil
}

// Source returns the citation with the given sequence key.
func (p *Project) Source(seq types.SeqKey) (types.Citation, error) {
	cits, err := p.Sources()
	if err != nil {
		return types.Citation{}, err
	}
	for _, c := range cits {
		if c.Seq == seq {
			return c, nil
		}
	}
	return types.Citation{}, fmt.Errorf("no source %s in project %s", seq, p.Name)
}

// SaveSource writes one citation back to its worklist row and saves.
func (p *Project) SaveSource(c types.Citation) error {
	if err := p.setSource(c); err != nil {
		return err
	}
	return p.save()
}

// SaveSources replaces all data rows with the given citations, in
// order, and saves.
func (p *Project) SaveSources(cits []types.Citation) error {
	rows, err := p.f.GetRows(sourcesSheet)
	if err != nil {
		return fmt.Errorf("reading worklist: %w", err)
	}
	for r := len(rows); r >= firstDataRow; r-- {
		if err := p.f.RemoveRow(sourcesSheet, r); err != nil {
			return fmt.Errorf("clearing worklist row %d: %w", r, err)
		}
	}
	for _, c := range cits {
		if err := p.setSource(c); err != nil {
			return err
		}
	}
	return p.save()
}

// rowFor finds the worklist row holding seq, or the first blank row.
func (p *Project) rowFor(seq types.SeqKey) (int, error) {
	rows, err := p.f.GetRows(sourcesSheet)
	if err != nil {
		return 0, fmt.Errorf("reading worklist: %w", err)
	}
	seqIdx, seqOK := p.column(colSeq)
	citIdx, citOK := p.column(colCitation)
	for r := firstDataRow - 1; r < len(rows); r++ {
		cell := cellAt(rows[r], seqIdx, seqOK)
		if cell == "" {
			// A row keyed only by its citation text is still occupied;
			// reuse a row only when it is blank the way parseRow sees
			// blank.
			if cellAt(rows[r], citIdx, citOK) == "" {
				return r + 1, nil
			}
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err == nil && types.ParseSeqKey(v) == seq {
			return r + 1, nil
		}
	}
	if len(rows) < firstDataRow {
		return firstDataRow, nil
	}
	return len(rows) + 1, nil
}

func (p *Project) setSource(c types.Citation) error {
	row, err := p.rowFor(c.Seq)
	if err != nil {
		return err
	}
	set := func(header string, v interface{}) error {
		i, ok := p.column(header)
		if !ok {
			return nil
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		return p.f.SetCellValue(sourcesSheet, cell, v)
	}
	if err := set(colSeq, c.Seq.Float()); err != nil {
		return fmt.Errorf("writing worklist row %d: %w", row, err)
	}
	for header, v := range map[string]string{
		colCitation: c.LongCite,
		colShort:    c.ShortCite,
		colFilename: c.Filename,
		colLibrary:  c.Library,
		colBook:     c.HasBook,
		colCategory: string(c.Category),
		colStatus:   string(c.Status),
	} {
		if err := set(header, v); err != nil {
			return fmt.Errorf("writing worklist row %d: %w", row, err)
		}
	}

	if err := p.formatSeqCell(row); err != nil {
		return err
	}

	// Website short cites are URLs; make them clickable on the sheet.
	if c.Category == types.CategoryWebsite && strings.HasPrefix(c.ShortCite, "http") {
		if i, ok := p.column(colShort); ok {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			if err := p.f.SetCellHyperLink(sourcesSheet, cell, c.ShortCite, "External"); err != nil {
				return fmt.Errorf("linking worklist row %d: %w", row, err)
			}
		}
	}
	return nil
}

// formatSeqCell keeps the sequence visible as footnote.index (1.10
// must not render as 1.1).
func (p *Project) formatSeqCell(row int) error {
	i, ok := p.column(colSeq)
	if !ok {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(i+1, row)
	if err != nil {
		return err
	}
	nf := seqNumberFormat
	styleID, err := p.f.NewStyle(&excelize.Style{CustomNumFmt: &nf})
	if err != nil {
		return fmt.Errorf("creating sequence style: %w", err)
	}
	if err := p.f.SetCellStyle(sourcesSheet, cell, cell, styleID); err != nil {
		return fmt.Errorf("styling sequence cell: %w", err)
	}
	return nil
}

func (p *Project) save() error {
	if err := p.f.Save(); err != nil {
		return fmt.Errorf("saving worklist: %w", err)
	}
	return nil
}

// List returns the names of projects under baseDir, sorted.
func List(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(baseDir, e.Name(), workbookName)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a project directory and everything in it.
func Delete(baseDir, name string) error {
	name = textutil.CleanFilename(name)
	if name == "" {
		return fmt.Errorf("deleting project: empty name")
	}
	if err := os.RemoveAll(filepath.Join(baseDir, name)); err != nil {
		return fmt.Errorf("deleting project %s: %w", name, err)
	}
	return nil
}

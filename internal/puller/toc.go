// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package puller

import (
	"strings"

	"github.com/meshintel/sourcepull/internal/connector"
)

// Journals arrive in the contents sidebar in three digitization
// layouts. The detectors below recognize them in a fixed priority
// order; the first match commits the strategy for the whole attempt,
// including the follow-up issue 2 lookup.
type tocStrategy int

const (
	tocNone tocStrategy = iota

	// tocUnderIssue: the table of contents is an entry inside the
	// issue's own group.
	tocUnderIssue

	// tocTopLevel: per-issue tables of contents sit at the top level,
	// labeled with their issue number.
	tocTopLevel

	// tocGlobal: one table of contents for the whole volume.
	tocGlobal
)

func (s tocStrategy) String() string {
	switch s {
	case tocUnderIssue:
		return "under-issue"
	case tocTopLevel:
		return "top-level"
	case tocGlobal:
		return "global"
	}
	return "none"
}

const tocLabel = "Table of Contents"

func issueLabel(number string) string { return "Issue " + number }

// findTOC locates the table of contents covering the given issue and
// reports which layout matched.
func findTOC(vc *connector.VolumeContents, issue string) (connector.ContentsEntry, tocStrategy, bool) {
	if e, ok := tocUnder(vc, issue); ok {
		return e, tocUnderIssue, true
	}
	if e, ok := tocTop(vc, issue); ok {
		return e, tocTopLevel, true
	}
	if e, ok := tocWhole(vc); ok {
		return e, tocGlobal, true
	}
	return connector.ContentsEntry{}, tocNone, false
}

// findIssueTOC locates the table of contents for a different issue
// under an already committed strategy. Used for the issue 2 follow-up;
// never called with the global strategy, which has nothing per-issue to
// find.
func findIssueTOC(vc *connector.VolumeContents, issue string, strategy tocStrategy) (connector.ContentsEntry, bool) {
	switch strategy {
	case tocUnderIssue:
		return tocUnder(vc, issue)
	case tocTopLevel:
		return tocTop(vc, issue)
	}
	return connector.ContentsEntry{}, false
}

func tocUnder(vc *connector.VolumeContents, issue string) (connector.ContentsEntry, bool) {
	group := vc.Issue(issue)
	if group == nil {
		return connector.ContentsEntry{}, false
	}
	for _, e := range group.Entries {
		if strings.Contains(e.Label, tocLabel) {
			return e, true
		}
	}
	return connector.ContentsEntry{}, false
}

func tocTop(vc *connector.VolumeContents, issue string) (connector.ContentsEntry, bool) {
	for _, e := range vc.TopLevel {
		if strings.Contains(e.Label, issueLabel(issue)) && strings.Contains(e.Label, tocLabel) {
			return e, true
		}
	}
	return connector.ContentsEntry{}, false
}

func tocWhole(vc *connector.VolumeContents) (connector.ContentsEntry, bool) {
	for _, e := range vc.TopLevel {
		if strings.Contains(e.Label, tocLabel) {
			return e, true
		}
	}
	return connector.ContentsEntry{}, false
}

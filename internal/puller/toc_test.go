// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package puller

import (
	"testing"

	"github.com/meshintel/sourcepull/internal/connector"
)

func TestFindTOCStrategyOrder(t *testing.T) {
	tests := []struct {
		name         string
		vc           *connector.VolumeContents
		issue        string
		wantRef      string
		wantStrategy tocStrategy
		wantOK       bool
	}{
		{
			name: "under issue wins",
			vc: &connector.VolumeContents{
				TopLevel: []connector.ContentsEntry{
					{Label: "Table of Contents", Ref: "global"},
				},
				Issues: []connector.ContentsIssue{
					{Number: "1", Entries: []connector.ContentsEntry{
						{Label: "Table of Contents - Issue 1", Ref: "under"},
					}},
				},
			},
			issue:        "1",
			wantRef:      "under",
			wantStrategy: tocUnderIssue,
			wantOK:       true,
		},
		{
			name: "top level by issue number",
			vc: &connector.VolumeContents{
				TopLevel: []connector.ContentsEntry{
					{Label: "Table of Contents - Issue 1", Ref: "top1"},
					{Label: "Table of Contents - Issue 2", Ref: "top2"},
				},
			},
			issue:        "2",
			wantRef:      "top2",
			wantStrategy: tocTopLevel,
			wantOK:       true,
		},
		{
			name: "global fallback",
			vc: &connector.VolumeContents{
				TopLevel: []connector.ContentsEntry{
					{Label: "Front Matter", Ref: "front"},
					{Label: "Table of Contents", Ref: "global"},
				},
				Issues: []connector.ContentsIssue{
					{Number: "3", Entries: []connector.ContentsEntry{
						{Label: "Some Article", Ref: "art"},
					}},
				},
			},
			issue:        "3",
			wantRef:      "global",
			wantStrategy: tocGlobal,
			wantOK:       true,
		},
		{
			name:   "nothing matches",
			vc:     &connector.VolumeContents{},
			issue:  "1",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, strategy, ok := findTOC(tt.vc, tt.issue)
			if ok != tt.wantOK {
				t.Fatalf("findTOC() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if entry.Ref != tt.wantRef {
				t.Errorf("findTOC() ref = %q, want %q", entry.Ref, tt.wantRef)
			}
			if strategy != tt.wantStrategy {
				t.Errorf("findTOC() strategy = %v, want %v", strategy, tt.wantStrategy)
			}
		})
	}
}

func TestFindIssueTOCHonorsCommittedStrategy(t *testing.T) {
	vc := &connector.VolumeContents{
		TopLevel: []connector.ContentsEntry{
			{Label: "Table of Contents - Issue 2", Ref: "top2"},
		},
		Issues: []connector.ContentsIssue{
			{Number: "2", Entries: []connector.ContentsEntry{
				{Label: "Table of Contents - Issue 2", Ref: "under2"},
			}},
		},
	}

	if e, ok := findIssueTOC(vc, "2", tocUnderIssue); !ok || e.Ref != "under2" {
		t.Errorf("findIssueTOC(under) = %q, %v, want under2, true", e.Ref, ok)
	}
	if e, ok := findIssueTOC(vc, "2", tocTopLevel); !ok || e.Ref != "top2" {
		t.Errorf("findIssueTOC(top) = %q, %v, want top2, true", e.Ref, ok)
	}
	if _, ok := findIssueTOC(vc, "2", tocGlobal); ok {
		t.Error("findIssueTOC(global) matched, want no per-issue lookup")
	}
}

func TestFindIssueTOCMissingIssue(t *testing.T) {
	vc := &connector.VolumeContents{
		Issues: []connector.ContentsIssue{
			{Number: "1", Entries: []connector.ContentsEntry{
				{Label: "Table of Contents - Issue 1", Ref: "under1"},
			}},
		},
	}
	if _, ok := findIssueTOC(vc, "2", tocUnderIssue); ok {
		t.Error("findIssueTOC() matched an absent issue")
	}
}

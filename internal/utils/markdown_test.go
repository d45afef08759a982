package utils

import (
	"strings"
	"testing"
)

func TestJoinParagraphs(t *testing.T) {
	in := "# Emergence\nThe layout\nappears early.\n\n- step 3\n- step 9\n\n```\nraw  text\n```"
	got := joinParagraphs(in)
	want := []string{"# Emergence", "The layout appears early.", "- step 3", "- step 9", "```", "raw  text", "```"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("joinParagraphs() = %q, want %q", got, want)
	}
}

func TestRenderMarkdownStripsMarks(t *testing.T) {
	tests := []struct {
		in       string
		contains string
		absent   string
	}{
		{"## Summary", "Summary", "##"},
		{"**bold** move", "bold", "**"},
		{"an _italic_ word", "italic", "_"},
		{"use `step_detail` here", "step_detail", "`"},
		{"1. first", "1. first", ""},
		{"- item", "• item", "- "},
	}
	for _, tt := range tests {
		got := RenderMarkdown(tt.in)
		if !strings.Contains(got, tt.contains) {
			t.Errorf("RenderMarkdown(%q) = %q, missing %q", tt.in, got, tt.contains)
		}
		if tt.absent != "" && strings.Contains(got, tt.absent) {
			t.Errorf("RenderMarkdown(%q) = %q, still contains %q", tt.in, got, tt.absent)
		}
	}
}

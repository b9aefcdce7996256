package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	columns := []tableColumn{{title: "Status"}, {title: "Count", numeric: true}}
	out := renderTable(columns, [][]string{
		{"Active", "3"},
		{"Completed"},
	})
	for _, want := range []string{"Status", "Count", "Active", "Completed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(out, "\n")
	width := utf8.RuneCountInString(lines[0])
	for _, line := range lines {
		if utf8.RuneCountInString(line) != width {
			t.Fatalf("ragged table output:\n%s", out)
		}
	}
}

func TestRenderTableRightAlignsNumericColumns(t *testing.T) {
	columns := []tableColumn{{title: "Name"}, {title: "Count", numeric: true}}
	out := renderTable(columns, [][]string{{"total", "7"}})
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "total") {
			continue
		}
		if !strings.Contains(line, " 7 ") || strings.Contains(line, "7  ") {
			t.Fatalf("expected right-aligned count cell, got %q", line)
		}
		return
	}
	t.Fatalf("row not rendered:\n%s", out)
}

func TestRenderTableEmptyColumns(t *testing.T) {
	if out := renderTable(nil, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

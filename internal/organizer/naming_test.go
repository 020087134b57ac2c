package organizer_test

import (
	"testing"
	"time"

	"dropsort/internal/organizer"
)

func TestSplitName(t *testing.T) {
	cases := []struct {
		name, base, ext string
	}{
		{"report.pdf", "report", ".pdf"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{"README", "README", ""},
		{".bashrc", ".bashrc", ""},
		{".pdf", ".pdf", ""},
		{"trailing.", "trailing", "."},
	}
	for _, tc := range cases {
		base, ext := organizer.SplitName(tc.name)
		if base != tc.base || ext != tc.ext {
			t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)", tc.name, base, ext, tc.base, tc.ext)
		}
	}
}

func TestCollisionName(t *testing.T) {
	at := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local)
	cases := []struct {
		name string
		seq  int
		want string
	}{
		{"report.pdf", 1, "report_20240305_140709.pdf"},
		{"report.pdf", 2, "report_20240305_140709-2.pdf"},
		{"README", 1, "README_20240305_140709"},
		{".bashrc", 1, ".bashrc_20240305_140709"},
		{".pdf", 1, ".pdf_20240305_140709"},
	}
	for _, tc := range cases {
		if got := organizer.CollisionName(tc.name, at, tc.seq); got != tc.want {
			t.Errorf("CollisionName(%q, %d) = %q, want %q", tc.name, tc.seq, got, tc.want)
		}
	}
}

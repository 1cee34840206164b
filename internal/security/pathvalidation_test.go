package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	runDir := t.TempDir()
	inside := filepath.Join(runDir, "adxx_theta.0000000012.data")
	if err := os.WriteFile(inside, []byte{0}, 0644); err != nil {
		t.Fatal(err)
	}

	if err := ValidatePathWithinDirectory(inside, runDir); err != nil {
		t.Errorf("path inside run dir rejected: %v", err)
	}

	// Files that do not exist yet are still validated against the parent.
	if err := ValidatePathWithinDirectory(filepath.Join(runDir, "new", "out.png"), runDir); err != nil {
		t.Errorf("unborn path inside run dir rejected: %v", err)
	}

	if err := ValidatePathWithinDirectory(filepath.Join(runDir, "..", "escape"), runDir); err == nil {
		t.Error("expected error for .. escape")
	}
	if err := ValidatePathWithinDirectory("/etc/passwd", runDir); err == nil {
		t.Error("expected error for absolute path outside dir")
	}
}

func TestValidatePathWithinDirectorySymlink(t *testing.T) {
	runDir := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(runDir, "archive")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if err := ValidatePathWithinDirectory(filepath.Join(link, "field.data"), runDir); err == nil {
		t.Error("expected error for symlink escaping the run dir")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"MIT_CE_000", "MIT_CE_000"},
		{"run_ad/cycle 3", "run_ad_cycle_3"},
		{"../../etc", "etc"},
		{"", "unknown"},
		{"///", "unknown"},
		{"adxx_theta.0000000012", "adxx_theta.0000000012"},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.in); got != c.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

package version

import (
	"strings"
	"testing"
)

func setBuild(t *testing.T, version, commit, branch, buildTime, goVersion string) {
	t.Helper()
	origVersion, origCommit, origBranch, origBuildTime, origGoVersion :=
		Version, GitCommit, GitBranch, BuildTime, GoVersion
	t.Cleanup(func() {
		Version, GitCommit, GitBranch, BuildTime, GoVersion =
			origVersion, origCommit, origBranch, origBuildTime, origGoVersion
	})
	Version, GitCommit, GitBranch, BuildTime, GoVersion = version, commit, branch, buildTime, goVersion
}

func TestGetVersionInfo(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		buildTime string
		release   bool
		year      int
	}{
		{"dev build", "dev", "", false, 0},
		{"release", "0.3.0", "2026-01-15T10:30:00Z", true, 2026},
		{"dirty", "0.3.0-dirty", "", false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setBuild(t, tc.version, "abc1234", "main", tc.buildTime, "go1.26.0")
			info := GetVersionInfo()
			if info.Version != tc.version {
				t.Errorf("expected version %q, got %q", tc.version, info.Version)
			}
			if info.IsRelease != tc.release {
				t.Errorf("expected release=%v, got %v", tc.release, info.IsRelease)
			}
			if info.BuildDate.IsZero() {
				t.Error("expected a build date")
			}
			if tc.year != 0 && info.BuildDate.Year() != tc.year {
				t.Errorf("expected build year %d, got %d", tc.year, info.BuildDate.Year())
			}
			if info.GoVersion != "go1.26.0" {
				t.Errorf("expected ldflags go version, got %q", info.GoVersion)
			}
		})
	}
}

func TestShort(t *testing.T) {
	setBuild(t, "dev", "", "", "", "")
	if got := GetShortVersion(); !strings.HasPrefix(got, "dev") {
		t.Errorf("expected dev prefix, got %q", got)
	}

	setBuild(t, "0.3.0", "abc1234", "", "2026-01-01T00:00:00Z", "go1.26")
	if got := GetShortVersion(); got != "0.3.0-abc1234" {
		t.Errorf("expected '0.3.0-abc1234', got %q", got)
	}

	info := &Info{Version: "0.3.0", GitCommit: "abc1234", IsDirty: true}
	if got := info.Short(); got != "0.3.0-abc1234-dirty" {
		t.Errorf("expected dirty suffix, got %q", got)
	}
}

func TestFull(t *testing.T) {
	tests := []struct {
		name     string
		branch   string
		contains []string
		excludes []string
	}{
		{"main branch hidden", "main", []string{"0.3.0", "abc1234", "built 2026-01-15"}, []string{"main"}},
		{"feature branch shown", "feature/pitch", []string{"feature/pitch"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setBuild(t, "0.3.0", "abc1234", tc.branch, "2026-01-15T10:30:00Z", "go1.26")
			fv := GetFullVersion()
			for _, s := range tc.contains {
				if !strings.Contains(fv, s) {
					t.Errorf("expected %q in %q", s, fv)
				}
			}
			for _, s := range tc.excludes {
				if strings.Contains(fv, s) {
					t.Errorf("expected %q absent from %q", s, fv)
				}
			}
		})
	}
}

func TestLogFields(t *testing.T) {
	info := &Info{Version: "0.3.0", GitCommit: "abc1234", GoVersion: "go1.26"}
	f := info.LogFields()
	if f["version"] != "0.3.0" || f["git_commit"] != "abc1234" {
		t.Errorf("unexpected fields %v", f)
	}
	if f["dirty"] != false {
		t.Errorf("expected dirty=false, got %v", f["dirty"])
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("0123456789", shortCommit); got != "0123456" {
		t.Errorf("expected 7 chars, got %q", got)
	}
	if got := truncate("abc", shortCommit); got != "abc" {
		t.Errorf("expected unchanged, got %q", got)
	}
}

package version

import "testing"

func saveAndRestore() func() {
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	return func() {
		Version = origVersion
		GitCommit = origCommit
		BuildTime = origBuildTime
	}
}

func TestGetDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "dev", "", ""

	info := Get()
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
	if info.Release() {
		t.Error("dev should not be a release")
	}
}

func TestGetLinkerValues(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "1.4.0", "abc1234", "2026-01-02T03:04:05Z"

	info := Get()
	if info.Version != "1.4.0" || info.GitCommit != "abc1234" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.BuildDate.Year() != 2026 {
		t.Errorf("expected parsed build date, got %v", info.BuildDate)
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.Short(); got != tt.want {
			t.Errorf("Short() = %q, want %q", got, tt.want)
		}
	}
}

func TestRelease(t *testing.T) {
	if !(Info{Version: "1.0.0"}).Release() {
		t.Error("expected tagged build to be a release")
	}
	if (Info{Version: "1.0.0", Dirty: true}).Release() {
		t.Error("dirty build should not be a release")
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456" {
		t.Errorf("got %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("got %q", got)
	}
}

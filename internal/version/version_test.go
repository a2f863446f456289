package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	if info.Version == "" {
		t.Error("expected non-empty version")
	}
	if info.GoVersion == "" {
		t.Error("expected non-empty go version")
	}
	if !strings.Contains(info.Platform, runtime.GOOS) {
		t.Errorf("expected platform to contain %s, got %s", runtime.GOOS, info.Platform)
	}
	if !strings.Contains(info.Platform, runtime.GOARCH) {
		t.Errorf("expected platform to contain %s, got %s", runtime.GOARCH, info.Platform)
	}
}

func TestShortAndUserAgent(t *testing.T) {
	if !strings.HasPrefix(Short(), ApplicationName) {
		t.Errorf("short version should start with %q: %s", ApplicationName, Short())
	}
	if !strings.HasPrefix(UserAgent(), ApplicationName+"/") {
		t.Errorf("user agent should be name/version: %s", UserAgent())
	}
}

package buildinfo

import (
	"strings"
	"testing"
)

func TestBuildInfo(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "v1.2.3"

	if got := UserAgent(); got != "nextstep/v1.2.3" {
		t.Errorf("UserAgent() = %q, want %q", got, "nextstep/v1.2.3")
	}
	if got := String(); !strings.HasPrefix(got, "version: v1.2.3\n") {
		t.Errorf("String() = %q", got)
	}
	if got := Template(); !strings.Contains(got, "version v1.2.3") {
		t.Errorf("Template() = %q", got)
	}
}

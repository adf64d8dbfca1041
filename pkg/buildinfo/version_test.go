package buildinfo

import (
	"strings"
	"testing"
)

func TestResolveKeepsLdflags(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	defer func() { Version, Commit, Date = oldV, oldC, oldD }()

	Version, Commit, Date = "v1.2.3", "abc123", "2025-01-23T00:00:00Z"
	got := Resolve()
	if got != (Info{Version: "v1.2.3", Commit: "abc123", Date: "2025-01-23T00:00:00Z"}) {
		t.Errorf("Resolve() = %+v", got)
	}
	if !strings.Contains(String(), "version: v1.2.3") {
		t.Errorf("String() = %q", String())
	}
	if !strings.HasPrefix(Template(), "{{.Name}} version v1.2.3") {
		t.Errorf("Template() = %q", Template())
	}
}

func TestResolveDefaults(t *testing.T) {
	got := Resolve()
	if got.Version == "" || got.Commit == "" || got.Date == "" {
		t.Errorf("Resolve() left empty fields: %+v", got)
	}
}

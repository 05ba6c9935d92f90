package version

import (
	"strings"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	info := Get()
	if info.Version != "dev" {
		t.Errorf("version = %q, want dev", info.Version)
	}
	if info.Commit != "none" {
		t.Errorf("commit = %q", info.Commit)
	}
}

func TestString(t *testing.T) {
	s := Get().String()
	if !strings.HasPrefix(s, "Stride ") {
		t.Errorf("string = %q", s)
	}
	if !strings.Contains(s, "commit:") || !strings.Contains(s, "built:") {
		t.Errorf("string missing fields: %q", s)
	}
}

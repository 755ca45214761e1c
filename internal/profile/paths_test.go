package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".charla", "profiles", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestCacheDBPath(t *testing.T) {
	got := CacheDBPath("test")
	if !strings.HasSuffix(got, filepath.Join("profiles", "test", "cache.db")) {
		t.Errorf("CacheDBPath(test) = %q, want suffix profiles/test/cache.db", got)
	}
}

func TestLogPath(t *testing.T) {
	got := LogPath("test")
	if !strings.HasSuffix(got, filepath.Join("profiles", "test", "logs", "charla.log")) {
		t.Errorf("LogPath(test) = %q, want suffix profiles/test/logs/charla.log", got)
	}
}

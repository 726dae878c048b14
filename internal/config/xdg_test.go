package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestXDGDirectories(t *testing.T) {
	xdg := NewXDGDirs()

	if xdg == nil {
		t.Fatal("NewXDGDirs returned nil")
	}
}

func TestXDGConfigPaths(t *testing.T) {
	xdg := NewXDGDirs()

	testCases := []struct {
		name     string
		filename string
	}{
		{
			name:     "config json file",
			filename: "config.json",
		},
		{
			name:     "empty filename returns base dirs",
			filename: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			paths := xdg.GetConfigPaths(tc.filename)

			if len(paths) == 0 {
				t.Error("GetConfigPaths returned empty slice")
				return
			}

			for i, path := range paths {
				if !filepath.IsAbs(path) {
					t.Errorf("path %d is not absolute: %s", i, path)
				}
				if !strings.Contains(path, "pcmflow") {
					t.Errorf("path %d does not contain app dir: %s", i, path)
				}
				if tc.filename != "" && filepath.Base(path) != tc.filename {
					t.Errorf("path %d does not end with filename: %s", i, path)
				}
			}
		})
	}
}

func TestXDGCachePath(t *testing.T) {
	xdg := NewXDGDirs()

	path := xdg.GetCachePath("logs")

	if !filepath.IsAbs(path) {
		t.Errorf("cache path is not absolute: %s", path)
	}
	if !strings.HasSuffix(path, filepath.Join("pcmflow", "logs")) {
		t.Errorf("cache path missing purpose suffix: %s", path)
	}

	basePath := xdg.GetCachePath("")
	if !strings.HasSuffix(basePath, "pcmflow") {
		t.Errorf("base cache path missing app dir: %s", basePath)
	}
}

func TestXDGCreateCacheDir(t *testing.T) {
	tempDir := t.TempDir()
	oldCacheHome := os.Getenv("XDG_CACHE_HOME")
	os.Setenv("XDG_CACHE_HOME", tempDir)
	defer os.Setenv("XDG_CACHE_HOME", oldCacheHome)

	// adrg/xdg snapshots env at init, so CreateCacheDir may not land in
	// tempDir. Just verify the call succeeds and the directory exists.
	xdg := NewXDGDirs()
	err := xdg.CreateCacheDir("test-cache")
	if err != nil {
		t.Fatalf("CreateCacheDir failed: %v", err)
	}

	if _, err := os.Stat(xdg.GetCachePath("test-cache")); err != nil {
		t.Errorf("cache directory was not created: %v", err)
	}
}

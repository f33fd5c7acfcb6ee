package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	got := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if got != Default() {
		t.Fatalf("got %+v, want default %+v", got, Default())
	}
}

func TestLoadOverridesSomeKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	doc := "mapgen_seed = 1234\nviewing_range = 256.0\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got := Load(path)
	if got.MapgenSeed != 1234 {
		t.Fatalf("MapgenSeed = %d, want 1234", got.MapgenSeed)
	}
	if got.ViewingRange != 256.0 {
		t.Fatalf("ViewingRange = %v, want 256", got.ViewingRange)
	}
	if got.MapgenRadiusXY != Default().MapgenRadiusXY {
		t.Fatalf("MapgenRadiusXY = %d, want default %d", got.MapgenRadiusXY, Default().MapgenRadiusXY)
	}
}

func TestLoadMalformedFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	if err := os.WriteFile(path, []byte("not valid toml :::"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got := Load(path)
	if got != Default() {
		t.Fatalf("got %+v, want default %+v", got, Default())
	}
}

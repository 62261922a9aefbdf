package template

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKeywordSet(t *testing.T) {
	set := NewKeywordSet("NULL", "true")

	if !set.Contains("NULL") || !set.Contains("null") || !set.Contains("True") {
		t.Error("expected case-insensitive membership")
	}
	if set.Contains("ACTIVE") {
		t.Error("unexpected member ACTIVE")
	}

	extended := set.With("active")
	if !extended.Contains("ACTIVE") {
		t.Error("expected ACTIVE after With")
	}
	// With returns a copy, the original is untouched.
	if set.Contains("ACTIVE") {
		t.Error("With mutated the original set")
	}
}

func TestDefaultKeywords(t *testing.T) {
	set := DefaultKeywords()
	for _, word := range []string{"SELECT", "NULL", "MISSING", "true", "false"} {
		if !set.Contains(word) {
			t.Errorf("expected default keyword %q", word)
		}
	}
}

func TestLoadKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	content := "keywords:\n  - ACTIVE\n  - pending\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadKeywords(path)
	if err != nil {
		t.Fatalf("LoadKeywords() error: %v", err)
	}
	if !set.Contains("ACTIVE") || !set.Contains("PENDING") {
		t.Error("expected file keywords to be present")
	}
	// Defaults are extended, not replaced.
	if !set.Contains("NULL") {
		t.Error("expected default keywords to survive")
	}
}

func TestLoadKeywordsErrors(t *testing.T) {
	if _, err := LoadKeywords(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("keywords: {not a list"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadKeywords(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

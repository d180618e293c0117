package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validPreset = `{
  "name": "Tiny",
  "description": "Two pairs",
  "pair_count": 2,
  "attempt_counting": true,
  "reveal_window_ms": 800,
  "card_size": 110,
  "pool": ["a", "b", "c"]
}`

func writePreset(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateConfigFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		valid   bool
		message string
	}{
		{"valid", validPreset, true, "✓ Pairs: 2 of 3 face keys (4 cards)"},
		{"broken json", `{"name":`, false, "Invalid JSON"},
		{"unknown field", `{"name":"x","grid_size":4}`, false, "Invalid JSON"},
		{"too many pairs", strings.Replace(validPreset, `"pair_count": 2`, `"pair_count": 4`, 1), false, "pair_count: must be between 1 and pool size 3"},
		{"duplicate key", strings.Replace(validPreset, `"c"]`, `"a"]`, 1), false, "pool: duplicate face key"},
		{"odd card size", strings.Replace(validPreset, `"card_size": 110`, `"card_size": 112`, 1), false, "card_size: must be a multiple of 5"},
		{"no counting", strings.Replace(validPreset, `"attempt_counting": true`, `"attempt_counting": false`, 1), true, "✓ Attempts: not counted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePreset(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".json", tt.content)

			result := validateConfigFile(path)
			if result.Valid != tt.valid {
				t.Fatalf("Expected valid=%v, got %+v", tt.valid, result)
			}
			if !strings.Contains(strings.Join(result.Errors, "\n"), tt.message) {
				t.Errorf("Expected %q in %v", tt.message, result.Errors)
			}
		})
	}
}

func TestValidateConfigFile_Missing(t *testing.T) {
	result := validateConfigFile(filepath.Join(t.TempDir(), "nope.json"))
	if result.Valid || result.File != "nope.json" {
		t.Errorf("Expected invalid result for missing file, got %+v", result)
	}
}

func TestRunValidate_Presets(t *testing.T) {
	var out bytes.Buffer
	if err := runValidate(&out, "configs"); err != nil {
		t.Fatalf("Shipped presets should be valid: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "✅ All configurations are valid!") {
		t.Errorf("Unexpected report:\n%s", out.String())
	}
}

func TestRunValidate_Invalid(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "good.json", validPreset)
	writePreset(t, dir, "bad.json", `{"name": "Bad"}`)

	var out bytes.Buffer
	err := runValidate(&out, dir)
	if !errors.Is(err, errInvalidConfigs) {
		t.Fatalf("Expected errInvalidConfigs, got %v", err)
	}
	if !strings.Contains(out.String(), "❌ INVALID") || !strings.Contains(out.String(), "✅ VALID") {
		t.Errorf("Expected both verdicts in report:\n%s", out.String())
	}
}

func TestRunValidate_EmptyDir(t *testing.T) {
	if err := runValidate(&bytes.Buffer{}, t.TempDir()); err == nil {
		t.Error("Expected error for directory without presets")
	}
}

func TestRunAnalyze(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "tiny.json", validPreset)
	writePreset(t, dir, "bad.json", `{"name": "Bad"}`)

	var out bytes.Buffer
	if err := runAnalyze(&out, dir, 5, 1); err != nil {
		t.Fatalf("runAnalyze failed: %v", err)
	}

	for _, want := range []string{"=== Analyzing tiny.json ===", "Games: 5, won: 5", "Cards: 4 (2 pairs)", "⚠️  Skipped"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestRunAnalyze_InvalidGames(t *testing.T) {
	if err := runAnalyze(&bytes.Buffer{}, "configs", 0, 1); err == nil {
		t.Error("Expected error for zero games")
	}
}

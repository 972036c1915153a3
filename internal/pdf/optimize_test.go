package pdf

import (
	"path/filepath"
	"testing"

	"github.com/xmher/PB-Products-sub000/internal/pdftest"
)

func TestOptimize(t *testing.T) {
	path := pdftest.WriteFlatPDF(t, t.TempDir(), 3)

	result, err := Optimize(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Before <= 0 || result.After <= 0 {
		t.Errorf("expected positive sizes, got %+v", result)
	}
	if result.Saved() != result.Before-result.After {
		t.Errorf("Saved() mismatch")
	}

	pages, err := NewValidator(0).PageCount(path)
	if err != nil {
		t.Fatalf("optimized file unreadable: %v", err)
	}
	if pages != 3 {
		t.Errorf("expected 3 pages after optimize, got %d", pages)
	}
}

func TestOptimize_MissingFile(t *testing.T) {
	if _, err := Optimize(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

package pdf

import (
	"os"
	"path/filepath"
	"testing"

	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
	"github.com/xmher/PB-Products-sub000/internal/pdftest"
)

func TestValidator_ValidateFile(t *testing.T) {
	validator := NewValidator(1024 * 1024) // 1MB limit
	dir := t.TempDir()
	flat := pdftest.WriteFlatPDF(t, dir, 3)

	notPDF := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notPDF, []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	garbage := filepath.Join(dir, "garbage.pdf")
	if err := os.WriteFile(garbage, []byte("this is not a pdf"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	tests := []struct {
		name        string
		path        string
		expectValid bool
		expectPages int
	}{
		{name: "empty path", path: ""},
		{name: "non-existent file", path: "/non/existent/file.pdf"},
		{name: "directory", path: dir},
		{name: "wrong extension", path: notPDF},
		{name: "not a pdf", path: garbage},
		{name: "flat pdf", path: flat, expectValid: true, expectPages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.ValidateFile(PDFValidateFileRequest{Path: tt.path})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result == nil {
				t.Fatalf("result should not be nil")
			}
			if result.Valid != tt.expectValid {
				t.Errorf("expected Valid=%v but got %v (%s)", tt.expectValid, result.Valid, result.Message)
			}
			if result.Path != tt.path {
				t.Errorf("expected Path=%s but got %s", tt.path, result.Path)
			}
			if result.Pages != tt.expectPages {
				t.Errorf("expected Pages=%d but got %d", tt.expectPages, result.Pages)
			}
			if !tt.expectValid && result.Message == "" {
				t.Errorf("expected validation message for invalid file")
			}
		})
	}
}

func TestValidator_PageCount(t *testing.T) {
	dir := t.TempDir()

	for _, n := range []int{1, 2, 5} {
		path := pdftest.WriteFlatPDF(t, dir, n)
		got, err := NewValidator(0).PageCount(path)
		if err != nil {
			t.Fatalf("PageCount(%d pages): %v", n, err)
		}
		if got != n {
			t.Errorf("expected %d pages, got %d", n, got)
		}
	}
}

func TestValidator_FileTooLarge(t *testing.T) {
	path := pdftest.WriteFlatPDF(t, t.TempDir(), 1)

	_, err := NewValidator(16).PageCount(path)
	if err == nil {
		t.Fatal("expected error for file above size limit")
	}
	if !pdferrors.Is(err, pdferrors.ErrorTypeInvalidArtifact) {
		t.Errorf("expected InvalidArtifact, got %v", err)
	}
}

func TestValidator_MissingFileIsIOError(t *testing.T) {
	_, err := NewValidator(0).PageCount(filepath.Join(t.TempDir(), "missing.pdf"))
	if !pdferrors.Is(err, pdferrors.ErrorTypeIO) {
		t.Errorf("expected IO error, got %v", err)
	}
}

func TestValidator_Validate(t *testing.T) {
	path := pdftest.WriteFlatPDF(t, t.TempDir(), 2)
	if err := NewValidator(0).Validate(path); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
	if !NewValidator(0).IsValidPDF(path) {
		t.Errorf("expected IsValidPDF to accept %s", path)
	}
}

// Package pdftest synthesises small PDF documents for tests.
package pdftest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/primitives"
)

func textBox(txt string) *primitives.TextBox {
	return &primitives.TextBox{
		Value:    txt,
		Position: [2]float64{100, 100},
		Font: &primitives.FormFont{
			Name: "Helvetica",
			Size: 12,
		},
	}
}

// CreateNPagePDF writes a flat PDF with n numbered pages to w.
func CreateNPagePDF(w io.Writer, n int) error {
	pages := make(map[string]*primitives.PDFPage, n)
	for i := 1; i <= n; i++ {
		pages[strconv.Itoa(i)] = &primitives.PDFPage{
			Content: &primitives.Content{
				TextBoxes: []*primitives.TextBox{textBox(fmt.Sprintf("Workbook page %d", i))},
			},
		}
	}

	data, err := json.Marshal(primitives.PDF{Pages: pages})
	if err != nil {
		return err
	}
	return api.Create(nil, bytes.NewBuffer(data), w, nil)
}

// FlatPDF returns the bytes of an n-page flat PDF
func FlatPDF(t testing.TB, n int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := CreateNPagePDF(&buf, n); err != nil {
		t.Fatalf("failed to create %d-page PDF: %v", n, err)
	}
	return buf.Bytes()
}

// WriteFlatPDF writes an n-page flat PDF into dir and returns its path
func WriteFlatPDF(t testing.TB, dir string, n int) string {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("flat-%dp.pdf", n))
	if err := os.WriteFile(path, FlatPDF(t, n), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

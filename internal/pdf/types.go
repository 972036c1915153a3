package pdf

import "fmt"

// PDFValidateFileRequest represents a request to validate a PDF artifact
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// PDFStatsFileResult describes a PDF artifact written by the pipeline
type PDFStatsFileResult struct {
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	Pages        int    `json:"pages"`
	CreatedDate  string `json:"created_date,omitempty"`
	ModifiedDate string `json:"modified_date"`
	Title        string `json:"title,omitempty"`
	Producer     string `json:"producer,omitempty"`
}

// SizeMB returns the file size in megabytes
func (r *PDFStatsFileResult) SizeMB() float64 {
	return float64(r.Size) / (1024 * 1024)
}

// FormatMB renders a byte count the way the run summary prints it
func FormatMB(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
}

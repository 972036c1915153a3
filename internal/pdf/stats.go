package pdf

import (
	"strings"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
)

// Stats reports size, pages and document info of pipeline artifacts
type Stats struct {
	validator *Validator
}

// NewStats creates a new PDF stats analyzer with the specified constraints
func NewStats(maxFileSize int64) *Stats {
	return &Stats{validator: NewValidator(maxFileSize)}
}

// GetFileStats returns statistics about a single PDF file
func (s *Stats) GetFileStats(path string) (*PDFStatsFileResult, error) {
	if err := s.validator.validatePDFFile(path); err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidArtifact, "failed to open PDF", err).WithFile(path)
	}
	defer f.Close()

	fileInfo, err := f.Stat()
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "cannot access file", err).WithFile(path)
	}

	result := &PDFStatsFileResult{
		Path:         path,
		Size:         fileInfo.Size(),
		Pages:        r.NumPage(),
		ModifiedDate: fileInfo.ModTime().Format("2006-01-02 15:04:05"),
	}

	extractMetadata(r, result)

	return result, nil
}

// extractMetadata copies the Info dictionary entries we report. The reader
// panics on some malformed trailers, in which case the stats stay basic.
func extractMetadata(r *pdf.Reader, result *PDFStatsFileResult) {
	defer func() {
		_ = recover()
	}()

	trailer := r.Trailer()
	if trailer.IsNull() {
		return
	}

	info := trailer.Key("Info")
	if info.IsNull() {
		return
	}

	result.Title = infoString(info, "Title")
	result.Producer = infoString(info, "Producer")
	result.CreatedDate = infoString(info, "CreationDate")
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

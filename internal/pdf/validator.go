package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
)

// Validator checks PDF artifacts before they are reused or injected
type Validator struct {
	maxFileSize int64
	conf        *model.Configuration
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Validator{
		maxFileSize: maxFileSize,
		conf:        conf,
	}
}

// ValidateFile reports whether a file is a readable PDF, and its page count
func (v *Validator) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	result := &PDFValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	pages, err := v.PageCount(req.Path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	result.Valid = true
	result.Pages = pages
	return result, nil
}

// PageCount validates the artifact at filePath and returns its page count as
// seen by pdfcpu, the library that later injects the form fields.
func (v *Validator) PageCount(filePath string) (int, error) {
	if err := v.validatePDFFile(filePath); err != nil {
		return 0, err
	}

	n, err := api.PageCountFile(filePath)
	if err != nil {
		return 0, pdferrors.WrapError(pdferrors.ErrorTypeInvalidArtifact, "failed to count pages", err).WithFile(filePath)
	}
	return n, nil
}

// Validate runs pdfcpu's relaxed structural validation over the file
func (v *Validator) Validate(filePath string) error {
	if err := v.validatePDFFile(filePath); err != nil {
		return err
	}
	if err := api.ValidateFile(filePath, v.conf); err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeInvalidArtifact, "PDF failed validation", err).WithFile(filePath)
	}
	return nil
}

// validatePDFFile performs the cheap checks and opens the file once
func (v *Validator) validatePDFFile(filePath string) error {
	if filePath == "" {
		return pdferrors.NewPipelineError(pdferrors.ErrorTypeIO, "path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return pdferrors.WrapError(pdferrors.ErrorTypeIO, "file does not exist", err).WithFile(filePath)
	}
	if err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeIO, "cannot access file", err).WithFile(filePath)
	}

	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return err
	}

	f, _, err := pdf.Open(filePath)
	if err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeInvalidArtifact, "invalid PDF file", err).WithFile(filePath)
	}
	defer f.Close()

	return nil
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	return v.validatePDFFile(filePath) == nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return pdferrors.NewPipelineError(pdferrors.ErrorTypeIO, "path is a directory, not a file").WithFile(filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return pdferrors.NewPipelineError(pdferrors.ErrorTypeInvalidArtifact, "file is not a PDF").WithFile(filePath)
	}

	if fileInfo.Size() == 0 {
		return pdferrors.NewPipelineError(pdferrors.ErrorTypeInvalidArtifact, "file is empty").WithFile(filePath)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return pdferrors.NewPipelineErrorWithContext(pdferrors.ErrorTypeInvalidArtifact, "file too large",
			fmt.Sprintf("%d bytes (max: %d bytes)", fileInfo.Size(), v.maxFileSize)).WithFile(filePath)
	}

	return nil
}

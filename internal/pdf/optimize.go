package pdf

import (
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/xmher/PB-Products-sub000/internal/logger"
	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
)

// OptimizeResult reports the file size before and after optimization
type OptimizeResult struct {
	Path   string `json:"path"`
	Before int64  `json:"before"`
	After  int64  `json:"after"`
}

// Saved returns the number of bytes removed
func (r *OptimizeResult) Saved() int64 {
	return r.Before - r.After
}

// Optimize rewrites the PDF at path in place, dropping duplicate and unused
// objects. The original is left untouched when optimization fails.
func Optimize(path string) (*OptimizeResult, error) {
	before, err := os.Stat(path)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "cannot access file", err).WithFile(path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".optimized-*.pdf")
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to create temporary file", err).WithFile(path)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.OptimizeFile(path, tmpName, conf); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidArtifact, "failed to optimize PDF", err).WithFile(path)
	}

	after, err := os.Stat(tmpName)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "cannot access optimized file", err).WithFile(path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to replace PDF", err).WithFile(path)
	}

	result := &OptimizeResult{Path: path, Before: before.Size(), After: after.Size()}
	logger.Debug("[pdf] optimized",
		zap.String("path", path),
		zap.Int64("before", result.Before),
		zap.Int64("after", result.After),
	)
	return result, nil
}

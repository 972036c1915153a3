package fields

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	pdferrors "github.com/xmher/PB-Products-sub000/internal/pdf/errors"
)

// Save writes the field set as indented JSON, replacing any previous file.
func (fs *FieldSet) Save(path string) error {
	data, err := json.MarshalIndent(fs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to create fields directory", err).WithFile(path)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to write fields JSON", err).WithFile(path)
	}
	return nil
}

// Load reads a previously saved field set
func Load(path string) (*FieldSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeIO, "failed to read fields JSON", err).WithFile(path)
	}

	var fs FieldSet
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidArtifact, "malformed fields JSON", err).WithFile(path)
	}
	if fs.PageCount <= 0 {
		return nil, pdferrors.NewPipelineErrorWithContext(pdferrors.ErrorTypeInvalidArtifact,
			"fields JSON has no pages", fmt.Sprintf("pageCount=%d", fs.PageCount)).WithFile(path)
	}
	if fs.Fields == nil {
		fs.Fields = []Descriptor{}
	}
	return &fs, nil
}

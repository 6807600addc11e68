package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Artifact errors. Missing artifacts mean training has never run; corrupt
// artifacts are fatal for the current process start and require re-training
// or restoration.
var (
	ErrArtifactMissing = errors.New("artifact missing")
	ErrArtifactCorrupt = errors.New("artifact corrupt")
)

// ArtifactVersion is the serialization format version stamped into both
// artifact files and checked on load.
const ArtifactVersion = 1

// Canonical artifact file names inside the model directory. The two files
// form one pair and must never be mixed across training runs.
const (
	ScalerFileName = "scaler.json"
	ModelFileName  = "model.json"
)

// SaveScaler persists scaler parameters as a versioned JSON artifact.
// The write is atomic: a temporary file in the same directory is renamed
// over the destination, so a crash mid-write never leaves a partial file.
func SaveScaler(s *ScalerParams, path string) error {
	if err := s.validate(); err != nil {
		return fmt.Errorf("save scaler: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("save scaler: %w", err)
	}
	return writeAtomic(path, data)
}

// LoadScaler reads and validates a scaler artifact.
func LoadScaler(path string) (*ScalerParams, error) {
	data, err := readArtifact(path, "scaler")
	if err != nil {
		return nil, err
	}
	var s ScalerParams
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: scaler %s: %v", ErrArtifactCorrupt, path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: scaler %s: %v", ErrArtifactCorrupt, path, err)
	}
	return &s, nil
}

// SaveModel persists the trained forest as a versioned JSON artifact, with
// the same atomic replace discipline as SaveScaler.
func SaveModel(f *Forest, path string) error {
	if err := f.validate(); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return writeAtomic(path, data)
}

// LoadModel reads and validates a classifier artifact.
func LoadModel(path string) (*Forest, error) {
	data, err := readArtifact(path, "model")
	if err != nil {
		return nil, err
	}
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: model %s: %v", ErrArtifactCorrupt, path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: model %s: %v", ErrArtifactCorrupt, path, err)
	}
	return &f, nil
}

func readArtifact(path, kind string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s %s", ErrArtifactMissing, kind, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", kind, path, err)
	}
	return data, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

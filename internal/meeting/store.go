package meeting

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const MetadataFilename = "video_metadata.json"

var (
	ErrNoVideo    = errors.New("meeting has no downloaded video")
	ErrEmptyVideo = errors.New("downloaded video file is empty")
)

// JSONStore persists meeting metadata as an indented JSON
// document at a fixed path inside the work directory.
type JSONStore struct {
	dir string
}

func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{dir: dir}
}

func (store *JSONStore) Path() string {
	return filepath.Join(store.dir, MetadataFilename)
}

// Save writes the metadata, replacing any document from a previous run.
func (store *JSONStore) Save(metadata *Metadata) error {
	b, err := json.MarshalIndent(metadata, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal meeting metadata: %w", err)
	}

	return writeFileAtomic(store.Path(), b)
}

func (store *JSONStore) Load() (*Metadata, error) {
	b, err := os.ReadFile(store.Path())
	if err != nil {
		return nil, err
	}

	var metadata Metadata
	if err := json.Unmarshal(b, &metadata); err != nil {
		return nil, fmt.Errorf("metadata document %s is malformed: %w", store.Path(), err)
	}

	return &metadata, nil
}

// UploadEligible returns nil only if the metadata points at a
// downloaded, non-empty video file.
func (metadata *Metadata) UploadEligible() error {
	if metadata == nil || metadata.VideoPath == nil || *metadata.VideoPath == "" {
		return ErrNoVideo
	}

	info, err := os.Stat(*metadata.VideoPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoVideo, err)
	}
	if info.Size() == 0 {
		return ErrEmptyVideo
	}

	return nil
}

// writeFileAtomic writes to a temp file then renames it into place.
func writeFileAtomic(dest string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, dest)
}

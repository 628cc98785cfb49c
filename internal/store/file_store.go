package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/hack-pad/hackpadfs"

	"github.com/kittclouds/arbor/pkg/script"
)

// treeExt is the project file extension.
const treeExt = ".tree"

// FileStore persists stories as JSON project files over a hackpadfs
// filesystem: an os-backed FS in the CLI, a mem FS in tests.
type FileStore struct {
	fs  hackpadfs.FS
	dir string
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(fsys hackpadfs.FS, dir string) (*FileStore, error) {
	if err := hackpadfs.MkdirAll(fsys, dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{fs: fsys, dir: dir}, nil
}

func (f *FileStore) storyPath(name string) string {
	return path.Join(f.dir, name+treeExt)
}

// SaveStory writes the story to <dir>/<name>.tree.
func (f *FileStore) SaveStory(_ context.Context, s *script.Story) error {
	data, err := json.MarshalIndent(encodeStory(s), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode story: %w", err)
	}
	if err := hackpadfs.WriteFullFile(f.fs, f.storyPath(s.Name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write story file: %w", err)
	}
	return nil
}

// LoadStory reads a story file back, reconstructing and validating the tree
// arrays.
func (f *FileStore) LoadStory(_ context.Context, name string) (*script.Story, error) {
	data, err := hackpadfs.ReadFile(f.fs, f.storyPath(name))
	if errors.Is(err, hackpadfs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}
	var stored storedStory
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode story file: %w", err)
	}
	return decodeStory(stored)
}

// ListStories returns the names of all .tree files in the store directory.
func (f *FileStore) ListStories(_ context.Context) ([]string, error) {
	entries, err := fs.ReadDir(f.fs, f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), treeExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), treeExt))
	}
	sort.Strings(names)
	return names, nil
}

// DeleteStory removes a story file.
func (f *FileStore) DeleteStory(_ context.Context, name string) error {
	err := hackpadfs.Remove(f.fs, f.storyPath(name))
	if errors.Is(err, hackpadfs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to remove story file: %w", err)
	}
	return nil
}

// Close is a no-op; the file store holds no resources.
func (f *FileStore) Close() error {
	return nil
}

package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Scratch hands out uniquely named temporary audio files under a single directory.
type Scratch struct {
	dir string
}

// NewScratch creates a scratch area rooted at dir. The directory is created lazily.
func NewScratch(dir string) *Scratch {
	return &Scratch{dir: dir}
}

// Dir returns the scratch directory path.
func (s *Scratch) Dir() string { return s.dir }

// TempAudio is a scratch file owned by exactly one submission.
// Release deletes it; calling Release more than once is a no-op.
type TempAudio struct {
	Path string
	Name string // base name, also used as the object key suffix
	Ext  string // lower-case extension without the dot

	once sync.Once
	err  error
}

// Save copies r into a new file named {uuid}.{ext}. On any failure the partial
// file is removed and no TempAudio is returned.
func (s *Scratch) Save(r io.Reader, ext string) (*TempAudio, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", s.dir, err)
	}

	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	name := uuid.NewString() + "." + ext
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close: %w", err)
	}
	return &TempAudio{Path: path, Name: name, Ext: ext}, nil
}

// Release deletes the file. A file that is already gone is not an error.
func (t *TempAudio) Release() error {
	t.once.Do(func() {
		if err := os.Remove(t.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.err = err
		}
	})
	return t.err
}

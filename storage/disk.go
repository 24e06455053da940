package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"pagekit/enhance"
)

// Disk stores one file per key under Dir. File names are hashes of the
// key, fanned out over two directory levels.
type Disk struct {
	dir string
}

// NewDisk prepares dir for use.
func NewDisk(dir string) (*Disk, error) {
	if dir == "" {
		return nil, errors.New("storage: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &Disk{dir: dir}, nil
}

func (d *Disk) pathFor(key string) (string, string) {
	sum := sha1.Sum([]byte(key))
	name := hex.EncodeToString(sum[:])
	dir := filepath.Join(d.dir, name[0:1], name[1:2])
	return dir, filepath.Join(dir, name+".json")
}

// GetItem implements enhance.Backend.
func (d *Disk) GetItem(key string) ([]byte, error) {
	_, path := d.pathFor(key)
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, enhance.ErrNotFound
	}
	return b, err
}

// SetItem implements enhance.Backend. The value is written to a temporary
// file and renamed into place.
func (d *Disk) SetItem(key string, value []byte) error {
	dir, path := d.pathFor(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

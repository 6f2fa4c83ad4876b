package docstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store persists uploaded documents and hands back opaque paths. File
// contents are never interpreted here.
type Store interface {
	Save(bookingID int64, docType, filename string, r io.Reader) (string, error)
}

type diskStore struct{ root string }

func NewDisk(root string) Store { return &diskStore{root: root} }

func (s *diskStore) Save(bookingID int64, docType, filename string, r io.Reader) (string, error) {
	dir := filepath.Join(s.root, fmt.Sprintf("booking_%d", bookingID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, docType+filepath.Ext(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

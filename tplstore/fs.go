package tplstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/lvillar/quotepdf/doctpl"
)

// Extensions tried, in order, for a template id.
var extensions = []string{".json", ".yaml", ".yml"}

// FSStore reads "<id>.json", "<id>.yaml" or "<id>.yml" from a file system.
type FSStore struct {
	fsys fs.FS
}

// NewFSStore serves templates from fsys, e.g. an embed.FS.
func NewFSStore(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys}
}

// NewDirStore serves templates from a directory on disk.
func NewDirStore(dir string) *FSStore {
	return NewFSStore(os.DirFS(dir))
}

// Get implements Store.
func (s *FSStore) Get(_ context.Context, id string) (*doctpl.Template, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	for _, ext := range extensions {
		data, err := fs.ReadFile(s.fsys, id+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("tplstore: reading %s%s: %w", id, ext, err)
		}
		return decode(id, data)
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
}

// List returns the ids of every template file at the root of the store.
func (s *FSStore) List(_ context.Context) ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("tplstore: listing templates: %w", err)
	}
	seen := map[string]bool{}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := path.Ext(e.Name())
		for _, want := range extensions {
			if ext == want {
				id := strings.TrimSuffix(e.Name(), ext)
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// validID rejects ids that would escape the store root.
func validID(id string) bool {
	return id != "" && fs.ValidPath(id) && !strings.Contains(id, "/")
}

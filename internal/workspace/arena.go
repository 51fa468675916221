// Package workspace gives every pipeline run its own directory for
// intermediate files.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Arena is the per-run working directory <root>/<run id>
type Arena struct {
	ID  string
	Dir string
}

// New creates a fresh arena with a random run id under root
func New(root string) (*Arena, error) {
	id := uuid.New().String()
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &Arena{ID: id, Dir: dir}, nil
}

// Path returns the location of a named artifact inside the arena
func (a *Arena) Path(name string) string {
	return filepath.Join(a.Dir, filepath.Base(name))
}

// Remove deletes the arena and everything in it
func (a *Arena) Remove() error {
	return os.RemoveAll(a.Dir)
}

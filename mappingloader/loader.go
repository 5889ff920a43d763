// Package mappingloader adapts the cie10 loader to the interfaces.Loader
// contract used by the scheduler.
package mappingloader

import (
	"fmt"
	"time"

	"github.com/giygas/cie10-api/cie10"
	"github.com/giygas/cie10-api/interfaces"
	"github.com/giygas/cie10-api/logging"
)

// Compile-time check to ensure FileLoader implements Loader interface
var _ interfaces.Loader = (*FileLoader)(nil)

// FileLoader loads the mapping from a CSV file on disk
type FileLoader struct {
	path string
}

// NewFileLoader creates a FileLoader for path
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Path returns the file the loader reads
func (l *FileLoader) Path() string {
	return l.path
}

// LoadMapping implements the Loader interface
func (l *FileLoader) LoadMapping() (*cie10.Result, error) {
	start := time.Now()

	res, err := cie10.Load(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping from %s: %w", l.path, err)
	}

	logging.Debug("Mapping file parsed",
		"path", l.path,
		"encoding", res.Encoding,
		"rows", res.RowsRead,
		"entries", len(res.Mapping),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return res, nil
}

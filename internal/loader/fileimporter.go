package loader

import (
	"os"
	"path/filepath"
)

// FileImporter is the default Importer, backed by the OS filesystem. Import
// paths always resolve relative to the importing file's directory,
// regardless of whether they're written with a leading `./`/`../` or not.
type FileImporter struct{}

func (FileImporter) Read(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from program source under the caller's control
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (FileImporter) Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func (FileImporter) Resolve(fromPath, importPath string) (string, error) {
	return filepath.Join(filepath.Dir(fromPath), importPath), nil
}

package source

import (
	"os"
	"path/filepath"
	"strings"
)

// ScanLogDir walks a request-log directory and returns all .jsonl and
// .json files, recursively. A missing directory is not an error.
func ScanLogDir(logDir string) ([]string, error) {
	info, err := os.Stat(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(logDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".jsonl", ".json":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// ScanAgentsDir returns session JSONL files matching the OpenClaw layout
// <agentsDir>/<agent>/sessions/*.jsonl. A missing directory is not an error.
func ScanAgentsDir(agentsDir string) ([]string, error) {
	info, err := os.Stat(agentsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	matches, err := filepath.Glob(filepath.Join(agentsDir, "*", "sessions", "*.jsonl"))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, m := range matches {
		if strings.HasSuffix(m, ".jsonl") {
			files = append(files, m)
		}
	}
	return files, nil
}

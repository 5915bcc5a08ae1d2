package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
)

func mkRunDir(outputsRoot, runID string) (string, error) {
	dir := filepath.Join(outputsRoot, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// persist writes <outputs>/<run_id>/report.json and returns its path.
func persist(outputsRoot string, res *Result) (string, error) {
	dir, err := mkRunDir(outputsRoot, res.RunID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "report.json")
	if err := writeJSON(path, res); err != nil {
		return "", err
	}
	return path, nil
}

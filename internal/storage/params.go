package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mooretm/peat"
)

// DefaultParamsFile is the session-parameter file name, stored next to
// the data directory.
const DefaultParamsFile = "peat_params.json"

// LoadParams reads session parameters from a JSON file. A missing file is
// not an error: the defaults are returned so a first run works out of the
// box.
func LoadParams(path string) (peat.Config, error) {
	cfg := peat.DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read session parameters: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse session parameters: %w", err)
	}
	return cfg, nil
}

// SaveParams writes session parameters to a JSON file, creating parent
// directories as needed.
func SaveParams(path string, cfg peat.Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parameter directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

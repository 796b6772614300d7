package config

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"go.viam.com/facecube/logging"
)

// Read reads a config from the given file, expanding environment variables first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := &Config{MarginCM: DefaultMarginCM}
	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	cfg.ConfigFilePath = originalPath

	if originalPath != "" {
		dir := filepath.Dir(originalPath)
		for i, f := range cfg.Source.Files {
			if f != "" && !filepath.IsAbs(f) {
				cfg.Source.Files[i] = filepath.Join(dir, f)
			}
		}
	}

	if err := cfg.Validate("facecube"); err != nil {
		return nil, err
	}
	logger.Debugw("read config",
		"path", originalPath,
		"margin_cm", cfg.MarginCM,
		"hole_fill_window", cfg.HoleFillWindow,
		"output", cfg.Output,
		"files", len(cfg.Source.Files))
	return cfg, nil
}

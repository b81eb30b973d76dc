// Package pipeline runs the stages that turn a cell line's raw inputs
// (chromatin segmentation, expression, Hi-C loops, peaks, methylation and
// CAGE) into a labeled training table.  Each stage reads its inputs relative
// to the configured working directory and writes its outputs there.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/chromatics/interval"
)

// Config holds the per-cell-line settings of a pipeline run.
type Config struct {
	// Regions lists the pair regions ("enhancer", "promoter", "window") to
	// generate features for.
	Regions []string `json:"regions"`
	// WorkingDir is where stage inputs are found and outputs written.  After
	// LoadConfig it is resolved against the directory of the config file.
	WorkingDir string `json:"working_dir"`
	// EnhancerExtensionSize and PromoterExtensionSize widen the elements on
	// both sides.
	EnhancerExtensionSize interval.PosType `json:"enhancer_extension_size"`
	PromoterExtensionSize interval.PosType `json:"promoter_extension_size"`
	// BaseConfigFn names a config, relative to this one, whose values this
	// config overrides.
	BaseConfigFn string `json:"base_config_fn,omitempty"`

	// CellLine is derived from the config path.
	CellLine string `json:"-"`
}

func readJSON(ctx context.Context, path string) (m map[string]json.RawMessage, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, in, &err)
	data, err := ioutil.ReadAll(in.Reader(ctx))
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(data, &m); err != nil {
		return nil, errors.E(errors.Invalid, err, "pipeline: parsing config", path)
	}
	return m, nil
}

// CellLine returns the cell line named by a config path: its first element
// ("K562/config.json" -> "K562"), or for absolute paths the name of the
// directory holding the config.
func CellLine(path string) string {
	path = filepath.Clean(path)
	if filepath.IsAbs(path) {
		return filepath.Base(filepath.Dir(path))
	}
	return strings.Split(filepath.ToSlash(path), "/")[0]
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home := os.Getenv("HOME")
	if home == "" {
		return path
	}
	return filepath.Join(home, path[1:])
}

// LoadConfig reads the JSON config at path.  When the config names a
// base_config_fn, the base is read first (relative to path's directory) and
// overridden key by key.  working_dir is resolved against path's directory
// and defaults to it.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	values, err := readJSON(ctx, path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if raw, ok := values["base_config_fn"]; ok {
		var base string
		if err := json.Unmarshal(raw, &base); err != nil {
			return nil, errors.E(errors.Invalid, err, "pipeline: base_config_fn in", path)
		}
		baseValues, err := readJSON(ctx, filepath.Join(dir, base))
		if err != nil {
			return nil, err
		}
		for k, v := range values {
			baseValues[k] = v
		}
		values = baseValues
	}
	merged, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := json.Unmarshal(merged, cfg); err != nil {
		return nil, errors.E(errors.Invalid, err, "pipeline: config", path)
	}
	if cfg.WorkingDir == "" {
		cfg.WorkingDir = dir
	} else if wd := expandHome(cfg.WorkingDir); filepath.IsAbs(wd) {
		cfg.WorkingDir = wd
	} else {
		cfg.WorkingDir = filepath.Join(dir, wd)
	}
	cfg.CellLine = CellLine(path)
	if cfg.EnhancerExtensionSize < 0 || cfg.PromoterExtensionSize < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("pipeline: negative extension size in %s", path))
	}
	return cfg, nil
}

// Path returns rel resolved against the working directory.
func (c *Config) Path(rel string) string {
	return filepath.Join(c.WorkingDir, rel)
}

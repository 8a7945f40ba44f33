// Package config loads pipeline options from TOML, YAML or JSON files.
//
// Unset fields keep their defaults; in particular a partial [force] table
// only overrides the keys it names:
//
//	generator = "barabasi-albert"
//	seed = 7
//
//	[params]
//	nodes = 300
//	edges_per_node = 2
//
//	[force]
//	max_iterations = 300
//	gravity_force = 0.05
//
// Unknown keys are rejected so that typos do not pass silently.
package config

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	fgerrors "github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/layout/force"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
)

// LoadFile reads options from path, choosing the decoder by extension
// (.toml, .yaml, .yml, .json).
func LoadFile(path string) (pipeline.Options, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return pipeline.Options{}, fgerrors.Wrap(fgerrors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return pipeline.Options{}, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return LoadTOML(f)
	case ".yaml", ".yml":
		return LoadYAML(f)
	case ".json":
		return LoadJSON(f)
	default:
		return pipeline.Options{}, fgerrors.New(fgerrors.ErrCodeInvalidFormat, "unsupported config extension %q (must be .toml, .yaml, .yml or .json)", ext)
	}
}

// LoadTOML decodes TOML options.
func LoadTOML(r io.Reader) (pipeline.Options, error) {
	opts := seeded()
	md, err := toml.NewDecoder(r).Decode(&opts)
	if err != nil {
		return pipeline.Options{}, fgerrors.Wrap(fgerrors.ErrCodeInvalidConfig, err, "decode TOML")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return pipeline.Options{}, fgerrors.New(fgerrors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	return opts, nil
}

// LoadYAML decodes YAML options. An empty document yields the defaults.
func LoadYAML(r io.Reader) (pipeline.Options, error) {
	opts := seeded()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return pipeline.Options{}, fgerrors.Wrap(fgerrors.ErrCodeInvalidConfig, err, "decode YAML")
	}
	return opts, nil
}

// LoadJSON decodes JSON options, the same shape the API accepts.
func LoadJSON(r io.Reader) (pipeline.Options, error) {
	opts := seeded()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		return pipeline.Options{}, fgerrors.Wrap(fgerrors.ErrCodeInvalidConfig, err, "decode JSON")
	}
	return opts, nil
}

// seeded returns options whose Force points at the defaults, so decoders
// fill only the keys present in the file.
func seeded() pipeline.Options {
	cfg := force.DefaultConfig()
	return pipeline.Options{Force: &cfg}
}

package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	cat := &Catalog{}
	if err := decodeYAML(defaultCatalog, cat); err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	return cat, nil
}

// DefaultYAML returns the built-in catalog source.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultCatalog...)
}

// Load reads the catalog at path on top of the built-in catalog and
// validates the result. The format follows the extension: .yaml, .yml
// or .toml. An empty path returns the validated built-in catalog.
func Load(path string) (*Catalog, error) {
	cat, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, NewConfigNotFoundError(path)
			}
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		if err := Decode(path, data, cat); err != nil {
			return nil, NewConfigParseError(path, err)
		}
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// Decode decodes data into cat using the format implied by name.
// Keys not present in data keep their current values; unknown keys are
// rejected.
func Decode(name string, data []byte, cat *Catalog) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return decodeYAML(data, cat)
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cat)
	default:
		return fmt.Errorf("unsupported catalog format %q (want .yaml, .yml or .toml)", filepath.Ext(name))
	}
}

func decodeYAML(data []byte, cat *Catalog) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cat); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

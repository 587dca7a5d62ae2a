package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LoadTOML attempts to load configuration from a .greaper.toml file in projectRoot
func LoadTOML(projectRoot string) (*Config, error) {
	tomlPath := filepath.Join(projectRoot, TOMLFileName)

	if _, err := os.Stat(tomlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(tomlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", TOMLFileName, err)
	}

	cfg, err := parseTOML(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", tomlPath, err)
	}

	resolveRoot(cfg, projectRoot)
	return cfg, nil
}

// parseTOML decodes over the defaults so absent keys keep their values.
// A present exclude array replaces the default exclusions.
func parseTOML(content []byte) (*Config, error) {
	cfg := DefaultConfig("")
	cfg.Exclude = nil

	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}

	if cfg.Exclude == nil {
		cfg.Exclude = getDefaultExclusions()
	}
	return cfg, nil
}

// LoadFile loads an explicit config file, picking the format by extension
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		cfg, err = parseTOML(content)
	case ".kdl":
		cfg, err = parseKDL(string(content))
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .kdl or .toml)", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	resolveRoot(cfg, filepath.Dir(path))
	return cfg, nil
}

// MarshalTOML renders the effective configuration for `greaper config show`
func MarshalTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

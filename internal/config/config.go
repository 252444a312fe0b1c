package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/stage-deps/internal/domain/artifact"
)

// Config holds the staging settings.
type Config struct {
	// SourceRoot is the installation root with prebuilt artifacts under bin/.
	SourceRoot string `yaml:"source_root"`
	// ToolPrefix is prepended to every module base name, e.g. "Qt5".
	ToolPrefix string `yaml:"tool_prefix"`
	// ToolsetTag prefixes the toolset derived from the compiler token, e.g. "vc".
	ToolsetTag string `yaml:"toolset_tag"`
	// Modules lists module base names in staging order.
	Modules []string `yaml:"modules"`
	// Extensions lists artifact extensions in staging order.
	Extensions []string `yaml:"extensions"`
}

const (
	// DefaultConfigFilename is the default filename for staging settings.
	DefaultConfigFilename = "stage-deps.yaml"

	// SourceRootEnv overrides SourceRoot when set.
	SourceRootEnv = "STAGE_DEPS_SOURCE_ROOT"

	// DefaultToolPrefix is the product-family prefix of toolkit libraries.
	DefaultToolPrefix = "Qt5"

	// DefaultToolsetTag prefixes derived toolsets.
	DefaultToolsetTag = "vc"

	// DefaultFilePermissions is the permission of saved config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrSourceRootRequired is returned when no source root was configured anywhere.
	ErrSourceRootRequired = errors.New("source root must be provided")
)

// DefaultModules returns the toolkit subsystems staged when none are configured.
func DefaultModules() []string {
	return []string{"Core", "Gui", "Widgets"}
}

// DefaultExtensions returns the library then symbols extensions.
func DefaultExtensions() []string {
	return []string{"dll", "pdb"}
}

// Default returns settings with every field but SourceRoot filled in.
func Default() *Config {
	return &Config{
		ToolPrefix: DefaultToolPrefix,
		ToolsetTag: DefaultToolsetTag,
		Modules:    DefaultModules(),
		Extensions: DefaultExtensions(),
	}
}

// Load reads settings from path on top of Default. It does not validate:
// the source root may still be supplied by the environment or a flag.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to path after validating it.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// ApplyEnv overrides SourceRoot from SourceRootEnv using lookup, usually os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if value, ok := lookup(SourceRootEnv); ok && strings.TrimSpace(value) != "" {
		cfg.SourceRoot = strings.TrimSpace(value)
	}
}

// Validate fills empty lists with defaults and checks that the settings can produce
// distinct artifact names.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if strings.TrimSpace(cfg.SourceRoot) == "" {
		return ErrSourceRootRequired
	}

	if len(cfg.Modules) == 0 {
		cfg.Modules = DefaultModules()
	}

	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions()
	}

	if err := artifact.ValidateNames(cfg.ModuleList(), cfg.ExtensionList()); err != nil {
		return fmt.Errorf("invalid artifact names: %w", err)
	}

	return nil
}

// ModuleList returns the configured modules as domain values.
func (c *Config) ModuleList() []artifact.Module {
	return artifact.Modules(c.Modules...)
}

// ExtensionList returns the configured extensions as domain values.
func (c *Config) ExtensionList() []artifact.Extension {
	return artifact.Extensions(c.Extensions...)
}

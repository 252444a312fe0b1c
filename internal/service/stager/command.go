package stager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/oshokin/stage-deps/internal/config"
	"github.com/oshokin/stage-deps/internal/domain/artifact"
	"github.com/oshokin/stage-deps/internal/logger"
	"github.com/oshokin/stage-deps/internal/repository/fsstore"
)

// Options contains inputs for the stage-deps entry point.
type Options struct {
	// ConfigPath is the settings file (defaults to stage-deps.yaml).
	ConfigPath string
	// ConfigRequired makes a missing settings file an error instead of using defaults.
	ConfigRequired bool
	// DestDir is the directory receiving artifacts.
	DestDir string
	// Variant is the raw build configuration name; only "debug" selects debug artifacts.
	Variant string
	// ToolsetToken is the optional compiler version token, e.g. "v140".
	ToolsetToken string
	// SourceRoot overrides the configured and environment source root.
	SourceRoot string
	// DryRun reports the plan without copying.
	DryRun bool
	// CollectMissing reports every missing source at once and copies nothing if any is missing.
	CollectMissing bool
	// Store is the filesystem to use; nil means the real one.
	Store fsstore.Store
	// LookupEnv reads environment variables; nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Run executes the staging workflow.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "stage-deps")

	cfg, err := loadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(ctx, "source_root", cfg.SourceRoot)

	store := opts.Store
	if store == nil {
		store = fsstore.NewOS()
	}

	req := &Request{
		DestDir:        opts.DestDir,
		Variant:        artifact.ParseVariant(opts.Variant),
		Toolset:        artifact.ParseToolset(opts.ToolsetToken, cfg.ToolsetTag),
		ToolPrefix:     cfg.ToolPrefix,
		SourceRoot:     cfg.SourceRoot,
		Modules:        cfg.ModuleList(),
		Extensions:     cfg.ExtensionList(),
		CollectMissing: opts.CollectMissing,
		DryRun:         opts.DryRun,
	}

	result, err := Stage(ctx, store, req)
	if err != nil {
		return result, fmt.Errorf("stage artifacts: %w", err)
	}

	logger.DebugKV(ctx, "Staging completed",
		"copied", result.Copied,
		"skipped", result.Skipped,
		"pending", result.Pending,
	)

	return result, nil
}

// loadConfig resolves settings: file (or defaults), then environment, then options.
func loadConfig(ctx context.Context, opts *Options) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultConfigFilename
	}

	cfg, err := config.Load(path)

	switch {
	case err == nil:
		logger.DebugKV(ctx, "Loaded settings", "path", path)
	case errors.Is(err, os.ErrNotExist) && !opts.ConfigRequired:
		logger.DebugKV(ctx, "Settings file not found, using defaults", "path", path)

		cfg = config.Default()
	default:
		return nil, fmt.Errorf("load settings: %w", err)
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	config.ApplyEnv(cfg, lookup)

	if root := strings.TrimSpace(opts.SourceRoot); root != "" {
		cfg.SourceRoot = root
	}

	if err = config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	return cfg, nil
}

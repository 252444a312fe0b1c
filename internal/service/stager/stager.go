package stager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/oshokin/stage-deps/internal/domain/artifact"
	"github.com/oshokin/stage-deps/internal/logger"
	"github.com/oshokin/stage-deps/internal/repository/fsstore"
)

var (
	// ErrMissingSourceArtifact matches every *MissingSourceArtifactError.
	ErrMissingSourceArtifact = errors.New("missing source artifact")
	// ErrDestinationNotDirectory is returned when the destination is absent or not a directory.
	ErrDestinationNotDirectory = errors.New("destination is not an existing directory")
	// errRequestIsNotSet is returned for a nil request.
	errRequestIsNotSet = errors.New("stage request is not set")
)

// MissingSourceArtifactError reports a required artifact absent from the source root.
type MissingSourceArtifactError struct {
	// Path is the full expected source path.
	Path string
}

// Error implements error.
func (e *MissingSourceArtifactError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingSourceArtifact, e.Path)
}

// Is makes errors.Is(err, ErrMissingSourceArtifact) hold.
func (e *MissingSourceArtifactError) Is(target error) bool {
	return target == ErrMissingSourceArtifact
}

// Request describes one staging run.
type Request struct {
	// DestDir receives the artifacts; it must exist.
	DestDir string
	// Variant selects debug or release artifacts.
	Variant artifact.Variant
	// Toolset is reported only; file names do not depend on it.
	Toolset artifact.Toolset
	// ToolPrefix is prepended to module base names.
	ToolPrefix string
	// SourceRoot holds prebuilt artifacts under bin/.
	SourceRoot string
	// Modules are staged in order.
	Modules []artifact.Module
	// Extensions are staged in order for every module.
	Extensions []artifact.Extension
	// CollectMissing checks every source before copying anything and reports all missing ones.
	CollectMissing bool
	// DryRun reports what would happen without copying.
	DryRun bool
}

// Result summarizes a staging run.
type Result struct {
	// Artifacts is the number of artifacts in the plan.
	Artifacts int
	// Copied counts artifacts copied by this run.
	Copied int
	// Skipped counts artifacts already present at the destination.
	Skipped int
	// Pending counts artifacts a dry run would copy.
	Pending int
}

// Stage copies every planned artifact missing from req.DestDir.
//
// Artifacts are walked module by module, extension by extension. The first
// missing source aborts the run with a *MissingSourceArtifactError; copies made
// before it stay in place. Destinations that already exist are skipped whatever
// their contents. The returned Result is valid even when err is not nil.
func Stage(ctx context.Context, store fsstore.Store, req *Request) (*Result, error) {
	if req == nil {
		return nil, errRequestIsNotSet
	}

	result := new(Result)

	destDir, err := filepath.Abs(req.DestDir)
	if err != nil {
		return result, fmt.Errorf("resolve destination %s: %w", req.DestDir, err)
	}

	sourceRoot, err := filepath.Abs(req.SourceRoot)
	if err != nil {
		return result, fmt.Errorf("resolve source root %s: %w", req.SourceRoot, err)
	}

	isDir, err := store.IsDir(destDir)
	if err != nil {
		return result, err
	}

	if !isDir {
		return result, fmt.Errorf("%s: %w", destDir, ErrDestinationNotDirectory)
	}

	layout := artifact.Layout{
		ToolPrefix: req.ToolPrefix,
		SourceRoot: sourceRoot,
		DestDir:    destDir,
	}

	plan := artifact.Plan(layout, req.Variant, req.Modules, req.Extensions)
	result.Artifacts = len(plan)

	logger.InfoKV(ctx, "Staging runtime dependencies",
		"destination", destDir,
		"variant", req.Variant,
		"toolset", req.Toolset,
		"artifacts", len(plan),
	)

	if req.DryRun {
		return result, dryRun(ctx, store, plan, result)
	}

	if req.CollectMissing {
		if err = checkSources(store, plan); err != nil {
			return result, err
		}
	}

	for _, a := range plan {
		if err = ctx.Err(); err != nil {
			return result, err
		}

		if err = stageArtifact(ctx, store, a, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

// stageArtifact handles a single artifact: source check, skip check, copy.
func stageArtifact(ctx context.Context, store fsstore.Store, a artifact.Artifact, result *Result) error {
	if err := requireSource(store, a); err != nil {
		return err
	}

	exists, err := store.Exists(a.DestPath)
	if err != nil {
		return err
	}

	if exists {
		logger.DebugKV(ctx, "Artifact already staged", "file", a.FileName)

		result.Skipped++

		return nil
	}

	written, err := store.Copy(a.SourcePath, a.DestPath)
	if errors.Is(err, os.ErrExist) {
		result.Skipped++

		return nil
	}

	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Copied "+a.FileName, "bytes", written)

	result.Copied++

	return nil
}

// requireSource fails when the source of a is absent.
func requireSource(store fsstore.Store, a artifact.Artifact) error {
	exists, err := store.Exists(a.SourcePath)
	if err != nil {
		return err
	}

	if !exists {
		return &MissingSourceArtifactError{Path: a.SourcePath}
	}

	return nil
}

// checkSources returns every missing source combined into one error.
func checkSources(store fsstore.Store, plan []artifact.Artifact) error {
	var result error

	for _, a := range plan {
		err := requireSource(store, a)

		var missing *MissingSourceArtifactError
		if err != nil && !errors.As(err, &missing) {
			return err
		}

		result = multierr.Append(result, err)
	}

	return result
}

// dryRun logs the fate of every artifact and fails when a source is missing.
func dryRun(ctx context.Context, store fsstore.Store, plan []artifact.Artifact, result *Result) error {
	var missing error

	for _, a := range plan {
		err := requireSource(store, a)
		if err != nil {
			var missingErr *MissingSourceArtifactError
			if !errors.As(err, &missingErr) {
				return err
			}

			logger.WarnKV(ctx, "Source artifact is missing", "path", a.SourcePath)

			missing = multierr.Append(missing, err)

			continue
		}

		exists, err := store.Exists(a.DestPath)
		if err != nil {
			return err
		}

		if exists {
			result.Skipped++

			logger.InfoKV(ctx, "Would skip "+a.FileName)

			continue
		}

		result.Pending++

		logger.InfoKV(ctx, "Would copy "+a.FileName, "from", a.SourcePath)
	}

	return missing
}

package stager

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/stage-deps/internal/domain/artifact"
	"github.com/oshokin/stage-deps/internal/logger"
	"github.com/oshokin/stage-deps/internal/repository/fsstore"
)

const (
	testSourceRoot = "/src"
	testDestDir    = "/out"
	testPrefix     = "Prefix5"
)

// newFS builds a memory filesystem with an empty destination and the given source artifacts.
func newFS(t *testing.T, sources ...string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(testDestDir, 0o755))
	require.NoError(t, fs.MkdirAll(filepath.Join(testSourceRoot, artifact.SourceBinDir), 0o755))

	for _, name := range sources {
		path := filepath.Join(testSourceRoot, artifact.SourceBinDir, name)
		require.NoError(t, afero.WriteFile(fs, path, []byte("payload of "+name), fsstore.DefaultFileMode))
	}

	return fs
}

// newRequest returns a request for the given modules with primary and symbols extensions.
func newRequest(variant artifact.Variant, modules ...string) *Request {
	return &Request{
		DestDir:    testDestDir,
		Variant:    variant,
		ToolPrefix: testPrefix,
		SourceRoot: testSourceRoot,
		Modules:    artifact.Modules(modules...),
		Extensions: artifact.Extensions("primary", "symbols"),
	}
}

// observedContext returns a context whose logger records entries at info level and above.
func observedContext() (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)

	return logger.ToContext(context.Background(), zap.New(core).Sugar()), logs
}

func destFiles(t *testing.T, fs afero.Fs) []string {
	t.Helper()

	entries, err := afero.ReadDir(fs, testDestDir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names
}

func copiedLines(logs *observer.ObservedLogs) int {
	return logs.FilterMessageSnippet("Copied ").Len()
}

// TestStage_CopiesAllThenIsIdempotent stages four release artifacts and reruns without copies.
func TestStage_CopiesAllThenIsIdempotent(t *testing.T) {
	t.Parallel()

	fs := newFS(t, "Prefix5Core.primary", "Prefix5Core.symbols", "Prefix5Gui.primary", "Prefix5Gui.symbols")
	store := fsstore.New(fs)
	ctx, logs := observedContext()

	result, err := Stage(ctx, store, newRequest(artifact.ParseVariant("Release"), "Core", "Gui"))
	require.NoError(t, err)
	require.Equal(t, &Result{Artifacts: 4, Copied: 4}, result)
	require.Equal(t, 4, copiedLines(logs))
	require.Equal(t, 1, logs.FilterMessage("Staging runtime dependencies").Len())
	require.ElementsMatch(t, []string{
		"Prefix5Core.primary",
		"Prefix5Core.symbols",
		"Prefix5Gui.primary",
		"Prefix5Gui.symbols",
	}, destFiles(t, fs))

	got, err := afero.ReadFile(fs, "/out/Prefix5Gui.symbols")
	require.NoError(t, err)
	require.Equal(t, []byte("payload of Prefix5Gui.symbols"), got)

	ctx, logs = observedContext()

	result, err = Stage(ctx, store, newRequest(artifact.Release, "Core", "Gui"))
	require.NoError(t, err)
	require.Equal(t, &Result{Artifacts: 4, Skipped: 4}, result)
	require.Zero(t, copiedLines(logs))
}

// TestStage_FailsFastOnMissingSource stops at the first missing artifact and keeps earlier copies.
func TestStage_FailsFastOnMissingSource(t *testing.T) {
	t.Parallel()

	fs := newFS(t,
		"Prefix5Core.primary", "Prefix5Core.symbols",
		"Prefix5Gui.primary",
		"Prefix5Widgets.primary", "Prefix5Widgets.symbols",
	)

	result, err := Stage(context.Background(), fsstore.New(fs), newRequest(artifact.Release, "Core", "Gui", "Widgets"))
	require.ErrorIs(t, err, ErrMissingSourceArtifact)

	var missing *MissingSourceArtifactError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, filepath.Join(testSourceRoot, "bin", "Prefix5Gui.symbols"), missing.Path)
	require.Contains(t, err.Error(), missing.Path)

	require.Equal(t, 3, result.Copied)
	require.ElementsMatch(t, []string{
		"Prefix5Core.primary",
		"Prefix5Core.symbols",
		"Prefix5Gui.primary",
	}, destFiles(t, fs))
}

// TestStage_NeverOverwritesExisting leaves a pre-existing destination file untouched.
func TestStage_NeverOverwritesExisting(t *testing.T) {
	t.Parallel()

	fs := newFS(t, "Prefix5Cored.primary", "Prefix5Cored.symbols")
	require.NoError(t, afero.WriteFile(fs, "/out/Prefix5Cored.primary", []byte("stale"), fsstore.DefaultFileMode))

	ctx, logs := observedContext()

	result, err := Stage(ctx, fsstore.New(fs), newRequest(artifact.ParseVariant("DEBUG"), "Core"))
	require.NoError(t, err)
	require.Equal(t, 1, result.Copied)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, 1, copiedLines(logs))

	got, err := afero.ReadFile(fs, "/out/Prefix5Cored.primary")
	require.NoError(t, err)
	require.Equal(t, []byte("stale"), got)
}

// TestStage_VariantSelectsSuffix checks that only debug names are used for a debug run.
func TestStage_VariantSelectsSuffix(t *testing.T) {
	t.Parallel()

	fs := newFS(t,
		"Prefix5Gui.primary", "Prefix5Gui.symbols",
		"Prefix5Guid.primary", "Prefix5Guid.symbols",
	)

	for _, name := range []string{"debug", "Debug", "DEBUG"} {
		require.Equal(t, artifact.Debug, artifact.ParseVariant(name))
	}

	_, err := Stage(context.Background(), fsstore.New(fs), newRequest(artifact.ParseVariant("debug"), "Gui"))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Prefix5Guid.primary", "Prefix5Guid.symbols"}, destFiles(t, fs))

	_, err = Stage(context.Background(), fsstore.New(fs), newRequest(artifact.ParseVariant(""), "Gui"))
	require.NoError(t, err)
	require.Len(t, destFiles(t, fs), 4)
}

// TestStage_DestinationMustBeDirectory rejects a missing destination and a file destination.
func TestStage_DestinationMustBeDirectory(t *testing.T) {
	t.Parallel()

	fs := newFS(t, "Prefix5Core.primary", "Prefix5Core.symbols")
	require.NoError(t, afero.WriteFile(fs, "/file", nil, fsstore.DefaultFileMode))

	for _, dest := range []string{"/missing", "/file"} {
		req := newRequest(artifact.Release, "Core")
		req.DestDir = dest

		_, err := Stage(context.Background(), fsstore.New(fs), req)
		require.ErrorIs(t, err, ErrDestinationNotDirectory, dest)
	}

	_, err := Stage(context.Background(), fsstore.New(fs), nil)
	require.Error(t, err)
}

// TestStage_CollectMissing reports all missing sources and copies nothing.
func TestStage_CollectMissing(t *testing.T) {
	t.Parallel()

	fs := newFS(t, "Prefix5Core.primary", "Prefix5Gui.primary")

	req := newRequest(artifact.Release, "Core", "Gui")
	req.CollectMissing = true

	result, err := Stage(context.Background(), fsstore.New(fs), req)
	require.ErrorIs(t, err, ErrMissingSourceArtifact)
	require.Len(t, multierr.Errors(err), 2)
	require.Contains(t, err.Error(), "Prefix5Core.symbols")
	require.Contains(t, err.Error(), "Prefix5Gui.symbols")
	require.Zero(t, result.Copied)
	require.Empty(t, destFiles(t, fs))
}

// TestStage_DryRun reports pending copies without touching the destination.
func TestStage_DryRun(t *testing.T) {
	t.Parallel()

	fs := newFS(t, "Prefix5Core.primary", "Prefix5Core.symbols", "Prefix5Gui.primary", "Prefix5Gui.symbols")
	require.NoError(t, afero.WriteFile(fs, "/out/Prefix5Core.primary", nil, fsstore.DefaultFileMode))

	req := newRequest(artifact.Release, "Core", "Gui")
	req.DryRun = true

	result, err := Stage(context.Background(), fsstore.New(fs), req)
	require.NoError(t, err)
	require.Equal(t, &Result{Artifacts: 4, Skipped: 1, Pending: 3}, result)
	require.Equal(t, []string{"Prefix5Core.primary"}, destFiles(t, fs))

	require.NoError(t, fs.Remove("/src/bin/Prefix5Gui.symbols"))

	_, err = Stage(context.Background(), fsstore.New(fs), req)
	require.ErrorIs(t, err, ErrMissingSourceArtifact)
}

// TestStage_CanceledContext copies nothing once the context is done.
func TestStage_CanceledContext(t *testing.T) {
	t.Parallel()

	fs := newFS(t, "Prefix5Core.primary", "Prefix5Core.symbols")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Stage(ctx, fsstore.New(fs), newRequest(artifact.Release, "Core"))
	require.True(t, errors.Is(err, context.Canceled))
	require.Zero(t, result.Copied)
	require.Empty(t, destFiles(t, fs))
}

// Package version exposes build metadata of stage-deps.
//
// Version, Commit and BuildTime are injected with -ldflags "-X ..." and keep
// placeholder values for local builds.
package version

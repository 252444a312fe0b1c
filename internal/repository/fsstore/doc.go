// Package fsstore is the filesystem boundary of the stager: existence
// checks, directory checks and verbatim file copies on top of an afero.Fs,
// so tests can run against memory instead of disk.
package fsstore

// Package artifact holds the naming model of staged runtime dependencies.
//
// A Module (toolkit subsystem) combined with a Variant (Debug or Release) and
// an Extension (library or debug symbols) yields exactly one file name.
// Plan expands a module list into the ordered Artifact sequence the stager
// walks; nothing here touches the filesystem.
package artifact

// Package config defines the staging settings and helpers to load, validate
// and save them in YAML format.
//
// Config names the source root holding prebuilt artifacts, the product tool
// prefix, the toolset tag and the ordered module and extension lists. The
// source root may also come from the STAGE_DEPS_SOURCE_ROOT environment variable.
package config

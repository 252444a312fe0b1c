package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// SourceBinDir is the directory under the source root holding prebuilt artifacts.
const SourceBinDir = "bin"

var (
	// ErrEmptyModule is returned for a module without a base name.
	ErrEmptyModule = errors.New("module base name is empty")
	// ErrDuplicateModule is returned when a module is listed twice.
	ErrDuplicateModule = errors.New("module listed more than once")
	// ErrEmptyExtension is returned for an empty extension.
	ErrEmptyExtension = errors.New("extension is empty")
	// ErrDuplicateExtension is returned when an extension is listed twice.
	ErrDuplicateExtension = errors.New("extension listed more than once")
	// ErrPathInName is returned for a module or extension containing a path separator.
	ErrPathInName = errors.New("name contains a path separator")
	// ErrNameCollision is returned when two artifacts would share a file name.
	ErrNameCollision = errors.New("artifact file names collide")
)

// Module is a toolkit subsystem shipped as a shared library, e.g. "Core".
type Module struct {
	BaseName string
}

// Extension is an artifact file extension without the leading dot, e.g. "dll".
type Extension string

// Artifact is one concrete file to stage.
type Artifact struct {
	Module     Module
	Variant    Variant
	Extension  Extension
	FileName   string
	SourcePath string
	DestPath   string
}

// Layout is where artifacts come from and go to.
type Layout struct {
	// ToolPrefix is prepended to every module base name, e.g. "Qt5".
	ToolPrefix string
	// SourceRoot holds prebuilt artifacts under SourceBinDir.
	SourceRoot string
	// DestDir receives staged artifacts.
	DestDir string
}

// Modules turns base names into modules, keeping order.
func Modules(names ...string) []Module {
	modules := make([]Module, 0, len(names))
	for _, name := range names {
		modules = append(modules, Module{BaseName: name})
	}

	return modules
}

// Extensions turns extension strings into extensions, keeping order.
// A leading dot is dropped.
func Extensions(values ...string) []Extension {
	extensions := make([]Extension, 0, len(values))
	for _, value := range values {
		extensions = append(extensions, Extension(strings.TrimPrefix(value, ".")))
	}

	return extensions
}

// FileName derives the artifact file name: prefix + base name + variant suffix + "." + extension.
func FileName(toolPrefix string, module Module, variant Variant, extension Extension) string {
	return toolPrefix + module.BaseName + variant.Suffix() + "." + string(extension)
}

// Plan expands modules and extensions into artifacts ordered by module, then extension.
func Plan(layout Layout, variant Variant, modules []Module, extensions []Extension) []Artifact {
	var (
		sourceDir = filepath.Join(layout.SourceRoot, SourceBinDir)
		artifacts = make([]Artifact, 0, len(modules)*len(extensions))
	)

	for _, module := range modules {
		for _, extension := range extensions {
			name := FileName(layout.ToolPrefix, module, variant, extension)

			artifacts = append(artifacts, Artifact{
				Module:     module,
				Variant:    variant,
				Extension:  extension,
				FileName:   name,
				SourcePath: filepath.Join(sourceDir, name),
				DestPath:   filepath.Join(layout.DestDir, name),
			})
		}
	}

	return artifacts
}

// ValidateNames checks that every (module, variant, extension) triple maps to its own file name.
func ValidateNames(modules []Module, extensions []Extension) error {
	if err := validateModules(modules); err != nil {
		return err
	}

	if err := validateExtensions(extensions); err != nil {
		return err
	}

	// The tool prefix is shared by every name, so it cannot cause or prevent a collision.
	names := make(map[string]struct{}, 2*len(modules)*len(extensions))

	for _, variant := range []Variant{Release, Debug} {
		for _, module := range modules {
			for _, extension := range extensions {
				name := FileName("", module, variant, extension)
				if _, ok := names[name]; ok {
					return fmt.Errorf("%s: %w", name, ErrNameCollision)
				}

				names[name] = struct{}{}
			}
		}
	}

	return nil
}

func validateModules(modules []Module) error {
	seen := make(map[string]struct{}, len(modules))

	for _, module := range modules {
		if strings.TrimSpace(module.BaseName) == "" {
			return ErrEmptyModule
		}

		if hasSeparator(module.BaseName) {
			return fmt.Errorf("module %s: %w", module.BaseName, ErrPathInName)
		}

		if _, ok := seen[module.BaseName]; ok {
			return fmt.Errorf("%s: %w", module.BaseName, ErrDuplicateModule)
		}

		seen[module.BaseName] = struct{}{}
	}

	return nil
}

func validateExtensions(extensions []Extension) error {
	seen := make(map[Extension]struct{}, len(extensions))

	for _, extension := range extensions {
		if strings.TrimSpace(string(extension)) == "" {
			return ErrEmptyExtension
		}

		if hasSeparator(string(extension)) {
			return fmt.Errorf("extension %s: %w", extension, ErrPathInName)
		}

		if _, ok := seen[extension]; ok {
			return fmt.Errorf("%s: %w", extension, ErrDuplicateExtension)
		}

		seen[extension] = struct{}{}
	}

	return nil
}

func hasSeparator(name string) bool {
	return strings.ContainsAny(name, `/\`)
}

// Package paths provides path handling for ddkinit: the well-known file
// names inside a DDK workspace and the workspace-relativization rules used
// when generated files reference other directories.
package paths

import (
	"path/filepath"
	"strings"

	"github.com/ddkbuild/ddkinit/pkg/errors"
	"github.com/ddkbuild/ddkinit/pkg/logging"
)

// Well-known paths inside a DDK workspace and the Kleaf repo.
// IMPORTANT: These names are fixed by the build system and are NOT
// user-configurable; they must match what the Bazel launcher and the
// prebuilt extension expect to find.
const (
	// ToolsBazel is the workspace-relative path of the Bazel launcher
	ToolsBazel = "tools/bazel"

	// ModuleBazelFile is the module dependency manifest
	ModuleBazelFile = "MODULE.bazel"

	// DeviceBazelrcFile is the generated build configuration file
	DeviceBazelrcFile = "device.bazelrc"

	// DownloadConfigsFile describes the prebuilt artifacts of a build
	DownloadConfigsFile = "download_configs.json"

	// RegistryPath is the Bazel module registry inside the Kleaf repo
	RegistryPath = "external/bazelbuild-bazel-central-registry"

	// WorkspacePlaceholder is expanded by Bazel to the workspace root
	// when it appears in a bazelrc file
	WorkspacePlaceholder = "%workspace%"
)

// RelToWorkspace converts path to be relative to the workspace root.
// Paths outside the workspace stay absolute, with a logged warning,
// so generated files still point somewhere valid.
func RelToWorkspace(workspace, path string) string {
	logger := logging.GetLogger("paths")

	rel, err := filepath.Rel(workspace, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		logger.Warn().
			Str("path", path).
			Str("workspace", workspace).
			Msg("Path is not relative to DDK workspace, using absolute path")
		return path
	}
	return rel
}

// PrefixWorkspace prepends the bazelrc workspace placeholder to relative
// paths. Absolute paths are returned unchanged.
func PrefixWorkspace(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return WorkspacePlaceholder + "/" + filepath.ToSlash(path)
}

// AbsPath validates that a flag-supplied path is absolute. The workspace
// layout is written into generated files, so relative inputs would silently
// depend on the invocation directory.
func AbsPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if !filepath.IsAbs(path) {
		return "", errors.Newf(errors.ErrInvalidInput, "%s is not an absolute path", path)
	}
	return filepath.Clean(path), nil
}

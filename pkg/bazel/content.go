// Package bazel builds the text blocks that ddkinit maintains inside the
// workspace's MODULE.bazel and device.bazelrc generated sections.
package bazel

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ddkbuild/ddkinit/pkg/errors"
	"github.com/ddkbuild/ddkinit/pkg/paths"
	"github.com/ddkbuild/ddkinit/pkg/types"
)

const kleafDependencyTemplate = `"""Kleaf: Build Android kernels with Bazel."""
bazel_dep(name = "kleaf")
local_path_override(
    module_name = "kleaf",
    path = %s,
)
`

const prebuiltsTemplate = `kernel_prebuilt_ext = use_extension(
    "@kleaf//build/kernel/kleaf:kernel_prebuilt_ext.bzl",
    "kernel_prebuilt_ext",
)
kernel_prebuilt_ext.declare_kernel_prebuilts(
    name = "gki_prebuilts",
    download_configs = %s,
    local_artifact_path = %s,
)
use_repo(kernel_prebuilt_ext, "gki_prebuilts")
`

// KleafDependencyBlock renders the MODULE.bazel fragment declaring the
// kleaf dependency as a local path override.
func KleafDependencyBlock(workspace, kleafRepo string) string {
	rel := paths.RelToWorkspace(workspace, kleafRepo)
	return fmt.Sprintf(kleafDependencyTemplate, strconv.Quote(rel))
}

// PrebuiltsBlock renders the MODULE.bazel fragment wiring local GKI
// prebuilts into the kernel_prebuilt extension. The download configs are
// read from download_configs.json inside prebuiltsDir; a missing file is
// a configuration error since the block would be unusable without it.
func PrebuiltsBlock(filesystem types.FS, workspace, prebuiltsDir string) (string, error) {
	configs, err := readDownloadConfigs(filesystem, prebuiltsDir)
	if err != nil {
		return "", err
	}
	rel := paths.RelToWorkspace(workspace, prebuiltsDir)
	return fmt.Sprintf(prebuiltsTemplate, configs, strconv.Quote(rel)), nil
}

// ModuleBazelContent combines the fragments that apply to the given setup
// into the MODULE.bazel section body. The second return is false when
// neither a kleaf repo nor a prebuilts dir is configured and there is
// nothing to write.
func ModuleBazelContent(filesystem types.FS, workspace, kleafRepo, prebuiltsDir string) (string, bool, error) {
	var parts []string
	if kleafRepo != "" {
		parts = append(parts, KleafDependencyBlock(workspace, kleafRepo))
	}
	if prebuiltsDir != "" {
		block, err := PrebuiltsBlock(filesystem, workspace, prebuiltsDir)
		if err != nil {
			return "", false, err
		}
		parts = append(parts, block)
	}
	if len(parts) == 0 {
		return "", false, nil
	}
	return strings.Join(parts, "\n"), true, nil
}

// BazelrcContent renders the device.bazelrc section body. Relative repo
// paths are anchored with the bazelrc workspace placeholder so the file
// works regardless of the invocation directory.
func BazelrcContent(workspace, kleafRepo string) string {
	repo := paths.PrefixWorkspace(paths.RelToWorkspace(workspace, kleafRepo))
	return fmt.Sprintf("common --config=internet\ncommon --registry=file://%s/%s\n",
		repo, paths.RegistryPath)
}

// readDownloadConfigs loads download_configs.json from prebuiltsDir and
// re-serializes it compactly as a quoted Starlark string literal.
func readDownloadConfigs(filesystem types.FS, prebuiltsDir string) (string, error) {
	path := filepath.Join(prebuiltsDir, paths.DownloadConfigsFile)

	data, err := filesystem.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return "", errors.Wrapf(err, errors.ErrDownloadConfigsMissing,
				"missing %s in %s", paths.DownloadConfigsFile, prebuiltsDir).
				WithDetail("path", path)
		}
		return "", errors.Wrapf(err, errors.ErrFileRead, "failed to read %s", path).
			WithDetail("path", path)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return "", errors.Wrapf(err, errors.ErrConfigParse, "invalid JSON in %s", path).
			WithDetail("path", path)
	}

	return strconv.Quote(compact.String()), nil
}

// pkg/commands/setup/setup_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: afero MemMapFs, fake executor and fetcher
// PURPOSE: Test workspace setup orchestration

package setup_test

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/ddkbuild/ddkinit/pkg/commands/setup"
	"github.com/ddkbuild/ddkinit/pkg/errors"
	"github.com/ddkbuild/ddkinit/pkg/filesystem"
	"github.com/ddkbuild/ddkinit/pkg/markers"
	"github.com/ddkbuild/ddkinit/pkg/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	workspace    = "/work/ddk"
	kleafRepo    = "/work/ddk/external/kleaf"
	prebuiltsDir = "/work/ddk/prebuilts"
)

// fsExecutor applies bootstrap operations directly to a types.FS so the
// orchestration can be tested against an in-memory filesystem.
type fsExecutor struct {
	fs  types.FS
	ops []types.Operation
}

func (e *fsExecutor) Execute(ops []types.Operation) error {
	e.ops = append(e.ops, ops...)
	for _, op := range ops {
		var err error
		switch op.Type {
		case types.OperationCreateDir:
			err = e.fs.MkdirAll(op.Target, 0755)
		case types.OperationCreateSymlink:
			err = e.fs.Symlink(op.Source, op.Target)
		case types.OperationDeleteFile:
			err = e.fs.Remove(op.Target)
		case types.OperationWriteFile:
			err = e.fs.WriteFile(op.Target, []byte(op.Content), 0644)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// fakeFetcher records fetches and writes canned content.
type fakeFetcher struct {
	fs      types.FS
	content string
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, remoteFilename, outFile string) error {
	f.fetched = append(f.fetched, remoteFilename)
	return f.fs.WriteFile(outFile, []byte(f.content), 0644)
}

func newEnv() (types.FS, *fsExecutor) {
	memfs := filesystem.NewAferoFS(afero.NewMemMapFs())
	return memfs, &fsExecutor{fs: memfs}
}

func readFile(t *testing.T, filesys types.FS, path string) string {
	t.Helper()
	data, err := filesys.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSetupWithKleafRepo(t *testing.T) {
	memfs, executor := newEnv()

	result, err := setup.Setup(setup.Options{
		Workspace: workspace,
		KleafRepo: kleafRepo,
		Local:     true,
		FS:        memfs,
		Executor:  executor,
	})
	require.NoError(t, err)

	moduleBazel := readFile(t, memfs, filepath.Join(workspace, "MODULE.bazel"))
	assert.Contains(t, moduleBazel, markers.DefaultBegin)
	assert.Contains(t, moduleBazel, markers.DefaultEnd)
	assert.Contains(t, moduleBazel, `bazel_dep(name = "kleaf")`)
	assert.Contains(t, moduleBazel, `path = "external/kleaf",`)

	bazelrc := readFile(t, memfs, filepath.Join(workspace, "device.bazelrc"))
	assert.Contains(t, bazelrc, "common --config=internet")
	assert.Contains(t, bazelrc, "file://%workspace%/external/kleaf/external/bazelbuild-bazel-central-registry")

	// The launcher link points into the Kleaf repo
	link, err := memfs.Readlink(filepath.Join(workspace, "tools", "bazel"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(kleafRepo, "tools", "bazel"), link)

	assert.Contains(t, result.CreatedDirs, workspace)
	assert.Contains(t, result.CreatedDirs, kleafRepo)
	assert.Contains(t, result.UpdatedFiles, filepath.Join(workspace, "MODULE.bazel"))
	assert.Contains(t, result.UpdatedFiles, filepath.Join(workspace, "device.bazelrc"))
}

func TestSetupWithLocalPrebuilts(t *testing.T) {
	memfs, executor := newEnv()
	require.NoError(t, memfs.MkdirAll(prebuiltsDir, 0755))
	require.NoError(t, memfs.WriteFile(
		filepath.Join(prebuiltsDir, "download_configs.json"),
		[]byte(`{"vmlinux": {"mandatory": true}}`), 0644))

	result, err := setup.Setup(setup.Options{
		Workspace:    workspace,
		PrebuiltsDir: prebuiltsDir,
		FS:           memfs,
		Executor:     executor,
	})
	require.NoError(t, err)

	moduleBazel := readFile(t, memfs, filepath.Join(workspace, "MODULE.bazel"))
	assert.Contains(t, moduleBazel, "kernel_prebuilt_ext")
	assert.Contains(t, moduleBazel, `local_artifact_path = "prebuilts",`)
	assert.Contains(t, moduleBazel, `{\"vmlinux\":{\"mandatory\":true}}`)

	// No kleaf repo: no launcher link and no bazelrc
	_, err = memfs.ReadFile(filepath.Join(workspace, "device.bazelrc"))
	assert.Error(t, err)
	assert.Empty(t, result.Symlinks)
}

func TestSetupDownloadsMissingConfigs(t *testing.T) {
	memfs, executor := newEnv()
	fetcher := &fakeFetcher{fs: memfs, content: `{"boot.img": {}}`}

	result, err := setup.Setup(setup.Options{
		BuildID:      "6148204",
		Workspace:    workspace,
		PrebuiltsDir: prebuiltsDir,
		URLFormat:    "https://ci.example.com/{build_id}/{build_target}/{filename}",
		FS:           memfs,
		Executor:     executor,
		Downloader:   fetcher,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"download_configs.json"}, fetcher.fetched)
	assert.Contains(t, result.Downloads, "download_configs.json")

	moduleBazel := readFile(t, memfs, filepath.Join(workspace, "MODULE.bazel"))
	assert.Contains(t, moduleBazel, `{\"boot.img\":{}}`)
}

func TestSetupSkipsDownloadWhenConfigsPresent(t *testing.T) {
	memfs, executor := newEnv()
	require.NoError(t, memfs.WriteFile(
		filepath.Join(prebuiltsDir, "download_configs.json"), []byte(`{}`), 0644))
	fetcher := &fakeFetcher{fs: memfs}

	_, err := setup.Setup(setup.Options{
		BuildID:      "6148204",
		Workspace:    workspace,
		PrebuiltsDir: prebuiltsDir,
		URLFormat:    "https://ci.example.com/{build_id}/{filename}",
		FS:           memfs,
		Executor:     executor,
		Downloader:   fetcher,
	})
	require.NoError(t, err)

	assert.Empty(t, fetcher.fetched)
}

func TestSetupMissingConfigsIsFatal(t *testing.T) {
	// No build ID means the URL cannot be resolved; the download is
	// skipped, and the prebuilts block then fails on the missing file.
	memfs, executor := newEnv()
	require.NoError(t, memfs.MkdirAll(prebuiltsDir, 0755))

	_, err := setup.Setup(setup.Options{
		Workspace:    workspace,
		PrebuiltsDir: prebuiltsDir,
		URLFormat:    "https://ci.example.com/{build_id}/{filename}",
		FS:           memfs,
		Executor:     executor,
	})

	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrDownloadConfigsMissing))
}

func TestSetupIsIdempotent(t *testing.T) {
	memfs, executor := newEnv()

	opts := setup.Options{
		Workspace: workspace,
		KleafRepo: kleafRepo,
		Local:     true,
		FS:        memfs,
		Executor:  executor,
	}

	_, err := setup.Setup(opts)
	require.NoError(t, err)
	first := readFile(t, memfs, filepath.Join(workspace, "MODULE.bazel"))

	// The second run replaces the existing launcher link and section
	_, err = setup.Setup(opts)
	require.NoError(t, err)
	second := readFile(t, memfs, filepath.Join(workspace, "MODULE.bazel"))

	assert.Equal(t, first, second)
}

func TestSetupPreservesUserContent(t *testing.T) {
	memfs, executor := newEnv()
	userContent := "# my module\nmodule(name = \"mydriver\")\n"
	require.NoError(t, memfs.WriteFile(
		filepath.Join(workspace, "MODULE.bazel"), []byte(userContent), 0644))

	_, err := setup.Setup(setup.Options{
		Workspace: workspace,
		KleafRepo: kleafRepo,
		Local:     true,
		FS:        memfs,
		Executor:  executor,
	})
	require.NoError(t, err)

	moduleBazel := readFile(t, memfs, filepath.Join(workspace, "MODULE.bazel"))
	assert.True(t, len(moduleBazel) > len(userContent))
	assert.Contains(t, moduleBazel, "module(name = \"mydriver\")")
}

func TestSetupReplacesExistingLauncherLink(t *testing.T) {
	memfs, executor := newEnv()
	toolsBazel := filepath.Join(workspace, "tools", "bazel")
	require.NoError(t, memfs.MkdirAll(filepath.Dir(toolsBazel), 0755))
	require.NoError(t, memfs.Symlink("/old/kleaf/tools/bazel", toolsBazel))

	_, err := setup.Setup(setup.Options{
		Workspace: workspace,
		KleafRepo: kleafRepo,
		Local:     true,
		FS:        memfs,
		Executor:  executor,
	})
	require.NoError(t, err)

	link, err := memfs.Readlink(toolsBazel)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(kleafRepo, "tools", "bazel"), link)

	var deleted bool
	for _, op := range executor.ops {
		if op.Type == types.OperationDeleteFile && op.Target == toolsBazel {
			deleted = true
		}
	}
	assert.True(t, deleted, "existing link should be removed before relinking")
}

// failingExecutor rejects every operation batch.
type failingExecutor struct {
	err error
}

func (e *failingExecutor) Execute([]types.Operation) error {
	return e.err
}

func TestSetupDirBootstrapFailure(t *testing.T) {
	memfs, _ := newEnv()

	_, err := setup.Setup(setup.Options{
		Workspace: workspace,
		FS:        memfs,
		Executor:  &failingExecutor{err: stderrors.New("disk full")},
	})

	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrDirCreate))
}

func TestSetupSectionUpdateFailure(t *testing.T) {
	// A directory squatting on the MODULE.bazel path makes the section
	// rewrite fail; the error carries the section-update code.
	memfs, executor := newEnv()
	require.NoError(t, memfs.MkdirAll(filepath.Join(workspace, "MODULE.bazel"), 0755))

	_, err := setup.Setup(setup.Options{
		Workspace: workspace,
		KleafRepo: kleafRepo,
		Local:     true,
		FS:        memfs,
		Executor:  executor,
	})

	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSectionUpdate))
}

func TestSetupWithoutWorkspaceDoesNothing(t *testing.T) {
	memfs, executor := newEnv()

	result, err := setup.Setup(setup.Options{
		FS:       memfs,
		Executor: executor,
	})
	require.NoError(t, err)

	assert.Empty(t, executor.ops)
	assert.Empty(t, result.UpdatedFiles)
}

func TestSetupDryRun(t *testing.T) {
	memfs, executor := newEnv()

	result, err := setup.Setup(setup.Options{
		Workspace: workspace,
		KleafRepo: kleafRepo,
		Local:     true,
		DryRun:    true,
		FS:        memfs,
		Executor:  executor,
	})
	require.NoError(t, err)

	_, err = memfs.ReadFile(filepath.Join(workspace, "MODULE.bazel"))
	assert.Error(t, err, "dry run must not write files")
	assert.Empty(t, result.UpdatedFiles)
	assert.Equal(t, "dry-run", result.Skipped["MODULE.bazel"])
	assert.Equal(t, "dry-run", result.Skipped["device.bazelrc"])
}

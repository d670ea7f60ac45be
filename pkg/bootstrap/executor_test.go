// pkg/bootstrap/executor_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem (temp directories)
// PURPOSE: Test workspace bootstrap operation execution

package bootstrap_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ddkbuild/ddkinit/pkg/bootstrap"
	"github.com/ddkbuild/ddkinit/pkg/errors"
	"github.com/ddkbuild/ddkinit/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCreatesDirsAndSymlink(t *testing.T) {
	tmp := t.TempDir()
	workspace := filepath.Join(tmp, "ddk")
	linkTarget := filepath.Join(tmp, "kleaf", "tools", "bazel")

	require.NoError(t, os.MkdirAll(filepath.Dir(linkTarget), 0755))
	require.NoError(t, os.WriteFile(linkTarget, []byte("#!/bin/sh\n"), 0755))

	e := bootstrap.NewExecutor(false, zerolog.Nop())
	ops := []types.Operation{
		{
			Type:        types.OperationCreateDir,
			Target:      filepath.Join(workspace, "tools"),
			Description: "Create tools directory",
			Status:      types.StatusReady,
		},
		{
			Type:        types.OperationCreateSymlink,
			Source:      linkTarget,
			Target:      filepath.Join(workspace, "tools", "bazel"),
			Description: "Link Bazel launcher",
			Status:      types.StatusReady,
		},
	}

	require.NoError(t, e.Execute(ops))

	info, err := os.Stat(filepath.Join(workspace, "tools"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	linkInfo, err := os.Lstat(filepath.Join(workspace, "tools", "bazel"))
	require.NoError(t, err)
	assert.NotZero(t, linkInfo.Mode()&os.ModeSymlink)

	link, err := os.Readlink(filepath.Join(workspace, "tools", "bazel"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(link, filepath.Join("kleaf", "tools", "bazel")))
}

func TestExecuteWritesFile(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "ddk", ".ddkinit.toml")
	content := "# ddkinit configuration\n# build_target = 'kernel_aarch64'\n"
	mode := uint32(0644)

	e := bootstrap.NewExecutor(false, zerolog.Nop())
	ops := []types.Operation{
		{
			Type:        types.OperationCreateDir,
			Target:      filepath.Dir(target),
			Description: "Create workspace directory",
			Status:      types.StatusReady,
		},
		{
			Type:        types.OperationWriteFile,
			Target:      target,
			Content:     content,
			Mode:        &mode,
			Description: "Write default configuration",
			Status:      types.StatusReady,
		},
	}

	require.NoError(t, e.Execute(ops))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestExecuteSkipsNonReadyOperations(t *testing.T) {
	tmp := t.TempDir()

	e := bootstrap.NewExecutor(false, zerolog.Nop())
	ops := []types.Operation{
		{
			Type:        types.OperationCreateDir,
			Target:      filepath.Join(tmp, "skipped"),
			Description: "Skipped directory",
			Status:      types.StatusSkipped,
		},
	}

	require.NoError(t, e.Execute(ops))

	_, err := os.Stat(filepath.Join(tmp, "skipped"))
	assert.True(t, os.IsNotExist(err))
}

func TestExecuteDryRun(t *testing.T) {
	tmp := t.TempDir()

	e := bootstrap.NewExecutor(true, zerolog.Nop())
	ops := []types.Operation{
		{
			Type:        types.OperationCreateDir,
			Target:      filepath.Join(tmp, "would-create"),
			Description: "Create directory",
			Status:      types.StatusReady,
		},
	}

	require.NoError(t, e.Execute(ops))

	_, err := os.Stat(filepath.Join(tmp, "would-create"))
	assert.True(t, os.IsNotExist(err))
}

func TestExecuteRejectsInvalidOperation(t *testing.T) {
	e := bootstrap.NewExecutor(false, zerolog.Nop())
	ops := []types.Operation{
		{
			Type:        types.OperationType("bogus"),
			Target:      "/tmp/x",
			Description: "Bogus operation",
			Status:      types.StatusReady,
		},
	}

	err := e.Execute(ops)

	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrOpExecute))
}

func TestExecuteRejectsMissingTarget(t *testing.T) {
	e := bootstrap.NewExecutor(false, zerolog.Nop())
	ops := []types.Operation{
		{
			Type:        types.OperationCreateSymlink,
			Description: "Symlink with no paths",
			Status:      types.StatusReady,
		},
	}

	err := e.Execute(ops)

	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrOpExecute))
}

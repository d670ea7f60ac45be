// Package genconfig implements the ddkinit genconfig command: it renders
// the default configuration and optionally writes it into the workspace.
package genconfig

import (
	"path/filepath"

	"github.com/ddkbuild/ddkinit/pkg/bootstrap"
	"github.com/ddkbuild/ddkinit/pkg/config"
	"github.com/ddkbuild/ddkinit/pkg/errors"
	"github.com/ddkbuild/ddkinit/pkg/filesystem"
	"github.com/ddkbuild/ddkinit/pkg/logging"
	"github.com/ddkbuild/ddkinit/pkg/types"
)

// ConfigFileName is the file written in write mode.
const ConfigFileName = ".ddkinit.toml"

// OpExecutor executes bootstrap filesystem operations.
type OpExecutor interface {
	Execute(ops []types.Operation) error
}

// Options defines the inputs for the GenConfig command.
type Options struct {
	// Workspace is the DDK workspace root; required in write mode
	Workspace string

	// Write stores the config in the workspace instead of only
	// returning it
	Write bool

	// DryRun previews changes without executing them
	DryRun bool

	// FS overrides the filesystem (tests); defaults to the OS filesystem
	FS types.FS

	// Executor overrides the bootstrap executor (tests)
	Executor OpExecutor
}

// Result holds the rendered configuration and any file written.
type Result struct {
	Content string
	Written []string
}

// GenConfig renders the default configuration. In write mode it stores
// the content as .ddkinit.toml in the workspace root, skipping the write
// when a config file already exists there.
func GenConfig(opts Options) (*Result, error) {
	logger := logging.GetLogger("core.commands")

	content, err := config.GenerateConfigContent()
	if err != nil {
		return nil, err
	}
	result := &Result{Content: content}

	if !opts.Write {
		logger.Debug().Msg("Outputting config only")
		return result, nil
	}
	if opts.Workspace == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"writing a config file requires a workspace path")
	}

	filesys := opts.FS
	if filesys == nil {
		filesys = filesystem.NewOS()
	}

	target := filepath.Join(opts.Workspace, ConfigFileName)
	if _, err := filesys.Stat(target); err == nil {
		logger.Warn().Str("path", target).Msg("Config file already exists, skipping")
		return result, nil
	}

	executor := opts.Executor
	if executor == nil {
		executor = bootstrap.NewExecutor(opts.DryRun, logging.GetLogger("core.bootstrap"))
	}

	mode := config.Default().Permissions.File
	ops := []types.Operation{{
		Type:        types.OperationWriteFile,
		Target:      target,
		Content:     content,
		Mode:        &mode,
		Description: "Write default configuration " + target,
		Status:      types.StatusReady,
	}}
	if err := executor.Execute(ops); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", target)
	}

	if !opts.DryRun {
		result.Written = append(result.Written, target)
	}
	return result, nil
}

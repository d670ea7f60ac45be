// Package bootstrap executes the filesystem operations that prepare a DDK
// workspace: directory creation, the Bazel launcher symlink, and plain
// file writes. Operations are described as types.Operation values and run
// through a synthfs pipeline, which gives us validation and dry-run
// support for free.
package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/core"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	"github.com/arthur-debert/synthfs/pkg/synthfs/operations"
	"github.com/rs/zerolog"

	"github.com/ddkbuild/ddkinit/pkg/errors"
	"github.com/ddkbuild/ddkinit/pkg/types"
)

// Executor runs workspace bootstrap operations through synthfs
type Executor struct {
	logger     zerolog.Logger
	dryRun     bool
	filesystem synthfs.FileSystem
}

// NewExecutor creates a synthfs-backed executor. In dry-run mode the
// operations are logged instead of executed.
func NewExecutor(dryRun bool, logger zerolog.Logger) *Executor {
	return &Executor{
		logger:     logger,
		dryRun:     dryRun,
		filesystem: filesystem.NewOSFileSystem("/"),
	}
}

// Execute runs a list of operations in order
func (e *Executor) Execute(ops []types.Operation) error {
	if e.dryRun {
		e.logger.Info().Msg("Dry run mode - operations would be executed:")
		for _, op := range ops {
			if op.Status == types.StatusReady {
				e.logOperation(op)
			}
		}
		return nil
	}

	synthOps := make([]synthfs.Operation, 0, len(ops))
	for _, op := range ops {
		if op.Status != types.StatusReady {
			e.logger.Debug().
				Str("type", string(op.Type)).
				Str("target", op.Target).
				Str("status", string(op.Status)).
				Msg("Skipping operation with non-ready status")
			continue
		}

		synthOp, err := e.convertOperation(op)
		if err != nil {
			return errors.Wrapf(err, errors.ErrOpExecute,
				"failed to convert operation: %s", op.Description)
		}
		synthOps = append(synthOps, synthOp)
	}

	if len(synthOps) == 0 {
		e.logger.Debug().Msg("No operations to execute")
		return nil
	}

	pipeline := synthfs.NewMemPipeline()
	for _, op := range synthOps {
		if err := pipeline.Add(op); err != nil {
			return errors.Wrap(err, errors.ErrOpExecute,
				"failed to add operation to pipeline")
		}
	}

	ctx := context.Background()
	executor := synthfs.NewExecutor()

	e.logger.Debug().Int("operationCount", len(synthOps)).Msg("Executing operations")

	result := executor.Run(ctx, pipeline, e.filesystem)
	if result.GetError() != nil {
		return errors.Wrap(result.GetError(), errors.ErrOpExecute,
			"failed to execute operations")
	}

	return nil
}

// convertOperation converts a ddkinit operation to a synthfs operation
func (e *Executor) convertOperation(op types.Operation) (synthfs.Operation, error) {
	switch op.Type {
	case types.OperationCreateDir:
		return e.convertCreateDir(op)
	case types.OperationWriteFile:
		return e.convertWriteFile(op)
	case types.OperationCreateSymlink:
		return e.convertCreateSymlink(op)
	case types.OperationDeleteFile:
		return e.convertDeleteFile(op)
	default:
		return nil, errors.Newf(errors.ErrOpInvalid,
			"unsupported operation type: %s", op.Type)
	}
}

func (e *Executor) convertCreateDir(op types.Operation) (synthfs.Operation, error) {
	if op.Target == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"create directory operation requires target")
	}

	mode := os.FileMode(0755)
	if op.Mode != nil {
		mode = os.FileMode(*op.Mode)
	}

	relPath, err := filepath.Rel("/", op.Target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", op.Target)
	}

	opID := core.OperationID(fmt.Sprintf("create-dir-%s", op.Target))
	createOp := operations.NewCreateDirectoryOperation(opID, relPath)
	createOp.SetItem(&directoryItem{
		path: relPath,
		mode: mode,
	})

	return synthfs.NewOperationsPackageAdapter(createOp), nil
}

func (e *Executor) convertWriteFile(op types.Operation) (synthfs.Operation, error) {
	if op.Target == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"write file operation requires target")
	}

	mode := os.FileMode(0644)
	if op.Mode != nil {
		mode = os.FileMode(*op.Mode)
	}

	relPath, err := filepath.Rel("/", op.Target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", op.Target)
	}

	opID := core.OperationID(fmt.Sprintf("write-file-%s", op.Target))
	createOp := operations.NewCreateFileOperation(opID, relPath)
	createOp.SetItem(&fileItem{
		path:    relPath,
		content: []byte(op.Content),
		mode:    mode,
	})

	return synthfs.NewOperationsPackageAdapter(createOp), nil
}

func (e *Executor) convertCreateSymlink(op types.Operation) (synthfs.Operation, error) {
	if op.Source == "" || op.Target == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"symlink operation requires source and target")
	}

	relPath, err := filepath.Rel("/", op.Target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", op.Target)
	}

	relSource, err := filepath.Rel("/", op.Source)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert source path: %s", op.Source)
	}

	opID := core.OperationID(fmt.Sprintf("symlink-%s", op.Target))
	symlinkOp := operations.NewCreateSymlinkOperation(opID, relPath)
	symlinkOp.SetDescriptionDetail("target", relSource)
	symlinkOp.SetItem(&symlinkItem{
		path:   relPath,
		target: relSource,
	})

	return synthfs.NewOperationsPackageAdapter(symlinkOp), nil
}

func (e *Executor) convertDeleteFile(op types.Operation) (synthfs.Operation, error) {
	if op.Target == "" {
		return nil, errors.New(errors.ErrInvalidInput,
			"delete file operation requires target")
	}

	relPath, err := filepath.Rel("/", op.Target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", op.Target)
	}

	opID := core.OperationID(fmt.Sprintf("delete-%s", op.Target))
	deleteOp := operations.NewDeleteOperation(opID, relPath)

	return synthfs.NewOperationsPackageAdapter(deleteOp), nil
}

// logOperation logs what an operation would do in dry-run mode
func (e *Executor) logOperation(op types.Operation) {
	switch op.Type {
	case types.OperationCreateDir:
		e.logger.Info().
			Str("target", op.Target).
			Msg("Would create directory")
	case types.OperationCreateSymlink:
		e.logger.Info().
			Str("source", op.Source).
			Str("target", op.Target).
			Msg("Would create symlink")
	case types.OperationWriteFile:
		e.logger.Info().
			Str("target", op.Target).
			Int("contentLen", len(op.Content)).
			Msg("Would write file")
	case types.OperationDeleteFile:
		e.logger.Info().
			Str("target", op.Target).
			Msg("Would delete file")
	default:
		e.logger.Info().Msg("Would execute operation")
	}
}

// Item types for synthfs operations

// fileItem implements the interface needed for file operations
type fileItem struct {
	path    string
	content []byte
	mode    fs.FileMode
}

func (f *fileItem) Path() string       { return f.path }
func (f *fileItem) Type() string       { return "file" }
func (f *fileItem) Content() []byte    { return f.content }
func (f *fileItem) Mode() fs.FileMode  { return f.mode }
func (f *fileItem) IsDir() bool        { return false }
func (f *fileItem) ModTime() time.Time { return time.Now() }
func (f *fileItem) Size() int64        { return int64(len(f.content)) }

// directoryItem implements the interface needed for directory operations
type directoryItem struct {
	path string
	mode fs.FileMode
}

func (d *directoryItem) Path() string       { return d.path }
func (d *directoryItem) Type() string       { return "directory" }
func (d *directoryItem) Mode() fs.FileMode  { return d.mode }
func (d *directoryItem) IsDir() bool        { return true }
func (d *directoryItem) ModTime() time.Time { return time.Now() }
func (d *directoryItem) Size() int64        { return 0 }

// symlinkItem implements the interface needed for symlink operations
type symlinkItem struct {
	path   string
	target string
}

func (s *symlinkItem) Path() string   { return s.path }
func (s *symlinkItem) Type() string   { return "symlink" }
func (s *symlinkItem) Target() string { return s.target }

// Package setup implements the ddkinit setup command: it configures a
// project directory to build DDK modules against a Kleaf repo and/or
// local GKI prebuilts.
package setup

import (
	"context"
	stderrors "errors"
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ddkbuild/ddkinit/pkg/bazel"
	"github.com/ddkbuild/ddkinit/pkg/bootstrap"
	"github.com/ddkbuild/ddkinit/pkg/config"
	"github.com/ddkbuild/ddkinit/pkg/download"
	"github.com/ddkbuild/ddkinit/pkg/errors"
	"github.com/ddkbuild/ddkinit/pkg/filesystem"
	"github.com/ddkbuild/ddkinit/pkg/logging"
	"github.com/ddkbuild/ddkinit/pkg/markers"
	"github.com/ddkbuild/ddkinit/pkg/paths"
	"github.com/ddkbuild/ddkinit/pkg/types"
)

// OpExecutor executes bootstrap filesystem operations.
type OpExecutor interface {
	Execute(ops []types.Operation) error
}

// Fetcher downloads a remote build artifact to a local file.
type Fetcher interface {
	Fetch(ctx context.Context, remoteFilename, outFile string) error
}

// Options defines the inputs for the Setup command. All paths are
// absolute; empty paths disable the steps that need them, mirroring the
// permissive behavior of partial invocations.
type Options struct {
	// BuildID identifies the CI build to download prebuilts from
	BuildID string

	// BuildTarget is the CI build target, e.g. "kernel_aarch64"
	BuildTarget string

	// Workspace is the DDK workspace root
	Workspace string

	// Local indicates a local Kleaf source tree is used; downloads are skipped
	Local bool

	// KleafRepo is the path to the Kleaf repo dir
	KleafRepo string

	// PrebuiltsDir is the path to local GKI prebuilts
	PrebuiltsDir string

	// URLFormat is the CI endpoint format string
	URLFormat string

	// DryRun previews changes without executing them
	DryRun bool

	// FS overrides the filesystem (tests); defaults to the OS filesystem
	FS types.FS

	// Executor overrides the bootstrap executor (tests)
	Executor OpExecutor

	// Downloader overrides the artifact fetcher (tests)
	Downloader Fetcher
}

// Setup configures the project layout to build DDK modules.
func Setup(opts Options) (*types.SetupResult, error) {
	log := logging.GetLogger("core.commands")
	log.Debug().
		Str("command", "Setup").
		Str("workspace", opts.Workspace).
		Msg("Executing command")

	filesys := opts.FS
	if filesys == nil {
		filesys = filesystem.NewOS()
	}

	cfg, err := config.Load(filesys, opts.Workspace)
	if err != nil {
		return nil, err
	}
	applyConfig(&opts, cfg)

	executor := opts.Executor
	if executor == nil {
		executor = bootstrap.NewExecutor(opts.DryRun, logging.GetLogger("core.bootstrap"))
	}
	fetcher := opts.Downloader
	if fetcher == nil {
		fetcher = download.NewFetcher(download.Options{
			BuildID:       opts.BuildID,
			BuildTarget:   opts.BuildTarget,
			URLFormat:     opts.URLFormat,
			HelperCommand: cfg.DownloadHelper,
		}, logging.GetLogger("core.download"))
	}

	s := &setter{
		opts:     opts,
		cfg:      cfg,
		fs:       filesys,
		executor: executor,
		fetcher:  fetcher,
		updater:  markers.NewUpdater(filesys, logging.GetLogger("core.markers")),
		result:   types.NewSetupResult(),
		logger:   log,
	}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.result, nil
}

// applyConfig fills unset options from the workspace configuration.
func applyConfig(opts *Options, cfg config.Config) {
	if opts.BuildTarget == "" {
		opts.BuildTarget = cfg.BuildTarget
	}
	if opts.URLFormat == "" {
		opts.URLFormat = cfg.URLFormat
	}
}

// setter carries the state of one setup run.
type setter struct {
	opts     Options
	cfg      config.Config
	fs       types.FS
	executor OpExecutor
	fetcher  Fetcher
	updater  *markers.Updater
	result   *types.SetupResult
	logger   zerolog.Logger
}

func (s *setter) run() error {
	if err := s.bootstrapDirs(); err != nil {
		return err
	}
	if err := s.fetchDownloadConfigs(); err != nil {
		return err
	}
	if err := s.symlinkToolsBazel(); err != nil {
		return err
	}
	if err := s.generateModuleBazel(); err != nil {
		return err
	}
	return s.generateBazelrc()
}

// bootstrapDirs creates the workspace, Kleaf repo, and prebuilts
// directories when their paths were given.
func (s *setter) bootstrapDirs() error {
	var ops []types.Operation
	for _, dir := range []string{s.opts.Workspace, s.opts.KleafRepo, s.opts.PrebuiltsDir} {
		if dir == "" {
			continue
		}
		mode := s.cfg.Permissions.Dir
		ops = append(ops, types.Operation{
			Type:        types.OperationCreateDir,
			Target:      dir,
			Mode:        &mode,
			Description: "Create directory " + dir,
			Status:      types.StatusReady,
		})
		s.result.CreatedDirs = append(s.result.CreatedDirs, dir)
	}
	if len(ops) == 0 {
		return nil
	}
	if err := s.executor.Execute(ops); err != nil {
		return errors.Wrap(err, errors.ErrDirCreate, "failed to create workspace directories")
	}
	return nil
}

// fetchDownloadConfigs fetches download_configs.json into the prebuilts
// dir when a build ID was given and the file is not already present.
// A URL that cannot be formed is logged and skipped; a failed transfer
// is fatal.
func (s *setter) fetchDownloadConfigs() error {
	if s.opts.Workspace == "" || s.opts.PrebuiltsDir == "" || s.opts.BuildID == "" {
		return nil
	}
	if s.opts.Local {
		s.logger.Debug().Msg("Local mode, skipping prebuilt downloads")
		return nil
	}

	out := filepath.Join(s.opts.PrebuiltsDir, paths.DownloadConfigsFile)
	if _, err := s.fs.Stat(out); err == nil {
		s.logger.Debug().Str("path", out).Msg("Download configs already present")
		return nil
	}

	if s.opts.DryRun {
		s.result.Skipped[paths.DownloadConfigsFile] = "dry-run"
		return nil
	}

	err := s.fetcher.Fetch(context.Background(), paths.DownloadConfigsFile, out)
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrURLUnresolved) {
			s.logger.Error().Err(err).
				Str("file", paths.DownloadConfigsFile).
				Msg("Unable to download file")
			s.result.Skipped[paths.DownloadConfigsFile] = "URL could not be resolved"
			return nil
		}
		return err
	}

	s.result.Downloads[paths.DownloadConfigsFile] = out
	return nil
}

// symlinkToolsBazel points the workspace's tools/bazel at the Kleaf
// repo's launcher, replacing any previous link.
func (s *setter) symlinkToolsBazel() error {
	if s.opts.Workspace == "" || s.opts.KleafRepo == "" {
		return nil
	}

	toolsBazel := filepath.Join(s.opts.Workspace, paths.ToolsBazel)
	kleafToolsBazel := filepath.Join(s.opts.KleafRepo, paths.ToolsBazel)

	dirMode := s.cfg.Permissions.Dir
	ops := []types.Operation{{
		Type:        types.OperationCreateDir,
		Target:      filepath.Dir(toolsBazel),
		Mode:        &dirMode,
		Description: "Create tools directory",
		Status:      types.StatusReady,
	}}

	if _, err := s.fs.Lstat(toolsBazel); err == nil {
		ops = append(ops, types.Operation{
			Type:        types.OperationDeleteFile,
			Target:      toolsBazel,
			Description: "Remove existing Bazel launcher link",
			Status:      types.StatusReady,
		})
	} else if !stderrors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to inspect %s", toolsBazel)
	}

	ops = append(ops, types.Operation{
		Type:        types.OperationCreateSymlink,
		Source:      kleafToolsBazel,
		Target:      toolsBazel,
		Description: "Link Bazel launcher from Kleaf repo",
		Status:      types.StatusReady,
	})

	if err := s.executor.Execute(ops); err != nil {
		return errors.Wrap(err, errors.ErrSymlinkCreate, "failed to link Bazel launcher")
	}

	s.result.Symlinks[toolsBazel] = kleafToolsBazel
	return nil
}

// generateModuleBazel writes the generated section of MODULE.bazel with
// the dependency blocks that apply to this setup.
func (s *setter) generateModuleBazel() error {
	if s.opts.Workspace == "" {
		return nil
	}

	moduleBazel := filepath.Join(s.opts.Workspace, paths.ModuleBazelFile)
	content, ok, err := bazel.ModuleBazelContent(s.fs, s.opts.Workspace, s.opts.KleafRepo, s.opts.PrebuiltsDir)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Info().Str("path", moduleBazel).Msg("Nothing to update")
		s.result.Skipped[paths.ModuleBazelFile] = "nothing to update"
		return nil
	}

	return s.updateFile(moduleBazel, content)
}

// generateBazelrc writes the generated section of device.bazelrc.
func (s *setter) generateBazelrc() error {
	if s.opts.Workspace == "" || s.opts.KleafRepo == "" {
		return nil
	}

	bazelrc := filepath.Join(s.opts.Workspace, paths.DeviceBazelrcFile)
	return s.updateFile(bazelrc, bazel.BazelrcContent(s.opts.Workspace, s.opts.KleafRepo))
}

// updateFile routes a generated-section write through the updater,
// honoring dry-run mode.
func (s *setter) updateFile(path, content string) error {
	if s.opts.DryRun {
		s.logger.Info().Str("path", path).Msg("Would update generated section")
		s.result.Skipped[filepath.Base(path)] = "dry-run"
		return nil
	}
	if err := s.updater.Update(path, content); err != nil {
		return errors.Wrapf(err, errors.ErrSectionUpdate,
			"failed to update generated section of %s", path)
	}
	s.result.UpdatedFiles = append(s.result.UpdatedFiles, path)
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ddkbuild/ddkinit/pkg/commands/setup"
	"github.com/ddkbuild/ddkinit/pkg/paths"
	"github.com/ddkbuild/ddkinit/pkg/types"
)

func newSetupCmd(dryRun *bool) *cobra.Command {
	var (
		buildID      string
		buildTarget  string
		workspace    string
		local        bool
		kleafRepo    string
		prebuiltsDir string
		urlFmt       string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Configure the DDK workspace layout",
		Long: `Configure the project layout to build DDK modules.

Directories are created as needed, tools/bazel is linked from the Kleaf
repo, and the generated sections of MODULE.bazel and device.bazelrc are
written. All paths must be absolute.`,
		Example: `  ddkinit setup --ddk_workspace /work/ddk --kleaf_repo /work/ddk/external/kleaf --local
  ddkinit setup --ddk_workspace /work/ddk --prebuilts_dir /work/ddk/prebuilts \
      --build_id 6148204 --url_fmt 'https://ci.example.com/{build_id}/{build_target}/{filename}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := setup.Options{
				BuildID:     buildID,
				BuildTarget: buildTarget,
				Local:       local,
				URLFormat:   urlFmt,
				DryRun:      *dryRun,
			}

			var err error
			if opts.Workspace, err = paths.AbsPath(workspace); err != nil {
				return err
			}
			if opts.KleafRepo, err = paths.AbsPath(kleafRepo); err != nil {
				return err
			}
			if opts.PrebuiltsDir, err = paths.AbsPath(prebuiltsDir); err != nil {
				return err
			}

			result, err := setup.Setup(opts)
			if err != nil {
				return err
			}

			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&buildID, "build_id", "",
		"the build id to download the build for, e.g. 6148204")
	cmd.Flags().StringVar(&buildTarget, "build_target", "",
		`the build target to download, e.g. "kernel_aarch64"`)
	cmd.Flags().StringVar(&workspace, "ddk_workspace", "",
		"absolute path to DDK workspace root")
	cmd.Flags().BoolVar(&local, "local", false,
		"whether to use a local source tree containing Kleaf")
	cmd.Flags().StringVar(&kleafRepo, "kleaf_repo", "",
		"absolute path to Kleaf's repo dir")
	cmd.Flags().StringVar(&prebuiltsDir, "prebuilts_dir", "",
		"absolute path to local GKI prebuilts, usually within the workspace")
	cmd.Flags().StringVar(&urlFmt, "url_fmt", "",
		"URL format endpoint for CI downloads")

	return cmd
}

func printResult(cmd *cobra.Command, result *types.SetupResult) {
	for _, line := range result.Summary() {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ddkbuild/ddkinit/pkg/commands/genconfig"
	"github.com/ddkbuild/ddkinit/pkg/paths"
)

func newGenConfigCmd(dryRun *bool) *cobra.Command {
	var (
		workspace string
		write     bool
	)

	cmd := &cobra.Command{
		Use:   "genconfig",
		Short: "Print or write a commented default configuration file",
		Long: `Print the default ddkinit configuration as TOML with all values
commented out. With --write the config is stored in the workspace root
as .ddkinit.toml instead (existing config files are left alone):

  ddkinit genconfig > /work/ddk/.ddkinit.toml
  ddkinit genconfig --write --ddk_workspace /work/ddk`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := genconfig.Options{
				Write:  write,
				DryRun: *dryRun,
			}

			var err error
			if opts.Workspace, err = paths.AbsPath(workspace); err != nil {
				return err
			}

			result, err := genconfig.GenConfig(opts)
			if err != nil {
				return err
			}

			if !write {
				fmt.Fprint(cmd.OutOrStdout(), result.Content)
				return nil
			}
			for _, path := range result.Written {
				fmt.Fprintln(cmd.OutOrStdout(), "wrote "+path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workspace, "ddk_workspace", "",
		"absolute path to DDK workspace root")
	cmd.Flags().BoolVar(&write, "write", false,
		"write the config into the workspace instead of printing it")

	return cmd
}

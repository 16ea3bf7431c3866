package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"echodl/internal/driver"
	"echodl/internal/platform"
)

func newDriverCommand(ctx *commandContext) *cobra.Command {
	driverCmd := &cobra.Command{
		Use:   "driver",
		Short: "Manage the browser driver binary",
	}
	driverCmd.AddCommand(newDriverInstallCommand(ctx))
	driverCmd.AddCommand(newDriverStatusCommand(ctx))
	return driverCmd
}

func newDriverInstallCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Download and unpack the driver into the bin directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			bootstrap, err := driver.NewBootstrap(cfg, logger)
			if err != nil {
				return err
			}
			bootstrap.Provisioner.Progress = cmd.ErrOrStderr()
			installed, err := bootstrap.Install(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Driver installed at %s (executable: %s)\n", installed.Path, yesNo(installed.Executable))
			return nil
		},
	}
}

func newDriverStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which driver binary a download would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			bootstrap, err := driver.NewBootstrap(cfg, logger)
			if err != nil {
				return err
			}
			status := bootstrap.Status(cmd.Context())
			artifact := bootstrap.Artifact

			path := status.Path()
			if path == "" {
				path = "-"
			}
			rows := [][]string{
				{"Platform", string(artifact.Suffix)},
				{"Decision", status.Decision.String()},
				{"Binary", path},
				{"Version", valueOrDash(status.Version)},
				{"Detail", valueOrDash(status.Detail)},
				{"Local path", artifact.LocalBinaryPath(cfg.Paths.BinDir)},
				{"Archive URL", platform.DownloadURL(cfg.Driver.DownloadRoot, cfg.Driver.Version, artifact)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableSpec{
				headers: []string{"Field", "Value"},
				rows:    rows,
			}))
			return nil
		},
	}
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

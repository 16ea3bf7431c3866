package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"echodl/internal/config"
	"echodl/internal/driver"
	"echodl/internal/fetch"
	"echodl/internal/history"
	"echodl/internal/lectures"
	"echodl/internal/logging"
	"echodl/internal/orchestrator"
	"echodl/internal/portal"
	"echodl/internal/preflight"
	"echodl/internal/progress"
	"echodl/internal/services"
)

type downloadOptions struct {
	course         string
	output         string
	afterDate      string
	beforeDate     string
	username       string
	password       string
	downloadDriver bool
	browserCookies bool
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var opts downloadOptions

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download every lecture of a course within a date range",
		Long: `Download resolves the browser driver (provisioning it into the bin
directory when no usable copy exists), signs in to the portal, and downloads
each lecture whose date falls inside the inclusive --after-date/--before-date
window. A failed lecture is reported and the batch continues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.course, "course", "u", "", "Course section identifier (UUID)")
	flags.StringVarP(&opts.output, "output", "o", "", "Directory that receives the recordings")
	flags.StringVarP(&opts.afterDate, "after-date", "a", "", "Only lectures on or after this date (YYYY-MM-DD)")
	flags.StringVarP(&opts.beforeDate, "before-date", "b", "", "Only lectures on or before this date (YYYY-MM-DD)")
	flags.StringVarP(&opts.username, "username", "k", "", "Portal username (overrides config and ECHODL_USERNAME)")
	flags.StringVarP(&opts.password, "password", "p", "", "Portal password (prompted when omitted on a terminal)")
	flags.BoolVar(&opts.downloadDriver, "download-driver", false, "Provision the driver binary and exit")
	flags.BoolVar(&opts.browserCookies, "browser-cookies", false, "Reuse the portal session of a local browser instead of logging in")
	return cmd
}

func runDownload(cmd *cobra.Command, ctx *commandContext, opts downloadOptions) error {
	// Dates are checked before anything touches the network or the disk.
	dateRange, err := lectures.ParseRange(opts.afterDate, opts.beforeDate)
	if err != nil {
		return err
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}
	out := cmd.OutOrStdout()

	bootstrap, err := driver.NewBootstrap(cfg, logger)
	if err != nil {
		return err
	}
	bootstrap.Provisioner.Progress = cmd.ErrOrStderr()

	if opts.downloadDriver {
		installed, err := bootstrap.Install(runCtx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Driver installed at %s (executable: %s)\n", installed.Path, yesNo(installed.Executable))
		return nil
	}

	if strings.TrimSpace(opts.course) == "" {
		return services.Wrap(services.ErrConfiguration, "cli", "download", "--course is required", nil)
	}

	outputDir, err := resolveOutputDir(cfg, opts.output, logger)
	if err != nil {
		return err
	}

	var creds portal.Credentials
	useBrowser := opts.browserCookies || cfg.Portal.BrowserCookies
	if !useBrowser {
		creds, err = resolveCredentials(cfg, opts, cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	client, err := portal.New(cfg, logger)
	if err != nil {
		return err
	}
	fetcher := fetch.New(client.HTTPClient(), cfg, logger)
	fetcher.Progress = cmd.ErrOrStderr()

	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	deps := orchestrator.Dependencies{
		Resolver:     bootstrap,
		Session:      client,
		Catalog:      client,
		Fetcher:      fetcher,
		History:      store,
		SkipExisting: cfg.Download.SkipExisting,
	}
	if cfg.Driver.Launch {
		deps.Launcher = launcherFor(cfg, logger)
	}
	orch, err := orchestrator.New(deps, logger)
	if err != nil {
		return err
	}

	report, err := orch.DownloadAll(runCtx, orchestrator.Request{
		Course:         opts.course,
		OutputDir:      outputDir,
		Range:          dateRange,
		Credentials:    creds,
		BrowserCookies: useBrowser,
	})
	if len(report.Outcomes) > 0 || err == nil {
		fmt.Fprintln(out, renderReport(report))
	}
	return err
}

func launcherFor(cfg *config.Config, logger *slog.Logger) orchestrator.DriverLauncher {
	launcher := driver.NewLauncher(cfg.DriverStartupTimeout(), logger)
	return func(ctx context.Context, binary string) (orchestrator.DriverService, error) {
		svc, err := launcher.Start(ctx, binary)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
}

func resolveOutputDir(cfg *config.Config, requested string, logger *slog.Logger) (string, error) {
	fallback := cfg.Paths.OutputDir
	dir, warning := preflight.ResolveOutputDir(requested, fallback)
	if warning != "" {
		logging.WarnWithContext(logger, "output directory unavailable", "output_fallback",
			"create the directory or pass an existing one with --output",
			logging.String("detail", warning),
		)
	}
	if dir == fallback {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", services.Wrap(services.ErrFilesystem, "cli", "create output dir", dir, err)
		}
	}
	if check := preflight.CheckDirectoryAccess("Output directory", dir); !check.Passed {
		return "", services.Wrap(services.ErrFilesystem, "cli", "check output dir", check.Detail, nil)
	}
	return dir, nil
}

func resolveCredentials(cfg *config.Config, opts downloadOptions, in io.Reader, prompt io.Writer) (portal.Credentials, error) {
	creds := portal.Credentials{
		Username: strings.TrimSpace(cfg.Portal.Username),
		Password: cfg.Portal.Password,
	}
	if v := strings.TrimSpace(opts.username); v != "" {
		creds.Username = v
	}
	if opts.password != "" {
		creds.Password = opts.password
	}
	if creds.Username == "" {
		return creds, services.Wrap(services.ErrAuthentication, "cli", "credentials",
			"no username; pass --username, set ECHODL_USERNAME, or use --browser-cookies", nil)
	}
	if creds.Password != "" {
		return creds, nil
	}
	file, ok := in.(*os.File)
	if !ok || !isatty.IsTerminal(file.Fd()) {
		return creds, services.Wrap(services.ErrAuthentication, "cli", "credentials",
			"no password; pass --password or set ECHODL_PASSWORD", nil)
	}
	fmt.Fprintf(prompt, "Password for %s: ", creds.Username)
	secret, err := term.ReadPassword(int(file.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return creds, services.Wrap(services.ErrAuthentication, "cli", "read password", "", err)
	}
	creds.Password = string(secret)
	return creds, nil
}

func renderReport(report orchestrator.Report) string {
	rows := make([][]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		result := string(o.Status)
		detail := o.Path
		if o.Skipped {
			result = "skipped"
		}
		if o.Status == orchestrator.StatusFailure {
			detail = o.Reason
			if kind := services.Kind(o.Err); kind != "" && kind != "unknown" {
				result += " (" + kind + ")"
			}
		}
		size := ""
		if o.Bytes > 0 {
			size = progress.Bytes(o.Bytes)
		}
		rows = append(rows, []string{o.Lecture.Day(), o.Lecture.Title, result, size, detail})
	}
	footer := fmt.Sprintf("%d selected of %d, %d downloaded, %d skipped, %d failed",
		len(report.Outcomes), report.CatalogSize,
		report.Succeeded()-report.Skipped(), report.Skipped(), report.Failed())
	return renderTable(tableSpec{
		title:   "Course " + report.Course,
		headers: []string{"Date", "Title", "Result", "Size", "Detail"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		caption: footer,
	})
}

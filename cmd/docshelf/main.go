package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"docshelf/assets"
	"docshelf/internal/bootstrap"
	"docshelf/internal/platform/config"
	"docshelf/internal/platform/logging"
	"docshelf/internal/platform/raster"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	dataDir    string
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "docshelf",
		Short:         "Browse the bundled document shelf in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", defaultDataDir(), "directory for extracted documents, manifest and logs")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file (default <data-dir>/docshelf.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace|debug|info|warn|error")

	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newLoadCmd(flags))
	root.AddCommand(newCatalogCmd(flags))
	root.AddCommand(newCacheCmd(flags))
	root.AddCommand(newRenderCmd(flags))
	return root
}

func defaultDataDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "docshelf")
	}
	return filepath.Join(dir, "docshelf")
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	path := flags.configPath
	if path == "" {
		path = filepath.Join(flags.dataDir, "docshelf.yaml")
	}
	cfg, err := config.Load(path, flags.dataDir, assets.Catalog)
	if err != nil {
		return config.Config{}, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, nil
}

// loadApp wires the application with a logger on stderr.
func loadApp(flags *globalFlags) (*bootstrap.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Output: os.Stderr})
	return bootstrap.New(cfg, logger)
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the docshelf terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(flags)
		},
	}
}

// runTUI logs to a file since the UI owns the terminal.
func runTUI(flags *globalFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logFile, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Output: logFile})

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		return err
	}
	runErr := bootstrap.RunTUI(app)
	if err := app.Close(); err != nil {
		logger.Warn("shutdown", "error", err)
	}
	return runErr
}

func newLoadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Extract and decode every catalog entry and report the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			report, err := app.ShelfCLI.Load(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, res := range report.Results {
				if res.Error != "" {
					_, _ = fmt.Fprintf(out, "failed  %-36s %s: %s\n", res.Entry, res.Stage, res.Error)
					continue
				}
				title := res.Title
				if !res.HasTitle {
					title = "(untitled)"
				}
				_, _ = fmt.Fprintf(out, "ok      %-36s %d pages  %s\n", res.Entry, res.PageCount, title)
			}
			_, _ = fmt.Fprintf(out, "%d of %d loaded in %s (run %s)\n",
				report.Succeeded, len(report.Results),
				report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond), report.RunID)
			if report.Succeeded == 0 && report.Failed > 0 {
				return errors.New("every catalog entry failed to load")
			}
			return nil
		},
	}
}

func newCatalogCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the configured catalog in load order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			for i, name := range app.ShelfCLI.Catalog(context.Background()) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", i+1, name)
			}
			return nil
		},
	}
}

func newCacheCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "List extracted documents recorded in the manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			entries, err := app.ExtractCLI.Manifest(context.Background())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "nothing extracted yet")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ENTRY\tBYTES\tEXTRACTED\tRUN\tPATH")
			for _, e := range entries {
				_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
					e.Entry, e.Bytes, e.ExtractedAt.Local().Format(time.DateTime), e.RunID, e.Path)
			}
			return w.Flush()
		},
	}
}

func newRenderCmd(flags *globalFlags) *cobra.Command {
	var page, width, height int
	var asRaster bool

	render := &cobra.Command{
		Use:   "render <name>",
		Short: "Extract one catalog entry and print a page as text or shaded raster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be >= 1")
			}
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := context.Background()
			extracted, err := app.ExtractCLI.Extract(ctx, args[0])
			if err != nil {
				return err
			}
			if !asRaster {
				out, err := app.DocumentCLI.Render(ctx, extracted.Path, page-1, width, height)
				if err != nil {
					return err
				}
				return printText(cmd.OutOrStdout(), out.Info.Title, out.Info.HasTitle, page, out.Info.PageCount, out.Text)
			}

			info, err := app.DocumentCLI.Inspect(ctx, extracted.Path, page-1)
			if err != nil {
				return err
			}
			cols, rows := raster.Fit(info.PageWidth, info.PageHeight, width, height)
			out, err := app.DocumentCLI.Render(ctx, extracted.Path, page-1, cols*4, rows*8)
			if err != nil {
				return err
			}
			for _, line := range raster.Shade(out.Image, cols, rows) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	render.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	render.Flags().IntVar(&width, "width", 80, "raster width in columns (render width in pixels without --raster)")
	render.Flags().IntVar(&height, "height", 50, "raster height in rows (render height in pixels without --raster)")
	render.Flags().BoolVar(&asRaster, "raster", false, "print shaded raster art instead of page text")
	return render
}

func printText(w io.Writer, title string, hasTitle bool, page, pages int, text string) error {
	if !hasTitle {
		title = "Untitled Document"
	}
	_, _ = fmt.Fprintf(w, "%s  (page %d/%d)\n%s\n", title, page, pages, strings.Repeat("─", 40))
	_, err := fmt.Fprintln(w, text)
	return err
}

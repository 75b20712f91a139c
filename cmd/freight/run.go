package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/freightflow/internal/cli"
	"github.com/Veraticus/freightflow/internal/common"
	"github.com/Veraticus/freightflow/internal/config"
	"github.com/Veraticus/freightflow/internal/ingest"
	"github.com/Veraticus/freightflow/internal/report"
	"github.com/Veraticus/freightflow/internal/sheets"
)

// runOptions controls how a report command reads its input and writes its result.
type runOptions struct {
	// Progress receives the load progress bar; nil hides it.
	Progress io.Writer
	Format   string
	Output   string
	Sheet    string
	Export   bool
}

// addReportFlags registers the flags shared by every report command.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", cli.FormatTable, "Output format (table, json, csv)")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().String("sheet", "", "Worksheet to read from .xlsx files (default: first sheet)")
	cmd.Flags().Bool("export", false, "Export to Google Sheets")
	cmd.Flags().Bool("no-progress", false, "Hide the file loading progress bar")
}

// reportOptions binds the shared flags of the running command and reads them
// back through viper, so config file and environment values apply too.
func reportOptions(cmd *cobra.Command) runOptions {
	_ = viper.BindPFlag("output.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("output.path", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("input.sheet", cmd.Flags().Lookup("sheet"))
	_ = viper.BindPFlag("sheets.export", cmd.Flags().Lookup("export"))

	opts := runOptions{
		Format: viper.GetString("output.format"),
		Output: config.ExpandPath(viper.GetString("output.path")),
		Sheet:  viper.GetString("input.sheet"),
		Export: viper.GetBool("sheets.export"),
	}
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); !noProgress {
		opts.Progress = cmd.ErrOrStderr()
	}
	return opts
}

// runReport loads the input files, builds the report and writes it out.
func runReport(ctx context.Context, stdout io.Writer, variant report.Variant, paths []string, opts runOptions) error {
	if len(paths) == 0 {
		return common.NewUserError("no input files given", common.ErrNoValidFiles)
	}
	expanded := make([]string, len(paths))
	for i, p := range paths {
		expanded[i] = config.ExpandPath(p)
	}

	slog.Info(cli.FormatInfo(fmt.Sprintf("Reading %d file(s) for the %s report", len(expanded), variant.Name())))

	loader := ingest.NewLoader(slog.Default())
	loader.Sheet = opts.Sheet
	if opts.Progress != nil && len(expanded) > 1 {
		bar := newLoadBar(opts.Progress, len(expanded))
		loader.Progress = func(int) {
			_ = bar.Add(1)
		}
	}

	batches, warnings, err := loader.LoadFiles(ctx, expanded)
	for _, w := range warnings {
		slog.Warn(cli.FormatWarning(w.String()))
	}
	if err != nil {
		return common.NewUserError("could not read any input file", err)
	}

	rep, err := report.Run(variant, batches)
	if err != nil {
		return common.NewUserError(fmt.Sprintf("could not build the %s report", variant.Name()), err)
	}
	for _, w := range warnings {
		rep.Warnings = append(rep.Warnings, w.String())
	}

	if err := writeReport(stdout, rep, opts); err != nil {
		return err
	}

	if opts.Export {
		return exportReport(ctx, rep)
	}
	return nil
}

func writeReport(stdout io.Writer, rep *report.Report, opts runOptions) error {
	if opts.Output == "" {
		return cli.Write(stdout, rep, opts.Format)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return common.NewUserError("could not create the output file", err)
	}
	if err := cli.Write(f, rep, opts.Format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", opts.Output, err)
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Report written to %s", opts.Output)))
	return nil
}

func exportReport(ctx context.Context, rep *report.Report) error {
	sheetsConfig, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return common.NewUserError("Google Sheets export is not configured", err)
	}

	writer, err := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
	if err != nil {
		return common.NewUserError("could not connect to Google Sheets", err)
	}
	if err := writer.Write(ctx, rep); err != nil {
		return common.NewUserError("Google Sheets export failed", err)
	}

	slog.Info(cli.FormatSuccess("Exported to Google Sheets"), "url", writer.URL())
	return nil
}

func newLoadBar(w io.Writer, files int) *progressbar.ProgressBar {
	return progressbar.NewOptions(files,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Reading files...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"house-inspect/internal/container"
	"house-inspect/internal/domain/entity"
	"house-inspect/internal/infrastructure/export"
)

type inspectOptions struct {
	propertyType string
	address      string
	outDir       string
	formats      string
}

func newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <video>",
		Short: "Analyze a walkthrough video and write the report",
		Long: `Analyze a walkthrough video file, save the report to the configured storage
and write the exports (HTML and JSON by default) to the output directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			c, err := bootstrap(cmd, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			return runInspect(cmd.Context(), cmd, c, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.propertyType, "type", "t", string(entity.PropertyApartment),
		"property type (apartment, house, villa, office, commercial)")
	cmd.Flags().StringVarP(&opts.address, "address", "a", "", "property address")
	cmd.Flags().StringVarP(&opts.outDir, "output", "o", ".", "directory for exported reports")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "html,json", "comma-separated export formats (html, json, txt)")
	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, c *container.Container, path string, opts *inspectOptions) error {
	propertyType := entity.PropertyType(opts.propertyType)
	if !propertyType.IsValid() {
		return fmt.Errorf("unknown property type %q", opts.propertyType)
	}

	video, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read video: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	progress := color.New(color.FgCyan)
	onProgress := func(processed, total int) {
		progress.Fprintf(stderr, "\rАнализ кадров: %d/%d", processed, total)
		if processed == total {
			fmt.Fprintln(stderr)
		}
	}

	report, err := c.InspectionService.AnalyzeVideo(ctx, video, propertyType, opts.address, onProgress)
	if err != nil {
		return err
	}

	written, err := writeExports(ctx, c, report.ID, opts.outDir, opts.formats)
	if err != nil {
		return err
	}

	if err := printReport(cmd, report); err != nil {
		return err
	}
	for _, file := range written {
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %s\n", file)
	}
	return nil
}

// writeExports выгружает отчёт в каждый формат из списка
func writeExports(ctx context.Context, c *container.Container, reportID, dir, formats string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, format := range strings.Split(formats, ",") {
		format = strings.TrimSpace(format)
		if format == "" {
			continue
		}
		file, err := c.ReportService.Export(ctx, reportID, format)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, file.Filename)
		if err := os.WriteFile(path, file.Content, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func printReport(cmd *cobra.Command, report *entity.Report) error {
	text, err := export.NewTextFormatter(colorEnabled(cmd)).Format(report)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(text)
	return err
}

package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"house-inspect/internal/container"
)

// withContainer оборачивает команду, которой нужен только контейнер
func withContainer(run func(cmd *cobra.Command, c *container.Container, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		c, err := bootstrap(cmd, cfg)
		if err != nil {
			return err
		}
		defer c.Close()
		return run(cmd, c, args)
	}
}

func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Manage saved inspection reports",
	}

	var (
		outDir  string
		formats string
	)
	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write report exports to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(cmd *cobra.Command, c *container.Container, args []string) error {
			written, err := writeExports(cmd.Context(), c, args[0], outDir, formats)
			for _, file := range written {
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ %s\n", file)
			}
			return err
		}),
	}
	exportCmd.Flags().StringVarP(&outDir, "output", "o", ".", "output directory")
	exportCmd.Flags().StringVarP(&formats, "format", "f", "html", "comma-separated export formats (html, json, txt)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved reports, newest first",
			Args:  cobra.NoArgs,
			RunE:  withContainer(runReportsList),
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print a report",
			Args:  cobra.ExactArgs(1),
			RunE: withContainer(func(cmd *cobra.Command, c *container.Container, args []string) error {
				report, err := c.ReportService.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printReport(cmd, report)
			}),
		},
		exportCmd,
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a report and its video",
			Args:  cobra.ExactArgs(1),
			RunE: withContainer(func(cmd *cobra.Command, c *container.Container, args []string) error {
				if err := c.ReportService.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Отчёт %s удалён\n", args[0])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "remove-problem <id> <problem-id>",
			Short: "Remove a false positive and recompute the summary",
			Args:  cobra.ExactArgs(2),
			RunE: withContainer(func(cmd *cobra.Command, c *container.Container, args []string) error {
				report, err := c.ReportService.RemoveProblem(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Проблема %s удалена, оценка: %d/100\n",
					args[1], report.Summary.OverallScore)
				return nil
			}),
		},
	)
	return cmd
}

func runReportsList(cmd *cobra.Command, c *container.Container, args []string) error {
	reports, err := c.ReportService.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(reports) == 0 {
		fmt.Fprintln(out, "Сохранённых отчётов нет")
		return nil
	}

	for _, r := range reports {
		fmt.Fprintf(out, "%-36s  %s  %-16s  %3d/100  %d\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.PropertyType.Label(),
			r.Summary.OverallScore,
			r.Summary.TotalProblems)
	}
	return nil
}

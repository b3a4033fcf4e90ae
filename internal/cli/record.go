package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"house-inspect/internal/container"
)

type recordOptions struct {
	device   int
	duration time.Duration
	output   string
	analyze  bool
	inspect  inspectOptions
}

func newRecordCmd() *cobra.Command {
	opts := &recordOptions{}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a walkthrough video from a camera",
		Long: `Record a walkthrough video from a local camera until the duration elapses
or the command is interrupted. With --analyze the recording is inspected right away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("device") {
				cfg.Camera.Device = opts.device
			}
			c, err := bootstrap(cmd, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			path, err := record(cmd, c, opts)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Видео сохранено: %s\n", path)

			if !opts.analyze {
				return nil
			}
			// Ctrl+C останавливает запись, но не анализ
			return runInspect(context.WithoutCancel(cmd.Context()), cmd, c, path, &opts.inspect)
		},
	}

	cmd.Flags().IntVarP(&opts.device, "device", "d", 0, "camera device id (overrides camera.device)")
	cmd.Flags().DurationVar(&opts.duration, "duration", time.Minute, "maximum recording length")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "walkthrough.avi", "video file to write")
	cmd.Flags().BoolVar(&opts.analyze, "analyze", false, "inspect the recording when it stops")
	cmd.Flags().StringVarP(&opts.inspect.propertyType, "type", "t", "apartment", "property type for --analyze")
	cmd.Flags().StringVarP(&opts.inspect.address, "address", "a", "", "property address for --analyze")
	cmd.Flags().StringVar(&opts.inspect.outDir, "report-dir", ".", "directory for exported reports")
	cmd.Flags().StringVar(&opts.inspect.formats, "format", "html,json", "export formats for --analyze")
	return cmd
}

// record держит камеру только на время записи
func record(cmd *cobra.Command, c *container.Container, opts *recordOptions) (string, error) {
	ctx := cmd.Context()
	if err := c.Recorder.StartCamera(ctx); err != nil {
		return "", err
	}
	defer func() {
		if err := c.Recorder.StopCamera(); err != nil {
			c.Logger.Warn("failed to release camera", "error", err)
		}
	}()

	if err := c.Recorder.StartRecording(opts.output); err != nil {
		return "", err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Запись... (до %s, Ctrl+C для остановки)\n", opts.duration)

	timer := time.NewTimer(opts.duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}

	return c.Recorder.StopRecording()
}

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/magcho/vtrpon/internal/logging"
	"github.com/magcho/vtrpon/internal/media/ffprobe"
	"github.com/magcho/vtrpon/internal/slideshow"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		verbose bool
		seconds string
	)

	cmd := &cobra.Command{
		Use:   "convert <presentation>",
		Short: "Convert one presentation in the foreground without touching the playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			if !slideshow.IsPresentation(source) {
				return fmt.Errorf("%s is not a supported presentation", filepath.Base(source))
			}

			level := "warn"
			if verbose {
				level = "debug"
			}
			logger, err := logging.New(logging.Options{
				Level:            level,
				Format:           cfg.Logging.Format,
				OutputPaths:      []string{"stderr"},
				ErrorOutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}

			pipeline, err := slideshow.NewPipeline(cfg, logger)
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if timeout := cfg.ConversionTimeout(); timeout > 0 {
				var cancel func()
				runCtx, cancel = contextWithTimeout(runCtx, timeout)
				defer cancel()
			}
			output, err := pipeline.Convert(runCtx, source, seconds)
			if err != nil {
				return fmt.Errorf("convert %s: %w", filepath.Base(source), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Output: %s\n", output)
			prober := ffprobe.NewProber(cfg.Probe.FFprobeBinary, cfg.ProbeTimeout(), logger)
			meta, err := prober.Probe(cmd.Context(), output)
			if err != nil {
				fmt.Fprintf(out, "Metadata unavailable: %v\n", err)
				return nil
			}
			fmt.Fprintf(out, "Resolution: %s\nDuration: %s\n", meta.Resolution, meta.Duration)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every conversion step")
	cmd.Flags().StringVarP(&seconds, "seconds", "s", "", "Seconds each slide stays on screen (default from config)")
	return cmd
}

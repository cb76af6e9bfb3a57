package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magcho/vtrpon/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check directories and external programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				status := "ok"
				if !result.Passed {
					status = "missing"
					if result.Optional {
						status = "optional"
					}
				}
				if colorize {
					switch status {
					case "ok":
						status = ansiGreen + status + ansiReset
					case "missing":
						status = ansiRed + status + ansiReset
					default:
						status = ansiYellow + status + ansiReset
					}
				}
				rows = append(rows, []string{result.Name, status, yesNo(!result.Optional), result.Detail})
			}
			fmt.Fprint(out, renderTable([]string{"Check", "Status", "Required", "Detail"}, rows, nil))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			return nil
		},
	}
}

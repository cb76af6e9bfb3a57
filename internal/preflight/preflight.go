package preflight

import (
	"context"
	"fmt"
	"strings"

	"github.com/magcho/vtrpon/internal/config"
	"github.com/magcho/vtrpon/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if strings.TrimSpace(cfg.Paths.WatchDir) != "" {
		results = append(results, CheckDirectoryAccess("Watch directory", cfg.Paths.WatchDir))
	}
	for _, status := range deps.Check(cfg) {
		results = append(results, FromDependency(status))
	}
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		result := CheckNtfy(ctx, topic)
		result.Optional = true
		results = append(results, result)
	}
	return results
}

// FromDependency converts a binary availability report.
func FromDependency(status deps.Status) Result {
	detail := status.Command
	if !status.Available {
		detail = fmt.Sprintf("%s (%s)", status.Command, status.Detail)
	}
	return Result{
		Name:     status.Name,
		Passed:   status.Available,
		Detail:   detail,
		Optional: status.Optional,
	}
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, result := range results {
		if !result.Passed && !result.Optional {
			out = append(out, result)
		}
	}
	return out
}

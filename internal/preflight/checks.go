package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"sttbatch/internal/config"
	"sttbatch/internal/deps"
	"sttbatch/internal/ledger"
	"sttbatch/internal/manifest"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLedger opens the run ledger, which creates it on first use and fails on
// a schema from another release.
func CheckLedger(ctx context.Context, cfg *config.Config) Result {
	const name = "Ledger"

	path := cfg.LedgerPath()
	store, err := ledger.OpenPath(path)
	if err != nil {
		if errors.Is(err, ledger.ErrSchemaMismatch) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: schema mismatch, delete the file to start fresh)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d runs)", path, len(runs))}
}

// CheckManifest verifies the manifest parses and reports how much of it still
// needs probing.
func CheckManifest(path string) Result {
	const name = "Manifest"

	entries, err := manifest.Load(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(entries) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no entries)", path)}
	}
	missing := 0
	for _, entry := range entries {
		if entry.Duration <= 0 {
			missing++
		}
	}
	detail := fmt.Sprintf("%s (%s entries, %s without duration)",
		path, humanize.Comma(int64(len(entries))), humanize.Comma(int64(missing)))
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates all external tools for the given config. Both
// "sttbatch run" and "sttbatch check" use this to avoid duplicating the
// requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	results := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFprobe",
			Command:     deps.ResolveFFprobePath(cfg.FFprobeBinary()),
			Description: "Required for audio duration probing",
		},
	})
	results = append(results, deps.CheckInferenceCommand(cfg.Inference.Command, cfg.Inference.Args))
	if strings.EqualFold(cfg.Inference.Device, "cuda") {
		results = append(results, deps.CheckBinaries([]deps.Requirement{
			{
				Name:        "nvidia-smi",
				Command:     "nvidia-smi",
				Description: "Reports GPU visibility for cuda inference",
				Optional:    true,
			},
		})...)
	}
	return results
}

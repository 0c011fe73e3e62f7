package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"mipexport/internal/config"
	"mipexport/internal/deps"
)

// Requirements lists the external tools an export invokes.
func Requirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{
			Name:        "Inkscape",
			Command:     cfg.Rasterizer.Binary,
			Description: "Rasterizes the source SVG",
		},
		{
			Name:        "Wine",
			Command:     cfg.Compat.WineBinary,
			Description: "Runs the NVIDIA DDS Utilities",
		},
		{
			Name:        "nvdxt",
			Command:     cfg.CompressorPath(),
			Description: "Compresses each mip level",
			Hosted:      true,
		},
		{
			Name:        "stitch",
			Command:     cfg.StitcherPath(),
			Description: "Assembles the mipmapped texture",
			Hosted:      true,
		},
	}
}

// CheckTools resolves every tool in Requirements.
func CheckTools(cfg *config.Config) []Result {
	statuses := deps.CheckBinaries(Requirements(cfg))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		detail := status.Command
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{Name: status.Name, Passed: status.Available, Detail: detail})
	}
	return results
}

// CheckSourceAsset verifies that the source file exists and is readable.
func CheckSourceAsset(path string) Result {
	const name = "Source asset"
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckWorkDir verifies the work directory, or the parent it would be
// created in, is writable.
func CheckWorkDir(path string) Result {
	const name = "Work directory"
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		parent := CheckDirectoryAccess(name, filepath.Dir(path))
		if !parent.Passed {
			return parent
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	}
	return CheckDirectoryAccess(name, path)
}

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

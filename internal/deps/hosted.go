package deps

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// CheckHostedExecutable reports whether a Wine-hosted .exe exists. Wine does
// not need the execute bit, so only presence and file type are checked.
func CheckHostedExecutable(req Requirement) Status {
	path := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     path,
		Description: strings.TrimSpace(req.Description),
	}
	if path == "" {
		status.Detail = "path not configured"
		return status
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			status.Detail = fmt.Sprintf("%s not found", path)
		} else {
			status.Detail = fmt.Sprintf("stat %s: %v", path, err)
		}
		return status
	}
	if !info.Mode().IsRegular() {
		status.Detail = fmt.Sprintf("%s is not a regular file", path)
		return status
	}
	status.Available = true
	return status
}

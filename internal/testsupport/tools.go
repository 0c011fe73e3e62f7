package testsupport

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/woozymasta/bcn"

	"mipexport/internal/toolexec"
)

// FakeTools is a toolexec.Executor that imitates inkscape, nvdxt, and
// stitch by writing the files each tool would produce. Calls are recorded in
// order.
type FakeTools struct {
	// Fail, when set, is consulted before each call. A non-nil error is
	// returned without producing output.
	Fail func(cmd toolexec.Command) error

	mu    sync.Mutex
	calls []toolexec.Command
}

// NewFakeTools returns an executor with no failures configured.
func NewFakeTools() *FakeTools {
	return &FakeTools{}
}

// FailWith makes every call matching tool and containing arg fail with an
// *toolexec.ExitError carrying code.
func (f *FakeTools) FailWith(tool, arg string, code int) {
	f.Fail = func(cmd toolexec.Command) error {
		if cmd.Tool != tool {
			return nil
		}
		for _, a := range cmd.Args {
			if strings.Contains(a, arg) {
				return &toolexec.ExitError{Tool: tool, Args: cmd.Args, Code: code}
			}
		}
		return nil
	}
}

// Calls returns a copy of the recorded commands.
func (f *FakeTools) Calls() []toolexec.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]toolexec.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// Tools returns the tool name of each recorded call.
func (f *FakeTools) Tools() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, call := range calls {
		out[i] = call.Tool
	}
	return out
}

// Run implements toolexec.Executor.
func (f *FakeTools) Run(ctx context.Context, cmd toolexec.Command, onOutput func(string)) error {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Fail != nil {
		if err := f.Fail(cmd); err != nil {
			return err
		}
	}
	if onOutput != nil {
		onOutput(fmt.Sprintf("%s: ok", cmd.Tool))
	}

	switch cmd.Tool {
	case "inkscape":
		return fakeRasterize(cmd)
	case "nvdxt":
		return fakeCompress(cmd)
	case "stitch":
		return fakeStitch(cmd)
	default:
		return fmt.Errorf("fake tools: unknown tool %q", cmd.Tool)
	}
}

func fakeRasterize(cmd toolexec.Command) error {
	output := flagValue(cmd.Args, "--export-png=", "--export-filename=")
	width, err := strconv.Atoi(flagValue(cmd.Args, "--export-width="))
	if output == "" || err != nil {
		return fmt.Errorf("fake inkscape: bad arguments %v", cmd.Args)
	}
	return writePNG(filepath.Join(cmd.Dir, output), width)
}

func fakeCompress(cmd toolexec.Command) error {
	var input, format string
	for i, arg := range cmd.Args {
		if arg == "-file" && i+1 < len(cmd.Args) {
			input = cmd.Args[i+1]
		}
		if strings.HasPrefix(arg, "-dxt") {
			format = strings.TrimPrefix(arg, "-")
		}
	}
	if input == "" {
		return fmt.Errorf("fake nvdxt: no -file in %v", cmd.Args)
	}
	raster := filepath.Join(cmd.Dir, input)
	f, err := os.Open(raster)
	if err != nil {
		return &toolexec.ExitError{Tool: "nvdxt", Args: cmd.Args, Code: 1, Err: err}
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return &toolexec.ExitError{Tool: "nvdxt", Args: cmd.Args, Code: 1, Err: err}
	}
	output := strings.TrimSuffix(raster, filepath.Ext(raster)) + ".dds"
	return writeDDS(output, cfg.Width, 1, fourCCForFlag(format))
}

var levelFile = regexp.MustCompile(`_(\d{2})\.dds$`)

func fakeStitch(cmd toolexec.Command) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("fake stitch: no arguments")
	}
	prefix := cmd.Args[len(cmd.Args)-1]
	matches, err := filepath.Glob(filepath.Join(cmd.Dir, prefix+"_[0-9][0-9].dds"))
	if err != nil {
		return err
	}
	sort.Strings(matches)
	if len(matches) == 0 || !levelFile.MatchString(matches[0]) {
		return &toolexec.ExitError{Tool: "stitch", Args: cmd.Args, Code: 2}
	}
	f, err := os.Open(matches[0])
	if err != nil {
		return &toolexec.ExitError{Tool: "stitch", Args: cmd.Args, Code: 1, Err: err}
	}
	defer f.Close()
	header, err := bcn.ReadDDSHeader(f)
	if err != nil {
		return &toolexec.ExitError{Tool: "stitch", Args: cmd.Args, Code: 1, Err: err}
	}
	code := header.PixelFormat.FourCC
	fourCC := string([]byte{byte(code), byte(code >> 8), byte(code >> 16), byte(code >> 24)})
	return writeDDS(filepath.Join(cmd.Dir, prefix+".dds"), int(header.Width), len(matches), fourCC)
}

func flagValue(args []string, prefixes ...string) string {
	for _, arg := range args {
		for _, prefix := range prefixes {
			if strings.HasPrefix(arg, prefix) {
				return strings.TrimPrefix(arg, prefix)
			}
		}
	}
	return ""
}

func fourCCForFlag(flag string) string {
	switch flag {
	case "dxt1c", "dxt1a":
		return "DXT1"
	case "dxt5":
		return "DXT5"
	default:
		return "DXT3"
	}
}

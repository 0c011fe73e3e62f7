package exporter_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/woozymasta/bcn"

	"mipexport/internal/config"
	"mipexport/internal/exporter"
	"mipexport/internal/history"
	"mipexport/internal/mipchain"
	"mipexport/internal/testsupport"
	"mipexport/internal/toolexec"
)

func newConfiguredExporter(t *testing.T, cfg *config.Config, tools *testsupport.FakeTools, opts ...exporter.Option) *exporter.Exporter {
	t.Helper()
	exp, err := exporter.NewFromConfig(cfg, nil, tools, opts...)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	return exp
}

func readyConfig(t *testing.T, opts ...testsupport.ConfigOption) *config.Config {
	t.Helper()
	opts = append([]testsupport.ConfigOption{testsupport.WithStubbedTools(), testsupport.WithSourceAsset()}, opts...)
	return testsupport.NewConfig(t, opts...)
}

func listWorkDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.Name() == exporter.LockFileName {
			continue
		}
		names = append(names, entry.Name())
	}
	return names
}

func TestRunProducesFullChain(t *testing.T) {
	cfg := readyConfig(t)
	tools := testsupport.NewFakeTools()
	exp := newConfiguredExporter(t, cfg, tools)

	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.RunID == "" {
		t.Fatal("expected a run id")
	}
	if result.Stitched != filepath.Join(cfg.Paths.WorkDir, "export.dds") {
		t.Fatalf("unexpected stitched path %q", result.Stitched)
	}
	if len(result.Levels) != 9 {
		t.Fatalf("expected 9 levels, got %d", len(result.Levels))
	}

	var dds []string
	for _, name := range listWorkDir(t, cfg.Paths.WorkDir) {
		if strings.HasSuffix(name, ".dds") {
			dds = append(dds, name)
		}
	}
	want := []string{"export.dds"}
	for i := range 9 {
		want = append(want, fmt.Sprintf("export_%02d.dds", i))
	}
	slices.Sort(want)
	if !slices.Equal(dds, want) {
		t.Fatalf("unexpected textures:\n got %v\nwant %v", dds, want)
	}
}

func TestRunInvokesToolsInOrder(t *testing.T) {
	cfg := readyConfig(t)
	tools := testsupport.NewFakeTools()
	exp := newConfiguredExporter(t, cfg, tools)

	if _, err := exp.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	calls := tools.Calls()
	if len(calls) != 19 {
		t.Fatalf("expected 19 tool calls, got %d: %v", len(calls), tools.Tools())
	}
	size := 256
	for i := range 9 {
		raster, compress := calls[2*i], calls[2*i+1]
		if raster.Tool != "inkscape" || compress.Tool != "nvdxt" {
			t.Fatalf("level %d: unexpected tools %s, %s", i, raster.Tool, compress.Tool)
		}
		name := fmt.Sprintf("export_%02d.png", i)
		if !slices.Contains(raster.Args, "--export-png="+name) {
			t.Fatalf("level %d: raster args %v", i, raster.Args)
		}
		if !slices.Contains(raster.Args, fmt.Sprintf("--export-width=%d", size)) ||
			!slices.Contains(raster.Args, fmt.Sprintf("--export-height=%d", size)) {
			t.Fatalf("level %d: expected %dpx in %v", i, size, raster.Args)
		}
		if raster.Args[len(raster.Args)-1] != cfg.Paths.Source {
			t.Fatalf("level %d: expected source last, got %v", i, raster.Args)
		}
		wantCompress := []string{cfg.CompressorPath(), "-dxt3", "-quality_highest", "-nomipmap", "-file", name}
		if !slices.Equal(compress.Args, wantCompress) {
			t.Fatalf("level %d: compress args %v, want %v", i, compress.Args, wantCompress)
		}
		if raster.Dir != cfg.Paths.WorkDir || compress.Dir != cfg.Paths.WorkDir {
			t.Fatalf("level %d: tools must run in the work dir", i)
		}
		size /= 2
	}
	stitch := calls[18]
	if stitch.Tool != "stitch" || !slices.Equal(stitch.Args, []string{cfg.StitcherPath(), "export"}) {
		t.Fatalf("unexpected stitch call %+v", stitch)
	}
}

func TestRunMissingSourceInvokesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedTools())
	tools := testsupport.NewFakeTools()
	exp := newConfiguredExporter(t, cfg, tools)

	_, err := exp.Run(context.Background())
	if !errors.Is(err, exporter.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	if calls := tools.Calls(); len(calls) != 0 {
		t.Fatalf("expected no tool calls, got %v", tools.Tools())
	}
	if _, err := os.Stat(cfg.Paths.WorkDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected work dir to be untouched, stat err=%v", err)
	}
}

func TestRunMissingToolInvokesNothing(t *testing.T) {
	cfg := readyConfig(t)
	if err := os.Remove(cfg.StitcherPath()); err != nil {
		t.Fatalf("remove stitch stub: %v", err)
	}
	tools := testsupport.NewFakeTools()
	exp := newConfiguredExporter(t, cfg, tools)

	_, err := exp.Run(context.Background())
	if !errors.Is(err, exporter.ErrMissingTool) {
		t.Fatalf("expected ErrMissingTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "stitch") {
		t.Fatalf("expected error to name stitch, got %v", err)
	}
	if len(tools.Calls()) != 0 {
		t.Fatalf("expected no tool calls, got %v", tools.Tools())
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	cfg := readyConfig(t)
	tools := testsupport.NewFakeTools()
	tools.FailWith("nvdxt", "export_05.png", 3)
	exp := newConfiguredExporter(t, cfg, tools)

	_, err := exp.Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if code, ok := toolexec.ExitCode(err); !ok || code != 3 {
		t.Fatalf("expected exit code 3, got %d (%v)", code, err)
	}

	for i := range 9 {
		png := filepath.Join(cfg.Paths.WorkDir, fmt.Sprintf("export_%02d.png", i))
		dds := filepath.Join(cfg.Paths.WorkDir, fmt.Sprintf("export_%02d.dds", i))
		_, pngErr := os.Stat(png)
		_, ddsErr := os.Stat(dds)
		switch {
		case i < 5:
			if ddsErr != nil {
				t.Fatalf("level %d: expected texture: %v", i, ddsErr)
			}
		case i == 5:
			if pngErr != nil || ddsErr == nil {
				t.Fatalf("level 5: expected raster only (png err=%v, dds err=%v)", pngErr, ddsErr)
			}
		default:
			if pngErr == nil || ddsErr == nil {
				t.Fatalf("level %d: expected no output", i)
			}
		}
	}
	if slices.Contains(tools.Tools(), "stitch") {
		t.Fatal("stitch must not run after a failure")
	}
	if _, err := os.Stat(cfg.StitchedPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no stitched output, stat err=%v", err)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	cfg := readyConfig(t)

	var listings [][]string
	var digests []map[string]string
	for range 2 {
		tools := testsupport.NewFakeTools()
		exp := newConfiguredExporter(t, cfg, tools)
		if _, err := exp.Run(context.Background()); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		listings = append(listings, listWorkDir(t, cfg.Paths.WorkDir))
		digests = append(digests, ddsDigests(t, cfg.Paths.WorkDir))
	}
	if !slices.Equal(listings[0], listings[1]) {
		t.Fatalf("second run changed the work dir:\n%v\n%v", listings[0], listings[1])
	}
	// Nine levels plus the stitched file.
	if len(digests[0]) != 10 {
		t.Fatalf("expected 10 dds files, got %d: %v", len(digests[0]), digests[0])
	}
	for name, sum := range digests[0] {
		if digests[1][name] != sum {
			t.Fatalf("%s differs between runs: %s vs %s", name, sum, digests[1][name])
		}
	}
}

func ddsDigests(t *testing.T, dir string) map[string]string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.dds"))
	if err != nil {
		t.Fatalf("glob dds: %v", err)
	}
	out := make(map[string]string, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		sum := sha256.Sum256(data)
		out[filepath.Base(path)] = hex.EncodeToString(sum[:])
	}
	return out
}

func TestRunRejectsBusyWorkDir(t *testing.T) {
	cfg := readyConfig(t)
	if err := os.MkdirAll(cfg.Paths.WorkDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	held := flock.New(filepath.Join(cfg.Paths.WorkDir, exporter.LockFileName))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("hold lock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	tools := testsupport.NewFakeTools()
	exp := newConfiguredExporter(t, cfg, tools)
	if _, err := exp.Run(context.Background()); !errors.Is(err, exporter.ErrWorkDirBusy) {
		t.Fatalf("expected ErrWorkDirBusy, got %v", err)
	}
	if len(tools.Calls()) != 0 {
		t.Fatalf("expected no tool calls, got %v", tools.Tools())
	}
}

func TestRunParallelStitchesLast(t *testing.T) {
	cfg := readyConfig(t)
	cfg.Export.Workers = 4
	tools := testsupport.NewFakeTools()
	exp := newConfiguredExporter(t, cfg, tools)

	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	names := tools.Tools()
	if len(names) != 19 || names[len(names)-1] != "stitch" {
		t.Fatalf("expected stitch last after 18 level calls, got %v", names)
	}
	for i, level := range result.Levels {
		if level.Level.Index != i || level.Level.Size != 256>>i {
			t.Fatalf("result level %d out of place: %+v", i, level.Level)
		}
	}
}

func TestRunVerifiesTextures(t *testing.T) {
	cfg := readyConfig(t, testsupport.WithVerify(), testsupport.WithFormat("dxt5"))
	tools := testsupport.NewFakeTools()
	exp := newConfiguredExporter(t, cfg, tools)

	if _, err := exp.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

// wrongSizeCompressor writes a 4px texture for every level.
type wrongSizeCompressor struct{ t testing.TB }

func (c wrongSizeCompressor) Compress(_ context.Context, dir, input string, _ mipchain.Level) error {
	testsupport.WriteDDS(c.t, filepath.Join(dir, strings.TrimSuffix(input, ".png")+".dds"), 4, 1, "DXT3")
	return nil
}

type noopRasterizer struct{}

func (noopRasterizer) Rasterize(context.Context, string, string, string, int) error { return nil }

type noopStitcher struct{}

func (noopStitcher) Stitch(context.Context, string, string) error { return nil }

func TestRunVerifyRejectsWrongSize(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "textur.svg")
	testsupport.WriteSVG(t, source)

	exp, err := exporter.New(exporter.Settings{
		Source:  source,
		WorkDir: filepath.Join(dir, "work"),
		Prefix:  "export",
		Chain:   mipchain.Default(),
		Verify:  true,
		Format:  bcn.FormatDXT3,
	}, noopRasterizer{}, wrongSizeCompressor{t: t}, noopStitcher{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := exp.Run(context.Background()); !errors.Is(err, exporter.ErrVerify) {
		t.Fatalf("expected ErrVerify, got %v", err)
	}
}

type blockingRasterizer struct{}

func (blockingRasterizer) Rasterize(ctx context.Context, _, _, _ string, _ int) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRunAppliesToolTimeout(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "textur.svg")
	testsupport.WriteSVG(t, source)

	exp, err := exporter.New(exporter.Settings{
		Source:      source,
		WorkDir:     filepath.Join(dir, "work"),
		Prefix:      "export",
		Chain:       mipchain.Default(),
		ToolTimeout: 20 * time.Millisecond,
	}, blockingRasterizer{}, wrongSizeCompressor{t: t}, noopStitcher{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = exp.Run(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !strings.Contains(err.Error(), "level 0 rasterize") {
		t.Fatalf("expected failing level in error, got %v", err)
	}
}

type recordingRecorder struct {
	mu       sync.Mutex
	begun    int
	levels   int
	finished []error
}

func (r *recordingRecorder) Begin(context.Context, string, string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begun++
	return "run-1", nil
}

func (r *recordingRecorder) LevelDone(context.Context, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels++
	return nil
}

func (r *recordingRecorder) Finish(_ context.Context, _ string, runErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, runErr)
	return nil
}

func TestRunReportsToRecorder(t *testing.T) {
	cfg := readyConfig(t)
	tools := testsupport.NewFakeTools()
	tools.FailWith("inkscape", "export_07.png", 1)
	recorder := &recordingRecorder{}
	exp := newConfiguredExporter(t, cfg, tools, exporter.WithRecorder(recorder))

	result, err := exp.Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if result.RunID != "run-1" {
		t.Fatalf("expected recorder run id, got %q", result.RunID)
	}
	if recorder.begun != 1 || recorder.levels != 7 {
		t.Fatalf("unexpected recorder counts: begun=%d levels=%d", recorder.begun, recorder.levels)
	}
	if len(recorder.finished) != 1 || recorder.finished[0] == nil {
		t.Fatalf("expected one failed finish, got %v", recorder.finished)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	cfg := readyConfig(t)
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	exp := newConfiguredExporter(t, cfg, testsupport.NewFakeTools(), exporter.WithRecorder(store))
	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	runs, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run, got %d", len(runs))
	}
	run := runs[0]
	if run.ID != result.RunID || run.Status != history.StatusSucceeded || run.LevelsCompleted != 9 {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestRunMissingSourceLeavesHistoryUnopened(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedTools())
	store := history.NewLazy(cfg.HistoryPath())
	t.Cleanup(func() { _ = store.Close() })

	exp := newConfiguredExporter(t, cfg, testsupport.NewFakeTools(), exporter.WithRecorder(store))
	if _, err := exp.Run(context.Background()); !errors.Is(err, exporter.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	if _, err := os.Stat(cfg.Paths.StateDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no state dir, stat err=%v", err)
	}
}

func TestNewRejectsIncompleteSettings(t *testing.T) {
	settings := exporter.Settings{Source: "a.svg", WorkDir: "/tmp/x", Prefix: "export", Chain: mipchain.Default()}
	if _, err := exporter.New(settings, nil, wrongSizeCompressor{t: t}, noopStitcher{}); err == nil {
		t.Fatal("expected error for missing rasterizer")
	}
	settings.Prefix = " "
	if _, err := exporter.New(settings, noopRasterizer{}, wrongSizeCompressor{t: t}, noopStitcher{}); err == nil {
		t.Fatal("expected error for blank prefix")
	}
}

func TestRunPublishesStitchedTexture(t *testing.T) {
	cfg := readyConfig(t)
	cfg.Paths.Output = filepath.Join(testsupport.BaseDir(cfg), "assets", "tunnel.dds")
	exp := newConfiguredExporter(t, cfg, testsupport.NewFakeTools())

	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Published != cfg.Paths.Output {
		t.Fatalf("expected published path %q, got %q", cfg.Paths.Output, result.Published)
	}
	want, err := os.ReadFile(result.Stitched)
	if err != nil {
		t.Fatalf("read stitched: %v", err)
	}
	got, err := os.ReadFile(cfg.Paths.Output)
	if err != nil {
		t.Fatalf("read published: %v", err)
	}
	if string(got) != string(want) {
		t.Fatal("published copy differs from the stitched texture")
	}
}

package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/woozymasta/bcn"
	"golang.org/x/sync/errgroup"

	"mipexport/internal/ddsinfo"
	"mipexport/internal/deps"
	"mipexport/internal/fileutil"
	"mipexport/internal/logging"
	"mipexport/internal/mipchain"
)

// LockFileName is the lock file created inside the work directory.
const LockFileName = ".mipexport.lock"

// Rasterizer renders the source into a square raster of the given size.
type Rasterizer interface {
	Rasterize(ctx context.Context, dir, source, output string, size int) error
}

// Compressor compresses a raster in dir into a texture next to it.
type Compressor interface {
	Compress(ctx context.Context, dir, input string, level mipchain.Level) error
}

// Stitcher assembles <prefix>_NN textures in dir into one mipmapped texture.
type Stitcher interface {
	Stitch(ctx context.Context, dir, prefix string) error
}

// Recorder receives run lifecycle events. The history store implements it.
type Recorder interface {
	Begin(ctx context.Context, source, workDir string) (string, error)
	LevelDone(ctx context.Context, id string) error
	Finish(ctx context.Context, id string, runErr error) error
}

// Settings holds the resolved inputs of one export.
type Settings struct {
	// Source is the absolute path of the SVG to rasterize.
	Source string
	// WorkDir receives every intermediate and the stitched texture.
	WorkDir string
	Prefix  string
	Chain   mipchain.Chain
	// Workers > 1 processes levels concurrently.
	Workers int
	// ToolTimeout bounds every tool call; zero waits indefinitely.
	ToolTimeout time.Duration
	// Verify checks DDS headers of each level and of the stitched output.
	Verify bool
	// Format is the expected block format when verifying.
	Format bcn.Format
	// Output, when set, receives a verified copy of the stitched texture.
	Output string
	// Requirements are resolved before any tool runs.
	Requirements []deps.Requirement
}

// LevelResult describes the files produced for one level.
type LevelResult struct {
	Level   mipchain.Level
	Raster  string
	Texture string
}

// Result describes a completed export.
type Result struct {
	RunID    string
	Levels   []LevelResult
	Stitched string
	// Published is the copy written to Settings.Output, if any.
	Published string
}

// Option configures the exporter.
type Option func(*Exporter)

// WithLogger sets the logger used for progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder records run lifecycle events.
func WithRecorder(recorder Recorder) Option {
	return func(e *Exporter) {
		e.recorder = recorder
	}
}

// Exporter drives the rasterize, compress, stitch sequence.
type Exporter struct {
	settings   Settings
	rasterizer Rasterizer
	compressor Compressor
	stitcher   Stitcher
	recorder   Recorder
	logger     *slog.Logger
}

// New constructs an exporter.
func New(settings Settings, rasterizer Rasterizer, compressor Compressor, stitcher Stitcher, opts ...Option) (*Exporter, error) {
	if rasterizer == nil || compressor == nil || stitcher == nil {
		return nil, errors.New("exporter requires rasterizer, compressor, and stitcher")
	}
	if strings.TrimSpace(settings.Source) == "" {
		return nil, errors.New("exporter requires a source path")
	}
	if strings.TrimSpace(settings.WorkDir) == "" {
		return nil, errors.New("exporter requires a work directory")
	}
	if strings.TrimSpace(settings.Prefix) == "" {
		return nil, errors.New("exporter requires a file prefix")
	}
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	e := &Exporter{
		settings:   settings,
		rasterizer: rasterizer,
		compressor: compressor,
		stitcher:   stitcher,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logging.FieldComponent, "exporter")
	return e, nil
}

// StitchedPath returns where the stitcher writes its output.
func (e *Exporter) StitchedPath() string {
	return filepath.Join(e.settings.WorkDir, e.settings.Prefix+".dds")
}

// Run executes the full export.
func (e *Exporter) Run(ctx context.Context) (Result, error) {
	s := e.settings
	if err := s.Chain.Validate(); err != nil {
		return Result{}, fmt.Errorf("mip chain: %w", err)
	}
	if err := checkSource(s.Source); err != nil {
		return Result{}, err
	}
	if err := checkTools(s.Requirements); err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(s.WorkDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create work directory: %w", err)
	}
	lock := flock.New(filepath.Join(s.WorkDir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire work directory lock: %w", err)
	}
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrWorkDirBusy, s.WorkDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			e.logger.Warn("failed to release work directory lock", "error", err)
		}
	}()

	runID := e.begin(ctx)
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("export started",
		"source", s.Source,
		"work_dir", s.WorkDir,
		"levels", len(s.Chain),
		"workers", s.Workers,
	)
	started := time.Now()

	result := Result{RunID: runID, Levels: make([]LevelResult, len(s.Chain))}
	var runErr error
	if s.Workers > 1 {
		runErr = e.runParallel(ctx, runID, result.Levels)
	} else {
		runErr = e.runSequential(ctx, runID, result.Levels)
	}
	if runErr == nil {
		result.Stitched, runErr = e.stitch(ctx)
	}
	if runErr == nil && s.Output != "" {
		if runErr = fileutil.PublishFile(result.Stitched, s.Output); runErr != nil {
			runErr = fmt.Errorf("publish %s: %w", s.Output, runErr)
		} else {
			result.Published = s.Output
			logger.Info("texture published", "output", s.Output)
		}
	}
	e.finish(ctx, runID, runErr)

	if runErr != nil {
		logger.Error("export failed", "error", runErr, "elapsed", time.Since(started).Round(time.Millisecond))
		return result, runErr
	}
	logger.Info("export complete", "output", result.Stitched, "elapsed", time.Since(started).Round(time.Millisecond))
	return result, nil
}

func (e *Exporter) runSequential(ctx context.Context, runID string, out []LevelResult) error {
	for _, level := range e.settings.Chain {
		res, err := e.processLevel(ctx, runID, level)
		if err != nil {
			return err
		}
		out[level.Index] = res
	}
	return nil
}

func (e *Exporter) runParallel(ctx context.Context, runID string, out []LevelResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.settings.Workers)
	for _, level := range e.settings.Chain {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.processLevel(gctx, runID, level)
			if err != nil {
				return err
			}
			out[level.Index] = res
			return nil
		})
	}
	return g.Wait()
}

func (e *Exporter) processLevel(ctx context.Context, runID string, level mipchain.Level) (LevelResult, error) {
	s := e.settings
	ctx = logging.WithLevel(ctx, level.Index)
	logger := logging.WithContext(ctx, e.logger).With(logging.FieldSize, level.Size)

	raster := level.RasterName(s.Prefix)
	res := LevelResult{
		Level:   level,
		Raster:  filepath.Join(s.WorkDir, raster),
		Texture: filepath.Join(s.WorkDir, level.TextureName(s.Prefix)),
	}

	logger.Debug("rasterizing", "output", raster)
	if err := e.withTimeout(ctx, func(ctx context.Context) error {
		return e.rasterizer.Rasterize(ctx, s.WorkDir, s.Source, raster, level.Size)
	}); err != nil {
		return res, fmt.Errorf("level %d rasterize: %w", level.Index, err)
	}

	logger.Debug("compressing", "input", raster)
	if err := e.withTimeout(ctx, func(ctx context.Context) error {
		return e.compressor.Compress(ctx, s.WorkDir, raster, level)
	}); err != nil {
		return res, fmt.Errorf("level %d compress: %w", level.Index, err)
	}

	if s.Verify {
		info, err := ddsinfo.Inspect(res.Texture)
		if err == nil {
			err = info.ExpectLevel(level.Size, s.Format)
		}
		if err != nil {
			return res, fmt.Errorf("%w: level %d: %v", ErrVerify, level.Index, err)
		}
	}

	if e.recorder != nil {
		if err := e.recorder.LevelDone(ctx, runID); err != nil {
			logger.Warn("history update failed", "error", err)
		}
	}
	logger.Info("level exported", "texture", filepath.Base(res.Texture))
	return res, nil
}

func (e *Exporter) stitch(ctx context.Context) (string, error) {
	s := e.settings
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("stitching mip chain", "prefix", s.Prefix, "levels", len(s.Chain))
	if err := e.withTimeout(ctx, func(ctx context.Context) error {
		return e.stitcher.Stitch(ctx, s.WorkDir, s.Prefix)
	}); err != nil {
		return "", fmt.Errorf("stitch: %w", err)
	}
	output := e.StitchedPath()
	if s.Verify {
		info, err := ddsinfo.Inspect(output)
		if err == nil {
			err = info.ExpectChain(s.Chain.BaseSize(), len(s.Chain), s.Format)
		}
		if err != nil {
			return "", fmt.Errorf("%w: stitched output: %v", ErrVerify, err)
		}
	}
	return output, nil
}

func (e *Exporter) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	if e.settings.ToolTimeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, e.settings.ToolTimeout)
	defer cancel()
	return fn(callCtx)
}

func (e *Exporter) begin(ctx context.Context) string {
	if e.recorder == nil {
		return uuid.NewString()
	}
	id, err := e.recorder.Begin(ctx, e.settings.Source, e.settings.WorkDir)
	if err != nil {
		e.logger.Warn("history unavailable", "error", err)
		e.recorder = nil
		return uuid.NewString()
	}
	return id
}

func (e *Exporter) finish(ctx context.Context, runID string, runErr error) {
	if e.recorder == nil {
		return
	}
	// Record the outcome even when ctx was cancelled mid-run.
	if err := e.recorder.Finish(context.WithoutCancel(ctx), runID, runErr); err != nil {
		e.logger.Warn("history update failed", "error", err)
	}
}

func checkSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingInput, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrMissingInput, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingInput, err)
	}
	return f.Close()
}

func checkTools(requirements []deps.Requirement) error {
	missing := deps.Missing(deps.CheckBinaries(requirements))
	if len(missing) == 0 {
		return nil
	}
	details := make([]string, 0, len(missing))
	for _, status := range missing {
		details = append(details, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
	}
	return fmt.Errorf("%w: %s", ErrMissingTool, strings.Join(details, ", "))
}

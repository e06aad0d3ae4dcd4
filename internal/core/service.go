package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultRunTimeout is the maximum duration of one extraction.
const DefaultRunTimeout = 2 * time.Minute

// DefaultMaxFileSize bounds an uploaded file.
const DefaultMaxFileSize int64 = 32 << 20

// RunSummary describes one finished (or failed) extraction for history and metrics.
type RunSummary struct {
	ID         uuid.UUID     `json:"id"`
	FileName   string        `json:"fileName"`
	Format     Format        `json:"format,omitempty"`
	Stage      Stage         `json:"stage,omitempty"`
	HeaderLine int           `json:"headerLine,omitempty"`
	InputRows  int           `json:"inputRows"`
	Accepted   int           `json:"accepted"`
	Failed     int           `json:"failed"`
	Dropped    int           `json:"dropped"`
	Bytes      int64         `json:"bytes"`
	Error      string        `json:"error,omitempty"`
	ClientIP   string        `json:"clientIp,omitempty"`
	UserAgent  string        `json:"userAgent,omitempty"`
	APIKeyID   string        `json:"apiKeyId,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
}

// RunStore persists run summaries.
type RunStore interface {
	RecordRun(ctx context.Context, run RunSummary) error
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// Observer is notified of every extraction outcome. Implementations must be
// safe for concurrent use.
type Observer interface {
	RunFinished(run RunSummary)
	RunRejected(reason string)
}

// ServiceConfig configures a Service. Zero values select defaults.
type ServiceConfig struct {
	Pipeline      Options
	MaxFileSize   int64
	RunTimeout    time.Duration
	MaxConcurrent int
	MaxWait       time.Duration
	OutputSuffix  string

	Store    RunStore
	Observer Observer
	// Logger returns the logger for a request context.
	Logger func(ctx context.Context) *slog.Logger
}

// Service runs extractions on behalf of a transport: it bounds concurrency,
// file size and run time, and records every run.
type Service struct {
	pipeline *Pipeline
	limiter  *ExtractionLimiter
	cfg      ServiceConfig
}

// Run is the outcome of Service.Extract.
type Run struct {
	Summary RunSummary        `json:"summary"`
	Result  *ExtractionResult `json:"result"`
}

// NewService creates a Service. Without a Store, runs are kept in memory.
func NewService(cfg ServiceConfig) *Service {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	if cfg.OutputSuffix == "" {
		cfg.OutputSuffix = DefaultOutputSuffix
	}
	if cfg.Store == nil {
		cfg.Store = NewRunHistory(DefaultHistorySize)
	}
	if cfg.Logger == nil {
		cfg.Logger = func(context.Context) *slog.Logger { return slog.Default() }
	}

	return &Service{
		pipeline: NewPipeline(cfg.Pipeline),
		limiter:  NewExtractionLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cfg:      cfg,
	}
}

// Fields returns the alias table in use.
func (s *Service) Fields() *FieldSet {
	return s.pipeline.opts.Fields
}

// OutputFilename derives the download name for name with extension ext.
func (s *Service) OutputFilename(name, ext string) string {
	return OutputFilename(name, s.cfg.OutputSuffix, ext)
}

// MaxFileSize returns the upload size limit in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

// Extract reads a file from r and runs it through the pipeline.
//
// Decode failures, oversize files, a busy service and cancellation are
// returned as errors. Data-quality problems never are: they appear as failed
// rows of the returned result.
func (s *Service) Extract(ctx context.Context, name string, r io.Reader) (*Run, error) {
	logger := s.cfg.Logger(ctx).With("file", name)

	if err := s.limiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrTooManyRuns) {
			s.reject("busy")
			logger.Warn("extraction rejected", "reason", "busy", "active", s.limiter.Active())
		}
		return nil, err
	}
	defer s.limiter.Release()

	client := ClientFromContext(ctx)
	summary := RunSummary{
		ID:        uuid.New(),
		FileName:  name,
		ClientIP:  client.IPAddress,
		UserAgent: client.UserAgent,
		APIKeyID:  client.APIKeyID,
		StartedAt: time.Now().UTC(),
	}
	if f, ok := DetectFormat(name); ok {
		summary.Format = f
	}
	logger = logger.With("run_id", summary.ID.String())

	data, err := ReadAll(r, s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			s.reject("too_large")
		}
		return nil, err
	}
	summary.Bytes = int64(len(data))

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	result, err := s.run(runCtx, logger, name, data)
	summary.Duration = time.Since(summary.StartedAt)
	if err != nil {
		summary.Error = err.Error()
		s.finish(ctx, logger, summary)
		logger.Warn("extraction failed", "error", err, "duration_ms", summary.Duration.Milliseconds())
		return nil, err
	}

	summary.Stage = result.Stage
	summary.HeaderLine = result.HeaderLine
	summary.InputRows = result.InputRows
	summary.Accepted = len(result.Rows)
	summary.Failed = len(result.Failed)
	summary.Dropped = result.Dropped
	s.finish(ctx, logger, summary)

	logger.Info("extraction completed",
		"stage", result.Stage,
		"accepted", summary.Accepted,
		"failed", summary.Failed,
		"dropped", summary.Dropped,
		"duration_ms", summary.Duration.Milliseconds(),
	)

	return &Run{Summary: summary, Result: result}, nil
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, name string, data []byte) (*ExtractionResult, error) {
	sheet, err := Decode(name, data)
	if err != nil {
		return nil, err
	}

	p := s.pipeline
	if s.cfg.Pipeline.Sink == nil {
		opts := p.opts
		opts.Sink = SlogSink(logger)
		p = &Pipeline{opts: opts, rules: p.rules}
	}
	return p.Run(ctx, sheet)
}

func (s *Service) reject(reason string) {
	if s.cfg.Observer != nil {
		s.cfg.Observer.RunRejected(reason)
	}
}

// finish reports a run to the observer and the store. A store failure is
// logged; it never fails the extraction.
func (s *Service) finish(ctx context.Context, logger *slog.Logger, summary RunSummary) {
	if s.cfg.Observer != nil {
		s.cfg.Observer.RunFinished(summary)
	}

	// Record even if the request was cancelled mid-run.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.cfg.Store.RecordRun(recordCtx, summary); err != nil {
		logger.Error("failed to record run", "error", err)
	}
}

// RecentRuns returns up to limit run summaries, newest first.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 || limit > DefaultHistorySize {
		limit = DefaultHistorySize
	}
	runs, err := s.cfg.Store.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// LimiterStatus reports extraction slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until in-flight extractions finish or ctx ends.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

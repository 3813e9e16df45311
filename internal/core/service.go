package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/CandleConvert/internal/config"
	"github.com/JonMunkholm/CandleConvert/internal/logging"
	"github.com/google/uuid"
)

const (
	// InputFileName is the name of the stored CSV within a batch directory.
	InputFileName = "uploaded_data.csv"

	// OutputFileName is the name of the converted JSON, also used as the
	// download file name.
	OutputFileName = "converted_data.json"
)

// Fetcher downloads a CSV source.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// BatchStore persists finished batches. Implementations must be safe for
// concurrent use.
type BatchStore interface {
	SaveBatch(ctx context.Context, rec BatchRecord) error
	RecentBatches(ctx context.Context, limit int) ([]BatchSummary, error)
}

// ConvertRequest triggers a conversion of a remote CSV.
type ConvertRequest struct {
	// SourceURL overrides the configured source when set.
	SourceURL string
	Timeframe Timeframe
}

// Conversion is a finished batch ready to be returned to the caller.
type Conversion struct {
	BatchID   string
	Source    string
	Timeframe Timeframe
	FileName  string
	JSON      []byte
	Result    *BatchResult
}

// Service runs conversion batches.
type Service struct {
	cfg       *config.Config
	converter *Converter
	fetcher   Fetcher
	store     BatchStore
	limiter   *BatchLimiter
	now       func() time.Time
}

// NewService creates a service. store may be nil to disable history.
func NewService(cfg *config.Config, fetcher Fetcher, store BatchStore) (*Service, error) {
	if err := os.MkdirAll(cfg.Batch.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &Service{
		cfg:       cfg,
		converter: NewConverter(CandleSchema),
		fetcher:   fetcher,
		store:     store,
		limiter:   NewBatchLimiter(cfg.Batch.MaxConcurrent, cfg.Batch.MaxWaitTime),
		now:       time.Now,
	}, nil
}

// DefaultSource returns the configured source URL.
func (s *Service) DefaultSource() string {
	return s.cfg.Source.URL
}

// ConvertRemote downloads the CSV named by the request, or the configured
// default, and converts it.
func (s *Service) ConvertRemote(ctx context.Context, req ConvertRequest) (*Conversion, error) {
	source := req.SourceURL
	if source == "" {
		source = s.cfg.Source.URL
	}
	if source == "" {
		return nil, ErrNoSource
	}
	if err := validateSourceURL(source); err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	batchID := uuid.NewString()
	logger := logging.WithFields(ctx, "batch_id", batchID, "source", source, "timeframe", int(req.Timeframe))
	logger.Info("fetching csv source")

	body, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		logger.Error("fetch failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	return s.run(ctx, batchID, source, req.Timeframe, bytes.NewReader(body))
}

// ConvertUpload converts a CSV supplied directly by the caller.
func (s *Service) ConvertUpload(ctx context.Context, fileName string, r io.Reader, tf Timeframe) (*Conversion, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	return s.run(ctx, uuid.NewString(), "upload:"+filepath.Base(fileName), tf, r)
}

// run stores the input, converts it from disk and writes the JSON next to it.
// No partial output is returned on error.
func (s *Service) run(ctx context.Context, batchID, source string, tf Timeframe, src io.Reader) (*Conversion, error) {
	logger := logging.WithFields(ctx, "batch_id", batchID, "source", source, "timeframe", int(tf))
	started := s.now()

	dir := filepath.Join(s.cfg.Batch.WorkDir, batchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create batch dir: %w", ErrOutputUnwritable, err)
	}
	if !s.cfg.Batch.KeepFiles {
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				logger.Warn("failed to remove batch dir", "dir", dir, "error", err)
			}
		}()
	}

	inPath := filepath.Join(dir, InputFileName)
	if err := writeFile(inPath, src); err != nil {
		return nil, err
	}

	result, err := s.convertFile(ctx, inPath)
	if err != nil {
		logger.Error("batch failed", "error", err)
		return nil, err
	}

	outPath := filepath.Join(dir, OutputFileName)
	data, err := writeJSON(outPath, result.Candles)
	if err != nil {
		logger.Error("batch failed", "error", err)
		return nil, err
	}

	conv := &Conversion{
		BatchID:   batchID,
		Source:    source,
		Timeframe: tf,
		FileName:  OutputFileName,
		JSON:      data,
		Result:    result,
	}
	s.record(ctx, conv, started)

	logger.Info("batch complete",
		"rows", result.TotalRows,
		"converted", len(result.Candles),
		"skipped", result.Skipped(),
		"missing_columns", result.MissingColumns,
	)
	return conv, nil
}

func (s *Service) convertFile(ctx context.Context, path string) (*BatchResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputUnreadable, err)
	}
	defer f.Close()

	return s.converter.Convert(ctx, f)
}

// record saves the batch to history. Store failures do not fail the batch.
func (s *Service) record(ctx context.Context, conv *Conversion, started time.Time) {
	if s.store == nil {
		return
	}
	rec := BatchRecord{
		Summary: BatchSummary{
			ID:         conv.BatchID,
			Source:     conv.Source,
			Timeframe:  conv.Timeframe,
			TotalRows:  conv.Result.TotalRows,
			Converted:  len(conv.Result.Candles),
			Skipped:    conv.Result.Skipped(),
			DurationMs: s.now().Sub(started).Milliseconds(),
			CreatedAt:  started,
		},
		Candles: conv.Result.Candles,
	}
	if err := s.store.SaveBatch(ctx, rec); err != nil {
		logging.WithFields(ctx, "batch_id", conv.BatchID).Error("failed to save batch history", "error", err)
	}
}

// RecentBatches lists stored batch summaries, newest first. It returns an
// empty list when history is disabled.
func (s *Service) RecentBatches(ctx context.Context, limit int) ([]BatchSummary, error) {
	if s.store == nil {
		return []BatchSummary{}, nil
	}
	return s.store.RecentBatches(ctx, limit)
}

// HistoryEnabled reports whether batches are persisted.
func (s *Service) HistoryEnabled() bool {
	return s.store != nil
}

// LimiterStatus returns the batch limiter state.
func (s *Service) LimiterStatus() BatchLimiterStatus {
	return s.limiter.Status()
}

// WaitForBatches blocks until running batches finish or ctx is done.
func (s *Service) WaitForBatches(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func validateSourceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidSource, raw)
	}
	return nil
}

func writeFile(path string, src io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create input file: %w", ErrOutputUnwritable, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("%w: store input: %w", ErrInputUnreadable, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close input file: %w", ErrOutputUnwritable, err)
	}
	return nil
}

func writeJSON(path string, candles []Candle) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, candles); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputUnwritable, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputUnwritable, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read back output: %w", ErrOutputUnwritable, err)
	}
	return data, nil
}

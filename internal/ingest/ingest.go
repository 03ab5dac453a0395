package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/camuig/robot-analytics/internal/analytics"
	"github.com/camuig/robot-analytics/internal/logger"
	"github.com/camuig/robot-analytics/internal/observability"
	"github.com/camuig/robot-analytics/internal/periods"
	"github.com/camuig/robot-analytics/internal/sheet"
	"github.com/camuig/robot-analytics/internal/storage"
	"github.com/camuig/robot-analytics/internal/trades"
)

// ErrEmptyUpload is returned when a file parses but has no data rows. It is
// distinct from a filter that matches nothing.
var ErrEmptyUpload = errors.New("file contains no data rows")

type UploadRecorder interface {
	SaveUpload(log *storage.UploadLog) error
}

type Notifier interface {
	NotifyUpload(bucket, fileName string, rows, groups int)
	NotifyUploadFailed(bucket, fileName string, err error)
}

// Result describes a completed upload.
type Result struct {
	BatchID  string        `json:"batch_id"`
	Bucket   trades.Bucket `json:"bucket"`
	FileName string        `json:"file_name"`
	Rows     int           `json:"rows"`
	Groups   []string      `json:"groups"`
}

type Service struct {
	store    *periods.Store
	repo     UploadRecorder
	notifier Notifier
	metrics  *observability.Metrics
	logger   *logger.Logger
	now      func() time.Time
}

// NewService wires the upload path. repo, notifier and metrics may be nil.
func NewService(
	store *periods.Store,
	repo UploadRecorder,
	notifier Notifier,
	metrics *observability.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		store:    store,
		repo:     repo,
		notifier: notifier,
		metrics:  metrics,
		logger:   log,
		now:      time.Now,
	}
}

// Upload decodes the file, normalizes its rows and replaces the bucket.
// On any error the bucket keeps its previous contents.
func (s *Service) Upload(bucket trades.Bucket, fileName string, r io.Reader) (*Result, error) {
	batchID := uuid.NewString()
	started := s.now()

	if _, err := trades.ParseBucket(string(bucket)); err != nil {
		return nil, err
	}

	rows, err := sheet.Decode(fileName, r)
	if err == nil && len(rows) == 0 {
		err = ErrEmptyUpload
	}
	if err != nil {
		s.fail(batchID, bucket, fileName, err)
		return nil, fmt.Errorf("upload %s: %w", fileName, err)
	}

	records := trades.NormalizeAll(rows, bucket)
	groups := analytics.Groups(records)

	err = s.store.Replace(bucket, records, periods.Upload{
		FileName: fileName,
		Rows:     len(records),
		LoadedAt: s.now(),
	})
	if err != nil {
		s.fail(batchID, bucket, fileName, err)
		return nil, fmt.Errorf("store %s: %w", fileName, err)
	}

	log := s.logger.With("bucket", string(bucket), "file", fileName, "batch_id", batchID)
	if len(groups) == 0 {
		log.Warn("no robot groups found in upload, check the group_name column", "rows", len(records))
	}
	log.Info("upload loaded", "rows", len(records), "groups", len(groups))

	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues(string(bucket), "ok").Inc()
		s.metrics.RowsLoaded.WithLabelValues(string(bucket)).Set(float64(len(records)))
		s.metrics.UploadDuration.WithLabelValues(format(fileName)).Observe(s.now().Sub(started).Seconds())
	}
	s.record(&storage.UploadLog{
		BatchID:  batchID,
		Bucket:   string(bucket),
		FileName: fileName,
		Rows:     len(records),
		Groups:   len(groups),
		Status:   storage.UploadStatusOK,
	})
	if s.notifier != nil {
		s.notifier.NotifyUpload(bucket.Label(), fileName, len(records), len(groups))
	}

	return &Result{
		BatchID:  batchID,
		Bucket:   bucket,
		FileName: fileName,
		Rows:     len(records),
		Groups:   groups,
	}, nil
}

// LoadFile uploads a spreadsheet from disk.
func (s *Service) LoadFile(bucket trades.Bucket, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return s.Upload(bucket, filepath.Base(path), f)
}

func (s *Service) fail(batchID string, bucket trades.Bucket, fileName string, err error) {
	s.logger.Error("upload failed", "bucket", string(bucket), "file", fileName, "error", err)

	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues(string(bucket), "failed").Inc()
	}
	s.record(&storage.UploadLog{
		BatchID:  batchID,
		Bucket:   string(bucket),
		FileName: fileName,
		Status:   storage.UploadStatusFailed,
		Error:    err.Error(),
	})
	if s.notifier != nil {
		s.notifier.NotifyUploadFailed(bucket.Label(), fileName, err)
	}
}

func (s *Service) record(entry *storage.UploadLog) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveUpload(entry); err != nil {
		s.logger.Error("save upload log", "batch_id", entry.BatchID, "error", err)
	}
}

func format(fileName string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

// Package services – ExceptionLogService
//
// This file implements the ExceptionLogService. On the write side it is the
// structured logger's Sink: it appends persisted log records. On the read
// side it serves paginated, filtered listings and single-record lookups for
// the admin endpoints.
//
// Service-level errors (ErrExceptionLogNotFound, ErrInvalidSeverity) are
// returned for predictable cases so handlers can map them to HTTP results.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-api-boilerplate/internal/domain"
	"github.com/tbourn/go-api-boilerplate/internal/repo"
)

// ExceptionLogRepo defines the repository contract required by
// ExceptionLogService.
type ExceptionLogRepo interface {
	// CreateExceptionLog appends a record.
	CreateExceptionLog(ctx context.Context, db *gorm.DB, rec *domain.ExceptionLog) error

	// GetExceptionLog fetches a record by ID.
	GetExceptionLog(ctx context.Context, db *gorm.DB, id string) (*domain.ExceptionLog, error)

	// CountExceptionLogs returns the number of records matching the filter.
	CountExceptionLogs(ctx context.Context, db *gorm.DB, f repo.ExceptionLogFilter) (int64, error)

	// ListExceptionLogsPage returns a page of records matching the filter.
	ListExceptionLogsPage(ctx context.Context, db *gorm.DB, f repo.ExceptionLogFilter, offset, limit int) ([]domain.ExceptionLog, error)
}

// ExceptionLogQuery is the raw, user-supplied filter for listings.
type ExceptionLogQuery struct {
	Severity string
	Context  string
	Since    time.Time
}

// ExceptionLogService persists and reads exception logs.
type ExceptionLogService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the exception log repository used by this service.
	Repo ExceptionLogRepo

	// MaxMessageLen caps stored messages by byte length (0 disables).
	MaxMessageLen int
}

// NewExceptionLogService constructs an ExceptionLogService with defaults.
func NewExceptionLogService(db *gorm.DB, r ExceptionLogRepo) *ExceptionLogService {
	return &ExceptionLogService{DB: db, Repo: r, MaxMessageLen: 64 << 10}
}

// Append stores rec. It satisfies logger.Sink.
func (s *ExceptionLogService) Append(ctx context.Context, rec *domain.ExceptionLog) error {
	if rec == nil {
		return errors.New("exception log record is nil")
	}
	if !rec.Severity.Valid() {
		return ErrInvalidSeverity
	}
	if s.MaxMessageLen > 0 && len(rec.Message) > s.MaxMessageLen {
		rec.Message = strings.ToValidUTF8(rec.Message[:s.MaxMessageLen], "")
	}
	if err := s.Repo.CreateExceptionLog(ctx, s.DB, rec); err != nil {
		return fmt.Errorf("save exception log: %w", err)
	}
	return nil
}

// Get returns a single record or ErrExceptionLogNotFound.
func (s *ExceptionLogService) Get(ctx context.Context, id string) (*domain.ExceptionLog, error) {
	rec, err := s.Repo.GetExceptionLog(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExceptionLogNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListPage returns a page of records matching q (newest first) and the total
// count. It applies defaults for invalid page/pageSize.
func (s *ExceptionLogService) ListPage(ctx context.Context, q ExceptionLogQuery, page, pageSize int) ([]domain.ExceptionLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	f := repo.ExceptionLogFilter{
		Context: strings.TrimSpace(q.Context),
		Since:   q.Since,
	}
	if sev := strings.TrimSpace(q.Severity); sev != "" {
		parsed, err := domain.ParseSeverity(sev)
		if err != nil {
			return nil, 0, ErrInvalidSeverity
		}
		f.Severity = &parsed
	}

	total, err := s.Repo.CountExceptionLogs(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ExceptionLog{}, 0, nil
	}

	items, err := s.Repo.ListExceptionLogsPage(ctx, s.DB, f, offset, pageSize)
	return items, total, err
}

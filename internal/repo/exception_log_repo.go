// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ExceptionLog model.
//
// Exception logs are append-only: the repository inserts and reads rows but
// never updates or deletes them.
//
// Error semantics:
//   - A missing row is reported as ErrNotFound (gorm.ErrRecordNotFound).
//   - Any other DB error is propagated unchanged.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-api-boilerplate/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ExceptionLogFilter narrows list and count queries. Zero values match all
// rows.
type ExceptionLogFilter struct {
	Severity *domain.Severity
	Context  string
	Since    time.Time
}

func (f ExceptionLogFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Severity != nil {
		q = q.Where("severity = ?", f.Severity.String())
	}
	if f.Context != "" {
		q = q.Where("context = ?", f.Context)
	}
	if !f.Since.IsZero() {
		q = q.Where("timestamp >= ?", f.Since.UTC())
	}
	return q
}

// CreateExceptionLog inserts rec. A missing ID is filled with a new UUID and
// a zero Timestamp with the current UTC time.
func CreateExceptionLog(ctx context.Context, db *gorm.DB, rec *domain.ExceptionLog) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(rec).Error
}

// GetExceptionLog fetches a single row by ID, or ErrNotFound.
func GetExceptionLog(ctx context.Context, db *gorm.DB, id string) (*domain.ExceptionLog, error) {
	var rec domain.ExceptionLog
	if err := db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// CountExceptionLogs returns the number of rows matching f.
func CountExceptionLogs(ctx context.Context, db *gorm.DB, f ExceptionLogFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.ExceptionLog{})).
		Count(&total).Error
	return total, err
}

// ListExceptionLogsPage returns rows matching f, newest first.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListExceptionLogsPage(ctx context.Context, db *gorm.DB, f ExceptionLogFilter, offset, limit int) ([]domain.ExceptionLog, error) {
	var out []domain.ExceptionLog
	err := f.apply(db.WithContext(ctx).Model(&domain.ExceptionLog{})).
		Order("timestamp desc").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

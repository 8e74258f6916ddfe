// Package domain defines the severity taxonomy and the persistence model for
// structured log records. ExceptionLog is mapped with GORM and is the only
// entity the service writes; rows are append-only.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Cause is the normalized form of the error (or plain string) attached to a
// log event. Name and Stack are empty for string causes.
type Cause struct {
	Name    string `json:"name,omitempty"    gorm:"type:varchar(255)"`
	Message string `json:"message"           gorm:"type:text"`
	Stack   string `json:"stack,omitempty"   gorm:"type:text"`
}

// stackTracer is implemented by errors that captured a call stack when they
// were created (see the exceptions package).
type stackTracer interface {
	StackTrace() string
}

// NewCause normalizes a cause value: errors become {name, message, stack},
// strings become {message}, and anything else (including nil) yields nil.
func NewCause(v any) *Cause {
	switch c := v.(type) {
	case nil:
		return nil
	case error:
		out := &Cause{Name: errorName(c), Message: c.Error()}
		var st stackTracer
		if errors.As(c, &st) {
			out.Stack = st.StackTrace()
		}
		return out
	case string:
		return &Cause{Message: c}
	default:
		return nil
	}
}

// errorName reports the dynamic type of err without pointer markers, e.g.
// "errors.errorString" for errors.New.
func errorName(err error) string {
	if n, ok := err.(interface{ Name() string }); ok {
		return n.Name()
	}
	return strings.TrimLeft(fmt.Sprintf("%T", err), "*")
}

// ExceptionLog is the persisted projection of a log event written when the
// caller asked for SaveToDB.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Message / Context: the log message and the emitting component.
//   - Severity: stored as its wire name ("error", "fatal", …).
//   - Metadata / Data: free-form JSON objects.
//   - Cause: normalized error, nullable; columns are prefixed with cause_.
//   - Timestamp: emission time assigned by the logger.
type ExceptionLog struct {
	ID        string            `json:"id"                 gorm:"type:char(36);primaryKey"`
	Message   string            `json:"message"            gorm:"type:text;not null"`
	Context   string            `json:"context"            gorm:"type:varchar(128);not null;index:idx_exception_logs_context"`
	Severity  Severity          `json:"severity"           gorm:"type:varchar(16);not null;index:idx_exception_logs_severity"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	Data      datatypes.JSONMap `json:"data,omitempty"`
	Cause     *Cause            `json:"cause,omitempty"    gorm:"embedded;embeddedPrefix:cause_"`
	Timestamp time.Time         `json:"timestamp"          gorm:"not null;index:idx_exception_logs_ts"`
	CreatedAt time.Time         `json:"created_at"`
}

// TableName returns the database table name for ExceptionLog.
func (ExceptionLog) TableName() string { return "exception_logs" }

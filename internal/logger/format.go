package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tbourn/go-api-boilerplate/internal/domain"
)

// Block markers used by Format.
const (
	metadataMarker = "🧩 Metadata:"
	dataMarker     = "📦 Data:"
	causeMarker    = "💥 Cause:"
)

// Format renders the human-readable form of a log event:
//
//	🚨 [ERROR] Context
//	📝 message
//
//	🧩 Metadata:
//	{ … }
//
// The metadata and data blocks are present only when their map is non-empty,
// and the cause block only when a cause is set. JSON is indented by two spaces.
func Format(message string, p Payload, sev domain.Severity) string {
	p = p.withDefaults()

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s\n📝 %s", sev.Icon(), sev.Label(), p.Context, message)

	if len(p.Metadata) > 0 {
		b.WriteString("\n\n" + metadataMarker + "\n")
		b.WriteString(prettyJSON(p.Metadata))
	}
	if len(p.Data) > 0 {
		b.WriteString("\n\n" + dataMarker + "\n")
		b.WriteString(prettyJSON(p.Data))
	}
	if p.Cause != nil {
		b.WriteString("\n\n" + causeMarker + "\n")
		b.WriteString(prettyJSON(causeBlock(p.Cause)))
	}
	return b.String()
}

// causeBlock mirrors domain.NewCause but never drops the cause: values that
// are neither errors nor strings render as {message: fmt.Sprint(v)}.
func causeBlock(v any) *domain.Cause {
	if c := domain.NewCause(v); c != nil {
		return c
	}
	return &domain.Cause{Message: fmt.Sprint(v)}
}

// prettyJSON is json.MarshalIndent without HTML escaping and without the
// trailing newline added by json.Encoder.
func prettyJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the urgency tier attached to every log event. The zero value is
// SeverityDebug and tiers compare with the usual integer operators:
// Debug < Info < Warn < Error < Fatal.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
	SeverityFatal
)

// Channel names the console output a severity is routed to. Channels only
// decide where a record is printed; they never gate alerting or persistence.
type Channel string

const (
	ChannelDebug Channel = "debug"
	ChannelInfo  Channel = "info"
	ChannelWarn  Channel = "warn"
	ChannelError Channel = "error"
)

type severityDisplay struct {
	icon    string
	label   string
	name    string
	channel Channel
}

var severityTable = map[Severity]severityDisplay{
	SeverityFatal: {icon: "🚨", label: "FATAL ALERT", name: "fatal", channel: ChannelError},
	SeverityError: {icon: "🚨", label: "ERROR", name: "error", channel: ChannelError},
	SeverityWarn:  {icon: "⚠️", label: "WARNING", name: "warn", channel: ChannelWarn},
	SeverityInfo:  {icon: "ℹ️", label: "INFO", name: "info", channel: ChannelInfo},
	SeverityDebug: {icon: "🐞", label: "DEBUG", name: "debug", channel: ChannelDebug},
}

// Severities lists every tier in ascending order.
func Severities() []Severity {
	return []Severity{SeverityDebug, SeverityInfo, SeverityWarn, SeverityError, SeverityFatal}
}

// Valid reports whether s is one of the five known tiers.
func (s Severity) Valid() bool {
	_, ok := severityTable[s]
	return ok
}

// String returns the lowercase wire name ("debug" … "fatal").
func (s Severity) String() string {
	if d, ok := severityTable[s]; ok {
		return d.name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Icon returns the emoji shown in front of formatted records.
func (s Severity) Icon() string { return severityTable[s].icon }

// Label returns the upper-case header label, e.g. "FATAL ALERT".
func (s Severity) Label() string { return severityTable[s].label }

// Channel returns the console channel for s. Unknown values fall back to info.
func (s Severity) Channel() Channel {
	if d, ok := severityTable[s]; ok {
		return d.channel
	}
	return ChannelInfo
}

// ParseSeverity converts a wire name back to a Severity. Matching is
// case-insensitive and accepts "warning" as an alias of "warn".
func ParseSeverity(v string) (Severity, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "warning" {
		v = "warn"
	}
	for s, d := range severityTable {
		if d.name == v {
			return s, nil
		}
	}
	return SeverityDebug, fmt.Errorf("unknown severity %q", v)
}

// MarshalJSON encodes the severity as its wire name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a wire name.
func (s *Severity) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value stores the severity as text so persisted rows stay readable.
func (s Severity) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return s.String(), nil
}

// Scan reads a severity stored by Value.
func (s *Severity) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseSeverity(v)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Severity", src)
	}
}

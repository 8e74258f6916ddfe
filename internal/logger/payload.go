package logger

// DefaultContext is used when a payload does not name its component.
const DefaultContext = "General"

// Options selects the side effects of a log call beyond the console write.
type Options struct {
	SendAlert bool // forward the formatted record to the Notifier
	SaveToDB  bool // append a persisted record to the Sink
}

// Payload carries everything a log call can attach to its message.
//
// Cause may be an error or a string; other values are ignored.
type Payload struct {
	Context  string
	Metadata map[string]any
	Data     map[string]any
	Cause    any
	Options  Options
}

func (p Payload) withDefaults() Payload {
	if p.Context == "" {
		p.Context = DefaultContext
	}
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	if p.Data == nil {
		p.Data = map[string]any{}
	}
	return p
}

// first merges optional variadic payloads; only the first one is used.
func first(payload []Payload) Payload {
	if len(payload) == 0 {
		return Payload{}
	}
	return payload[0]
}
